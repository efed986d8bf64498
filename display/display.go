// Package display builds diagnostic displays for fitted estimators.
//
// Building a display is split in two steps. The From… constructors run the
// expensive part (statistics over response values) once. Plot is the
// lightweight render step: it builds a fresh gonum plot from the stored
// statistics on every call, so a cached display can be re-rendered with
// different styling without recomputing anything.
package display

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Display names, used as operation names in cache keys.
const (
	NameRocCurve        = "RocCurveDisplay"
	NamePrecisionRecall = "PrecisionRecallCurveDisplay"
	NamePredictionError = "PredictionErrorDisplay"
)

var (
	ErrEmpty       = errors.New("display: no data")
	ErrShape       = errors.New("display: inconsistent input shapes")
	ErrInvalidKind = errors.New("display: invalid kind")
)

// Display is a computed display with a render step.
type Display interface {
	// Name returns the display class name.
	Name() string

	// Plot renders the display and records the result as the current
	// figure.
	Plot(opts RenderOptions) (*plot.Plot, error)
}

// RenderOptions styles a render. Zero values keep the defaults.
type RenderOptions struct {
	// Title overrides the default title.
	Title string
	// EstimatorName prefixes legend entries.
	EstimatorName string
	// ChanceLevel draws the chance line on ROC curves.
	ChanceLevel bool
	// Kind selects the prediction error layout.
	Kind PredictionErrorKind
}

// Curve is one line of a curve display.
type Curve struct {
	Label      string
	X, Y       []float64
	Thresholds []float64
	// Area is the AUC for ROC curves and the average precision for
	// precision-recall curves.
	Area float64
}

// Meta describes where the data of a display came from.
type Meta struct {
	EstimatorName string
	DataSource    string
	PosLabel      *float64
}

// figure holds the latest render of a display.
type figure struct {
	mu      sync.Mutex
	current *plot.Plot
	renders atomic.Int64
}

func (f *figure) set(p *plot.Plot) {
	f.mu.Lock()
	f.current = p
	f.mu.Unlock()
	f.renders.Add(1)
}

// Figure returns the latest render, or nil.
func (f *figure) Figure() *plot.Plot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Renders returns how many times Plot ran.
func (f *figure) Renders() int64 {
	return f.renders.Load()
}

func addCurves(p *plot.Plot, prefix string, curves []Curve, areaName string) error {
	for i, c := range curves {
		xys := make(plotter.XYs, len(c.X))
		for k := range c.X {
			xys[k].X = c.X[k]
			xys[k].Y = c.Y[k]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("display: %w", err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(legendLabel(prefix, c.Label, areaName, c.Area), line)
	}
	return nil
}

func legendLabel(prefix, label, areaName string, area float64) string {
	out := prefix
	if label != "" {
		if out != "" {
			out += " "
		}
		out += label
	}
	if out != "" {
		out += " "
	}
	return out + "(" + areaName + " = " + strconv.FormatFloat(area, 'f', 2, 64) + ")"
}

func formatLabel(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

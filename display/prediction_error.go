package display

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/jonwraymond/evalops/estimator"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PredictionErrorKind selects the prediction error layout.
type PredictionErrorKind string

const (
	ResidualVsPredicted PredictionErrorKind = "residual_vs_predicted"
	ActualVsPredicted   PredictionErrorKind = "actual_vs_predicted"
)

// Validate reports whether k is a known layout. The empty kind is valid and
// means residual_vs_predicted.
func (k PredictionErrorKind) Validate() error {
	switch k {
	case "", ResidualVsPredicted, ActualVsPredicted:
		return nil
	}
	return fmt.Errorf("%w: kind=%q, expected one of [%s %s]", ErrInvalidKind, k, ResidualVsPredicted, ActualVsPredicted)
}

// PredictionErrorOptions control which points a prediction error display
// keeps.
type PredictionErrorOptions struct {
	// Subsample keeps at most this many points. Zero or negative keeps all.
	Subsample int
	// Seed makes subsampling reproducible.
	Seed uint64
}

// PredictionError compares predictions with the ground truth of a
// single-output regression.
type PredictionError struct {
	Meta
	Actual    []float64
	Predicted []float64
	figure
}

var _ Display = (*PredictionError)(nil)

func (d *PredictionError) Name() string { return NamePredictionError }

// PredictionErrorFromPredictions keeps the (actual, predicted) pairs,
// subsampled when requested.
func PredictionErrorFromPredictions(yTrue, yPred mat.Matrix, opts PredictionErrorOptions, meta Meta) (*PredictionError, error) {
	if estimator.IsEmpty(yTrue) || estimator.IsEmpty(yPred) {
		return nil, ErrEmpty
	}
	n, ct := yTrue.Dims()
	np, cp := yPred.Dims()
	if n != np {
		return nil, fmt.Errorf("%w: %d targets, %d predictions", ErrShape, n, np)
	}
	if ct != 1 || cp != 1 {
		return nil, fmt.Errorf("%w: prediction error needs a single output, got %d", ErrShape, max(ct, cp))
	}

	actual := mat.Col(nil, 0, yTrue)
	predicted := mat.Col(nil, 0, yPred)
	if opts.Subsample > 0 && opts.Subsample < n {
		idx := make([]int, opts.Subsample)
		sampleuv.WithoutReplacement(idx, n, rand.NewPCG(opts.Seed, opts.Seed))
		slices.Sort(idx)
		a := make([]float64, len(idx))
		p := make([]float64, len(idx))
		for i, k := range idx {
			a[i], p[i] = actual[k], predicted[k]
		}
		actual, predicted = a, p
	}
	return &PredictionError{Meta: meta, Actual: actual, Predicted: predicted}, nil
}

// Plot renders a scatter of residuals against predictions, or actual
// values against predictions, with the perfect-prediction reference line.
func (d *PredictionError) Plot(opts RenderOptions) (*plot.Plot, error) {
	if err := opts.Kind.Validate(); err != nil {
		return nil, err
	}
	kind := opts.Kind
	if kind == "" {
		kind = ResidualVsPredicted
	}

	p := plot.New()
	p.Title.Text = titled(opts, "Prediction error", d.DataSource)
	p.X.Label.Text = "Predicted values"

	points := make(plotter.XYs, len(d.Actual))
	for i := range d.Actual {
		points[i].X = d.Predicted[i]
		if kind == ActualVsPredicted {
			points[i].Y = d.Actual[i]
		} else {
			points[i].Y = d.Actual[i] - d.Predicted[i]
		}
	}
	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)
	name := prefix(opts, d.Meta)
	if name == "" {
		name = "Predictions"
	}
	p.Legend.Add(name, scatter)

	lo := math.Min(floats.Min(d.Predicted), floats.Min(d.Actual))
	hi := math.Max(floats.Max(d.Predicted), floats.Max(d.Actual))
	ref := plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}}
	if kind == ResidualVsPredicted {
		p.Y.Label.Text = "Residuals (actual - predicted)"
		ref = plotter.XYs{{X: floats.Min(d.Predicted), Y: 0}, {X: floats.Max(d.Predicted), Y: 0}}
	} else {
		p.Y.Label.Text = "Actual values"
	}
	line, err := plotter.NewLine(ref)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(line)
	p.Legend.Add("Perfect predictions", line)

	d.set(p)
	return p, nil
}

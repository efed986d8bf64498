package display

import (
	"fmt"

	"github.com/jonwraymond/evalops/estimator"
	"github.com/jonwraymond/evalops/metrics"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RocCurve holds one ROC curve for a binary problem, or one
// one-vs-rest curve per class otherwise.
type RocCurve struct {
	Meta
	Curves []Curve
	figure
}

// PrecisionRecallCurve holds precision-recall curves laid out like
// RocCurve.
type PrecisionRecallCurve struct {
	Meta
	Curves []Curve
	figure
}

var (
	_ Display = (*RocCurve)(nil)
	_ Display = (*PrecisionRecallCurve)(nil)
)

func (d *RocCurve) Name() string             { return NameRocCurve }
func (d *PrecisionRecallCurve) Name() string { return NamePrecisionRecall }

// RocCurveFromPredictions computes ROC curves. yScore has one column
// oriented towards the positive label for binary problems, or one column
// per class.
func RocCurveFromPredictions(yTrue mat.Matrix, yScore mat.Matrix, classes []float64, meta Meta) (*RocCurve, error) {
	curves, err := curvesFromScores(yTrue, yScore, classes, meta.PosLabel, func(label string, c metrics.Curve) Curve {
		return Curve{Label: label, X: c.FPR, Y: c.TPR, Thresholds: c.Thresholds, Area: c.AUC()}
	})
	if err != nil {
		return nil, err
	}
	return &RocCurve{Meta: meta, Curves: curves}, nil
}

// PrecisionRecallFromPredictions computes precision-recall curves with the
// same score layout as RocCurveFromPredictions.
func PrecisionRecallFromPredictions(yTrue mat.Matrix, yScore mat.Matrix, classes []float64, meta Meta) (*PrecisionRecallCurve, error) {
	curves, err := curvesFromScores(yTrue, yScore, classes, meta.PosLabel, func(label string, c metrics.Curve) Curve {
		precision, recall := c.PrecisionRecall()
		return Curve{Label: label, X: recall, Y: precision, Thresholds: c.Thresholds, Area: c.AveragePrecision()}
	})
	if err != nil {
		return nil, err
	}
	return &PrecisionRecallCurve{Meta: meta, Curves: curves}, nil
}

func curvesFromScores(yTrue, yScore mat.Matrix, classes []float64, posLabel *float64, build func(string, metrics.Curve) Curve) ([]Curve, error) {
	if estimator.IsEmpty(yTrue) || estimator.IsEmpty(yScore) {
		return nil, ErrEmpty
	}
	n, _ := yTrue.Dims()
	ns, k := yScore.Dims()
	if n != ns {
		return nil, fmt.Errorf("%w: %d labels, %d scores", ErrShape, n, ns)
	}
	if len(classes) == 0 {
		classes = estimator.UniqueLabels(yTrue)
	}
	truth := mat.Col(nil, 0, yTrue)

	if k == 1 {
		pos := classes[len(classes)-1]
		if posLabel != nil {
			pos = *posLabel
		}
		c, err := metrics.ROCCurve(truth, mat.Col(nil, 0, yScore), pos)
		if err != nil {
			return nil, err
		}
		return []Curve{build("", c)}, nil
	}

	if k != len(classes) {
		return nil, fmt.Errorf("%w: %d score columns for %d classes", ErrShape, k, len(classes))
	}
	curves := make([]Curve, k)
	for j, class := range classes {
		c, err := metrics.ROCCurve(truth, mat.Col(nil, j, yScore), class)
		if err != nil {
			return nil, err
		}
		curves[j] = build(formatLabel(class), c)
	}
	return curves, nil
}

func titled(opts RenderOptions, def, source string) string {
	if opts.Title != "" {
		return opts.Title
	}
	if source == "" {
		return def
	}
	return def + " (data source: " + source + ")"
}

func prefix(opts RenderOptions, meta Meta) string {
	if opts.EstimatorName != "" {
		return opts.EstimatorName
	}
	return meta.EstimatorName
}

// Plot renders the ROC curves.
func (d *RocCurve) Plot(opts RenderOptions) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = titled(opts, "ROC curve", d.DataSource)
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Left = false
	p.Legend.Top = false

	if err := addCurves(p, prefix(opts, d.Meta), d.Curves, "AUC"); err != nil {
		return nil, err
	}
	if opts.ChanceLevel {
		chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
		if err != nil {
			return nil, fmt.Errorf("display: %w", err)
		}
		chance.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(chance)
		p.Legend.Add("Chance level (AUC = 0.5)", chance)
	}
	d.set(p)
	return p, nil
}

// Plot renders the precision-recall curves.
func (d *PrecisionRecallCurve) Plot(opts RenderOptions) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = titled(opts, "Precision-Recall curve", d.DataSource)
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	if err := addCurves(p, prefix(opts, d.Meta), d.Curves, "AP"); err != nil {
		return nil, err
	}
	d.set(p)
	return p, nil
}

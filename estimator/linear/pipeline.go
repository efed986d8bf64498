package linear

import (
	"fmt"

	"github.com/jonwraymond/evalops/estimator"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Pipeline standardizes features before handing them to its final step.
// Response methods are available when the final step provides them.
type Pipeline struct {
	Step estimator.Fitter

	mean, scale []float64
}

// NewPipeline wraps step with feature standardization.
func NewPipeline(step estimator.Fitter) *Pipeline {
	return &Pipeline{Step: step}
}

var (
	_ estimator.Fitter                  = (*Pipeline)(nil)
	_ estimator.Pipeline                = (*Pipeline)(nil)
	_ estimator.ResponseMethodSupporter = (*Pipeline)(nil)
)

func (p *Pipeline) Name() string               { return "Pipeline" }
func (p *Pipeline) Kind() estimator.Kind       { return p.Step.Kind() }
func (p *Pipeline) Fitted() bool               { return p.mean != nil && p.Step.Fitted() }
func (p *Pipeline) Final() estimator.Estimator { return p.Step }
func (p *Pipeline) Clone() estimator.Fitter    { return &Pipeline{Step: p.Step.Clone()} }

func (p *Pipeline) Classes() []float64 {
	return estimator.Classes(p.Step)
}

func (p *Pipeline) SupportsResponseMethod(m estimator.ResponseMethod) bool {
	return estimator.Supports(p.Step, m)
}

func (p *Pipeline) Fit(X, y mat.Matrix) error {
	if estimator.IsEmpty(X) {
		return fmt.Errorf("%w: X is empty", estimator.ErrInconsistentLength)
	}
	_, c := X.Dims()
	p.mean = make([]float64, c)
	p.scale = make([]float64, c)
	for j := 0; j < c; j++ {
		mean, std := stat.MeanStdDev(mat.Col(nil, j, X), nil)
		if std == 0 {
			std = 1
		}
		p.mean[j], p.scale[j] = mean, std
	}
	return p.Step.Fit(p.transform(X), y)
}

func (p *Pipeline) transform(X mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(X)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - p.mean[j]) / p.scale[j]
	}, out)
	return out
}

func (p *Pipeline) Predict(X mat.Matrix) (*mat.Dense, error) {
	if !p.Fitted() {
		return nil, estimator.ErrNotFitted
	}
	pred, ok := p.Step.(estimator.Predictor)
	if !ok {
		return nil, estimator.ErrUnsupportedMethod
	}
	return pred.Predict(p.transform(X))
}

func (p *Pipeline) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !p.Fitted() {
		return nil, estimator.ErrNotFitted
	}
	pred, ok := p.Step.(estimator.ProbaPredictor)
	if !ok {
		return nil, estimator.ErrUnsupportedMethod
	}
	return pred.PredictProba(p.transform(X))
}

func (p *Pipeline) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if !p.Fitted() {
		return nil, estimator.ErrNotFitted
	}
	pred, ok := p.Step.(estimator.DecisionScorer)
	if !ok {
		return nil, estimator.ErrUnsupportedMethod
	}
	return pred.DecisionFunction(p.transform(X))
}

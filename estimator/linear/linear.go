// Package linear provides small gonum-backed linear estimators: binary and
// multinomial logistic regression, ordinary least squares and a
// standardizing pipeline.
package linear

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/jonwraymond/evalops/estimator"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrTooFewClasses = errors.New("linear: need at least two classes")
	ErrNoTarget      = errors.New("linear: target is required")
)

// withIntercept returns X with a trailing column of ones.
func withIntercept(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(i, j))
		}
		out.Set(i, c, 1)
	}
	return out
}

func checkSamples(X, y mat.Matrix) error {
	if estimator.IsEmpty(X) {
		return fmt.Errorf("%w: X is empty", estimator.ErrInconsistentLength)
	}
	if estimator.IsEmpty(y) {
		return ErrNoTarget
	}
	xr, _ := X.Dims()
	yr, _ := y.Dims()
	if xr != yr {
		return fmt.Errorf("%w: X has %d rows, y has %d", estimator.ErrInconsistentLength, xr, yr)
	}
	return nil
}

// LogisticRegression is trained with full-batch gradient descent on the
// cross-entropy loss. Two classes use a sigmoid on one score column, more
// classes use a softmax.
type LogisticRegression struct {
	LearningRate float64
	Epochs       int
	L2           float64

	classes []float64
	weights *mat.Dense // (features+1) x outputs
}

// NewLogisticRegression returns a classifier with default hyperparameters.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{LearningRate: 0.1, Epochs: 500, L2: 1e-4}
}

var (
	_ estimator.Fitter         = (*LogisticRegression)(nil)
	_ estimator.Predictor      = (*LogisticRegression)(nil)
	_ estimator.ProbaPredictor = (*LogisticRegression)(nil)
	_ estimator.DecisionScorer = (*LogisticRegression)(nil)
	_ estimator.Classifier     = (*LogisticRegression)(nil)
)

func (m *LogisticRegression) Name() string         { return "LogisticRegression" }
func (m *LogisticRegression) Kind() estimator.Kind { return estimator.KindClassifier }
func (m *LogisticRegression) Fitted() bool         { return m.weights != nil }
func (m *LogisticRegression) Classes() []float64   { return slices.Clone(m.classes) }

func (m *LogisticRegression) Clone() estimator.Fitter {
	return &LogisticRegression{LearningRate: m.LearningRate, Epochs: m.Epochs, L2: m.L2}
}

func (m *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := checkSamples(X, y); err != nil {
		return err
	}
	classes := estimator.UniqueLabels(y)
	if len(classes) < 2 {
		return fmt.Errorf("%w: got %v", ErrTooFewClasses, classes)
	}

	xa := withIntercept(X)
	n, d := xa.Dims()
	outputs := len(classes)
	if outputs == 2 {
		outputs = 1
	}

	// one-hot targets; binary keeps only the second class
	target := mat.NewDense(n, outputs, nil)
	for i := 0; i < n; i++ {
		k := slices.Index(classes, y.At(i, 0))
		if outputs == 1 {
			if k == 1 {
				target.Set(i, 0, 1)
			}
			continue
		}
		target.Set(i, k, 1)
	}

	w := mat.NewDense(d, outputs, nil)
	var scores, grad, penalty mat.Dense
	for epoch := 0; epoch < m.Epochs; epoch++ {
		scores.Mul(xa, w)
		probs := activate(&scores)
		probs.Sub(probs, target)
		grad.Mul(xa.T(), probs)
		grad.Scale(1/float64(n), &grad)
		if m.L2 > 0 {
			penalty.Scale(m.L2, w)
			for k := 0; k < outputs; k++ {
				penalty.Set(d-1, k, 0)
			}
			grad.Add(&grad, &penalty)
		}
		grad.Scale(m.LearningRate, &grad)
		w.Sub(w, &grad)
	}

	m.classes = classes
	m.weights = w
	return nil
}

func (m *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if !m.Fitted() {
		return nil, estimator.ErrNotFitted
	}
	var scores mat.Dense
	scores.Mul(withIntercept(X), m.weights)
	return &scores, nil
}

func (m *LogisticRegression) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	scores, err := m.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	probs := activate(scores)
	if len(m.classes) != 2 {
		return probs, nil
	}
	n, _ := probs.Dims()
	out := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		p := probs.At(i, 0)
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

func (m *LogisticRegression) Predict(X mat.Matrix) (*mat.Dense, error) {
	probs, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, _ := probs.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, m.classes[floats.MaxIdx(probs.RawRowView(i))])
	}
	return out, nil
}

// activate applies a sigmoid to single-column scores and a row-wise
// softmax otherwise.
func activate(scores *mat.Dense) *mat.Dense {
	n, k := scores.Dims()
	out := mat.NewDense(n, k, nil)
	if k == 1 {
		out.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, scores)
		return out
	}
	row := make([]float64, k)
	for i := 0; i < n; i++ {
		mat.Row(row, i, scores)
		peak := floats.Max(row)
		for j := range row {
			row[j] = math.Exp(row[j] - peak)
		}
		floats.Scale(1/floats.Sum(row), row)
		out.SetRow(i, row)
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// LinearRegression is ordinary least squares with an intercept. A target
// with several columns fits one model per output.
type LinearRegression struct {
	coef *mat.Dense // (features+1) x outputs
}

func NewLinearRegression() *LinearRegression { return &LinearRegression{} }

var (
	_ estimator.Fitter    = (*LinearRegression)(nil)
	_ estimator.Predictor = (*LinearRegression)(nil)
)

func (m *LinearRegression) Name() string            { return "LinearRegression" }
func (m *LinearRegression) Kind() estimator.Kind    { return estimator.KindRegressor }
func (m *LinearRegression) Fitted() bool            { return m.coef != nil }
func (m *LinearRegression) Clone() estimator.Fitter { return &LinearRegression{} }

func (m *LinearRegression) Fit(X, y mat.Matrix) error {
	if err := checkSamples(X, y); err != nil {
		return err
	}
	var coef mat.Dense
	if err := coef.Solve(withIntercept(X), y); err != nil {
		return fmt.Errorf("linear: least squares: %w", err)
	}
	m.coef = &coef
	return nil
}

func (m *LinearRegression) Predict(X mat.Matrix) (*mat.Dense, error) {
	if !m.Fitted() {
		return nil, estimator.ErrNotFitted
	}
	var out mat.Dense
	out.Mul(withIntercept(X), m.coef)
	return &out, nil
}

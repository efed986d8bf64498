// Package estimatortest provides estimator test doubles that count calls.
package estimatortest

import (
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/evalops/estimator"
	"gonum.org/v1/gonum/mat"
)

// ResponseFunc computes a response for X.
type ResponseFunc func(X mat.Matrix) (*mat.Dense, error)

// Fake is a configurable estimator. A nil response func hides the
// corresponding method from estimator.Supports.
type Fake struct {
	EstimatorName string
	EstimatorKind estimator.Kind
	Labels        []float64
	Unfitted      bool

	PredictFunc  ResponseFunc
	ProbaFunc    ResponseFunc
	DecisionFunc ResponseFunc

	// Delay is called before every response computation when set.
	Delay func()

	mu    sync.Mutex
	calls map[estimator.ResponseMethod]*atomic.Int64
}

var (
	_ estimator.Estimator               = (*Fake)(nil)
	_ estimator.Predictor               = (*Fake)(nil)
	_ estimator.ProbaPredictor          = (*Fake)(nil)
	_ estimator.DecisionScorer          = (*Fake)(nil)
	_ estimator.Classifier              = (*Fake)(nil)
	_ estimator.ResponseMethodSupporter = (*Fake)(nil)
)

func (f *Fake) Name() string {
	if f.EstimatorName == "" {
		return "Fake"
	}
	return f.EstimatorName
}

func (f *Fake) Kind() estimator.Kind { return f.EstimatorKind }
func (f *Fake) Fitted() bool         { return !f.Unfitted }
func (f *Fake) Classes() []float64   { return f.Labels }

func (f *Fake) SupportsResponseMethod(m estimator.ResponseMethod) bool {
	switch m {
	case estimator.MethodPredict:
		return f.PredictFunc != nil
	case estimator.MethodPredictProba:
		return f.ProbaFunc != nil
	case estimator.MethodDecisionFunction:
		return f.DecisionFunc != nil
	}
	return false
}

func (f *Fake) Predict(X mat.Matrix) (*mat.Dense, error) {
	return f.call(estimator.MethodPredict, f.PredictFunc, X)
}

func (f *Fake) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	return f.call(estimator.MethodPredictProba, f.ProbaFunc, X)
}

func (f *Fake) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	return f.call(estimator.MethodDecisionFunction, f.DecisionFunc, X)
}

// Calls returns how many times method m ran.
func (f *Fake) Calls(m estimator.ResponseMethod) int64 {
	return f.counter(m).Load()
}

// TotalCalls returns the number of response computations across methods.
func (f *Fake) TotalCalls() int64 {
	return f.Calls(estimator.MethodPredict) +
		f.Calls(estimator.MethodPredictProba) +
		f.Calls(estimator.MethodDecisionFunction)
}

func (f *Fake) call(m estimator.ResponseMethod, fn ResponseFunc, X mat.Matrix) (*mat.Dense, error) {
	f.counter(m).Add(1)
	if f.Delay != nil {
		f.Delay()
	}
	if fn == nil {
		return nil, estimator.ErrUnsupportedMethod
	}
	return fn(X)
}

func (f *Fake) counter(m estimator.ResponseMethod) *atomic.Int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[estimator.ResponseMethod]*atomic.Int64)
	}
	c, ok := f.calls[m]
	if !ok {
		c = new(atomic.Int64)
		f.calls[m] = c
	}
	return c
}

// Column returns a ResponseFunc that ignores X and returns values as a
// single column.
func Column(values ...float64) ResponseFunc {
	return func(mat.Matrix) (*mat.Dense, error) {
		if len(values) == 0 {
			return &mat.Dense{}, nil
		}
		return mat.NewDense(len(values), 1, append([]float64(nil), values...)), nil
	}
}

// Rows returns a ResponseFunc that ignores X and returns rows as a matrix.
func Rows(rows ...[]float64) ResponseFunc {
	return func(mat.Matrix) (*mat.Dense, error) {
		if len(rows) == 0 {
			return &mat.Dense{}, nil
		}
		out := mat.NewDense(len(rows), len(rows[0]), nil)
		for i, row := range rows {
			out.SetRow(i, row)
		}
		return out, nil
	}
}

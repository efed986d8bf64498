package estimator

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Sentinel errors for estimator operations.
var (
	ErrNotFitted          = errors.New("estimator: estimator is not fitted")
	ErrUnsupportedMethod  = errors.New("estimator: response method not supported")
	ErrUnknownLabel       = errors.New("estimator: label is not one of the estimator classes")
	ErrInconsistentLength = errors.New("estimator: inconsistent number of samples")
)

// Kind is the capability tag of an estimator.
type Kind int

const (
	KindUnknown Kind = iota
	KindClassifier
	KindRegressor
	KindClusterer
)

func (k Kind) String() string {
	switch k {
	case KindClassifier:
		return "classifier"
	case KindRegressor:
		return "regressor"
	case KindClusterer:
		return "clusterer"
	default:
		return "unknown"
	}
}

// Estimator is the minimal description of a model.
//
// Contract:
// - Concurrency: prediction methods must be safe for concurrent use once fitted.
// - Ownership: returned matrices are owned by the caller.
type Estimator interface {
	// Name returns the estimator type name, e.g. "LogisticRegression".
	Name() string

	// Kind returns the capability tag.
	Kind() Kind

	// Fitted reports whether the estimator can produce predictions.
	Fitted() bool
}

// Predictor produces hard predictions: class labels or regression values.
type Predictor interface {
	Predict(X mat.Matrix) (*mat.Dense, error)
}

// ProbaPredictor produces class probabilities, one column per class.
type ProbaPredictor interface {
	PredictProba(X mat.Matrix) (*mat.Dense, error)
}

// DecisionScorer produces confidence scores. Binary classifiers return a
// single column oriented towards the second class.
type DecisionScorer interface {
	DecisionFunction(X mat.Matrix) (*mat.Dense, error)
}

// Classifier exposes the sorted class labels seen during fitting.
type Classifier interface {
	Classes() []float64
}

// Fitter is an estimator that can be trained.
type Fitter interface {
	Estimator

	// Fit trains the estimator in place. y may be nil for clusterers.
	Fit(X, y mat.Matrix) error

	// Clone returns an unfitted copy carrying the same hyperparameters.
	Clone() Fitter
}

// Pipeline is implemented by composite estimators. Reports name a pipeline
// after its final step.
type Pipeline interface {
	Estimator
	Final() Estimator
}

// ResponseMethodSupporter lets an estimator hide a method it implements
// statically, e.g. a classifier configured without probability calibration.
type ResponseMethodSupporter interface {
	SupportsResponseMethod(m ResponseMethod) bool
}

// DisplayName returns the name of the estimator, unwrapping pipelines.
func DisplayName(est Estimator) string {
	for {
		p, ok := est.(Pipeline)
		if !ok {
			return est.Name()
		}
		est = p.Final()
	}
}

// Classes returns the class labels of a classifier, or nil.
func Classes(est Estimator) []float64 {
	if c, ok := est.(Classifier); ok {
		return c.Classes()
	}
	return nil
}

// IsEmpty reports whether m is nil, a typed nil, or has no rows.
func IsEmpty(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	switch v := m.(type) {
	case *mat.Dense:
		if v == nil || v.IsEmpty() {
			return true
		}
	case *mat.VecDense:
		if v == nil || v.IsEmpty() {
			return true
		}
	}
	r, _ := m.Dims()
	return r == 0
}

package report

import (
	"fmt"

	"github.com/jonwraymond/evalops/display"
	"github.com/jonwraymond/evalops/estimator"
	"github.com/jonwraymond/evalops/fingerprint"
	"github.com/jonwraymond/evalops/metrics"
	"gonum.org/v1/gonum/mat"
)

// DataSource selects the data an operation evaluates.
type DataSource string

const (
	// SourceTest uses the test data given at construction.
	SourceTest DataSource = "test"
	// SourceTrain uses the training data given at construction.
	SourceTrain DataSource = "train"
	// SourceXY uses data passed with WithXY.
	SourceXY DataSource = "X_y"
)

// DataSources lists the accepted data sources.
var DataSources = []DataSource{SourceTest, SourceTrain, SourceXY}

// CallOption configures one operation.
type CallOption func(*callOptions)

type callOptions struct {
	source    DataSource
	x, y      mat.Matrix
	params    metrics.Params
	name      string
	kind      display.PredictionErrorKind
	subsample *int
	seed      uint64
	aggregate []string
}

func collect(opts []CallOption) callOptions {
	o := callOptions{source: SourceTest, params: metrics.Params{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSource selects the data source. The default is SourceTest.
func WithSource(s DataSource) CallOption {
	return func(o *callOptions) {
		o.source = s
	}
}

// WithXY passes external data. It requires WithSource(SourceXY).
func WithXY(X, y mat.Matrix) CallOption {
	return func(o *callOptions) {
		o.x, o.y = X, y
	}
}

// WithAverage sets the averaging mode of precision, recall and ROC AUC.
// The default picks binary or weighted from the task.
func WithAverage(average string) CallOption {
	return WithParam(metrics.ParamAverage, average)
}

// WithPosLabel sets the positive class.
func WithPosLabel(label float64) CallOption {
	return WithParam(metrics.ParamPosLabel, label)
}

// WithMultiClass sets the multiclass strategy of ROC AUC.
func WithMultiClass(strategy string) CallOption {
	return WithParam(metrics.ParamMultiClass, strategy)
}

// WithMultiOutput sets the multi-output aggregation of regression metrics.
func WithMultiOutput(mode string) CallOption {
	return WithParam(metrics.ParamMultiOutput, mode)
}

// WithParam sets one keyword parameter. Custom metrics receive every
// parameter; report metrics forward the ones a metric declares.
func WithParam(name string, value any) CallOption {
	return func(o *callOptions) {
		o.params[name] = value
	}
}

// WithParams sets several keyword parameters.
func WithParams(p metrics.Params) CallOption {
	return func(o *callOptions) {
		for k, v := range p {
			o.params[k] = v
		}
	}
}

// WithName names the result column of a custom metric or the legend entry
// of a curve display.
func WithName(name string) CallOption {
	return func(o *callOptions) {
		o.name = name
	}
}

// WithKind selects the prediction error layout.
func WithKind(kind display.PredictionErrorKind) CallOption {
	return func(o *callOptions) {
		o.kind = kind
	}
}

// WithSubsample bounds the points of a prediction error display. Zero or
// negative keeps every point; the default is 1000.
func WithSubsample(n int) CallOption {
	return func(o *callOptions) {
		o.subsample = &n
	}
}

// WithSeed seeds subsampling.
func WithSeed(seed uint64) CallOption {
	return func(o *callOptions) {
		o.seed = seed
	}
}

// WithAggregate aggregates cross-validation scores across splits with
// "mean" and/or "std".
func WithAggregate(fns ...string) CallOption {
	return func(o *callOptions) {
		o.aggregate = fns
	}
}

// resolved is the data an operation runs on.
type resolved struct {
	source DataSource
	x, y   mat.Matrix
	// fingerprint identifies external data; empty for stored data.
	fingerprint string
}

// resolve maps the data source of o to arrays. Stored data sets are
// identified by the report identifier alone; external data is
// fingerprinted by content.
func (r *Report) resolve(st state, o callOptions) (resolved, error) {
	clusterer := r.est.Kind() == estimator.KindClusterer
	switch o.source {
	case SourceTest:
		if o.x != nil || o.y != nil {
			return resolved{}, configErr("data_source", "X and y must be nil when data_source is test.")
		}
		if estimator.IsEmpty(st.xTest) || (!clusterer && estimator.IsEmpty(st.yTest)) {
			missing := "X_test and y_test"
			if clusterer {
				missing = "X_test"
			}
			return resolved{}, configErr("X_test", "No test data (i.e. %s) were provided when creating the report. Please provide the test data.", missing)
		}
		return resolved{source: SourceTest, x: st.xTest, y: st.yTest}, nil
	case SourceTrain:
		if o.x != nil || o.y != nil {
			return resolved{}, configErr("data_source", "X and y must be nil when data_source is train.")
		}
		if estimator.IsEmpty(r.xTrain) || (!clusterer && estimator.IsEmpty(r.yTrain)) {
			missing := "X_train and y_train"
			if clusterer {
				missing = "X_train"
			}
			return resolved{}, configErr("X_train", "No training data (i.e. %s) were provided when creating the report. Please provide the training data.", missing)
		}
		return resolved{source: SourceTrain, x: r.xTrain, y: r.yTrain}, nil
	case SourceXY:
		if estimator.IsEmpty(o.x) || (!clusterer && estimator.IsEmpty(o.y)) {
			missing := "X and y"
			field := "X"
			if clusterer {
				missing = "X"
			} else if !estimator.IsEmpty(o.x) {
				field = "y"
			}
			return resolved{}, configErr(field, "%s must be provided.", missing)
		}
		fp, err := fingerprint.Of(o.x, o.y)
		if err != nil {
			return resolved{}, fmt.Errorf("report: fingerprinting external data: %w", err)
		}
		return resolved{source: SourceXY, x: o.x, y: o.y, fingerprint: fp}, nil
	}
	return resolved{}, configErr("data_source", "Invalid data source: %s. Possible values are: test, train, X_y.", o.source)
}

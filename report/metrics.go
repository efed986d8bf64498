package report

import (
	"context"
	"errors"
	"slices"
	"strconv"

	"github.com/jonwraymond/evalops/cache"
	"github.com/jonwraymond/evalops/estimator"
	"github.com/jonwraymond/evalops/frame"
	"github.com/jonwraymond/evalops/metrics"
)

// Second column level names of per-class and multi-output frames.
const (
	LevelClassLabel = "Class label"
	LevelOutput     = "Output"
)

// DefaultMetrics returns the metrics ReportMetrics computes for task t
// when none are requested. supportsProba adds log_loss to multiclass
// reports.
func DefaultMetrics(t estimator.Task, supportsProba bool) []string {
	switch t {
	case estimator.TaskBinaryClassification:
		return []string{"precision", "recall", "roc_auc", "brier_score"}
	case estimator.TaskMulticlassClassification:
		names := []string{"precision", "recall", "roc_auc"}
		if supportsProba {
			names = append(names, "log_loss")
		}
		return names
	case estimator.TaskRegression:
		return []string{"r2", "rmse"}
	}
	return nil
}

// namedInvocation applies the task defaults of builtin b to params and
// returns the invocation with the effective positive label, nil when the
// label does not reach the score function.
func (r *Report) namedInvocation(b metrics.Builtin, task estimator.Task, params metrics.Params) (metrics.Invocation, *float64, error) {
	p := params.Only(b.Params...)
	inv := metrics.Invocation{
		Label:           b.Label,
		Identity:        b.FuncName,
		Func:            b.Func,
		ResponseMethods: b.ResponseMethods,
		Params:          p,
	}

	switch b.Name {
	case "precision", "recall":
		average, err := p.Average("auto")
		if err != nil {
			return inv, nil, err
		}
		if average == "auto" {
			average = metrics.AverageWeighted
			if task == estimator.TaskBinaryClassification {
				average = metrics.AverageBinary
			}
		}
		p[metrics.ParamAverage] = average
		if average != metrics.AverageBinary {
			delete(p, metrics.ParamPosLabel)
			return inv, nil, nil
		}
	case "roc_auc":
		average, err := p.Average("auto")
		if err != nil {
			return inv, nil, err
		}
		if average == "auto" {
			average = metrics.AverageWeighted
			if task == estimator.TaskBinaryClassification {
				average = metrics.AverageMacro
			}
		}
		p[metrics.ParamAverage] = average
		strategy, err := p.String(metrics.ParamMultiClass, metrics.MultiClassOVR)
		if err != nil {
			return inv, nil, err
		}
		p[metrics.ParamMultiClass] = strategy
		return inv, nil, nil
	case "r2", "rmse":
		mode, err := p.String(metrics.ParamMultiOutput, metrics.MultiOutputUniform)
		if err != nil {
			return inv, nil, err
		}
		p[metrics.ParamMultiOutput] = mode
		return inv, nil, nil
	}

	if !b.PosLabel() {
		return inv, nil, nil
	}
	pos, ok, err := p.Float(metrics.ParamPosLabel)
	if err != nil {
		return inv, nil, err
	}
	if !ok {
		pos = r.posLabel
	}
	inv.PosLabel = true
	return inv, &pos, nil
}

// invocationPosLabel returns the positive label an invocation carries in its
// own parameters.
func invocationPosLabel(inv metrics.Invocation) (*float64, error) {
	if !inv.PosLabel {
		return nil, nil
	}
	pos, ok, err := inv.Params.Float(metrics.ParamPosLabel)
	if err != nil || !ok {
		return nil, err
	}
	return &pos, nil
}

// computeMetric is the single path every metric takes: resolve the data,
// fetch the response values, then memoize the score as a frame. The key
// holds the function identity, the data source, the fingerprint of external
// data and every effective parameter, pos_label included only when it
// reaches the score function.
func (r *Report) computeMetric(ctx context.Context, st state, op string, inv metrics.Invocation, posLabel *float64, o callOptions) (*frame.Frame, error) {
	data, err := r.resolve(st, o)
	if err != nil {
		return nil, err
	}

	params := inv.Params.Without(metrics.ParamPosLabel)
	if inv.PosLabel && posLabel != nil {
		params[metrics.ParamPosLabel] = *posLabel
	}
	keyParams := map[string]any(params.Clone())
	keyParams["metric_name"] = inv.Label

	spec := cache.KeySpec{
		Scope:       st.id,
		Operation:   inv.Identity,
		Source:      string(data.source),
		Fingerprint: data.fingerprint,
		Params:      keyParams,
	}
	meta := r.opMeta(st, groupMetrics, op, data.source)

	v, err := r.mw.Run(ctx, meta, func(ctx context.Context) (any, error) {
		yPred, err := r.responseValues(ctx, st, data, inv.ResponseMethods, posLabel)
		if err != nil {
			return nil, err
		}
		return r.memoize(ctx, st, meta, op, spec, func(context.Context) (any, error) {
			scores, err := inv.Func(data.y, yPred, params)
			if err != nil {
				return nil, err
			}
			return r.scoreFrame(st.task, inv.Label, scores)
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*frame.Frame), nil
}

// scoreFrame lays out scores: one flat column for a scalar, one column per
// class for classification and one per output otherwise.
func (r *Report) scoreFrame(task estimator.Task, label string, scores []float64) (*frame.Frame, error) {
	var f *frame.Frame
	switch {
	case len(scores) == 1:
		f = frame.Scalar(label, scores[0])
	case task.IsClassification():
		classes := estimator.Classes(r.est)
		labels := make([]string, len(classes))
		for i, c := range classes {
			labels[i] = strconv.FormatFloat(c, 'g', -1, 64)
		}
		var err error
		if f, err = frame.PerLabel(label, LevelClassLabel, labels, scores); err != nil {
			return nil, err
		}
	default:
		labels := make([]string, len(scores))
		for i := range scores {
			labels[i] = "#" + strconv.Itoa(i)
		}
		var err error
		if f, err = frame.PerLabel(label, LevelOutput, labels, scores); err != nil {
			return nil, err
		}
	}
	f.Index = []string{r.EstimatorName()}
	return f, nil
}

// builtin computes the named metric with the task defaults.
func (r *Report) builtin(ctx context.Context, name string, opts []CallOption) (*frame.Frame, error) {
	o := collect(opts)
	st := r.current()
	if err := r.require(name, st.task); err != nil {
		return nil, err
	}
	b, ok := metrics.Lookup(name)
	if !ok {
		return nil, &UnsupportedOperationError{Operation: name, Task: st.task, Reason: "unknown metric"}
	}
	inv, pos, err := r.namedInvocation(b, st.task, o.params)
	if err != nil {
		return nil, err
	}
	return r.computeMetric(ctx, st, name, inv, pos, o)
}

// Accuracy computes the accuracy score.
func (r *Report) Accuracy(ctx context.Context, opts ...CallOption) (*frame.Frame, error) {
	return r.builtin(ctx, "accuracy", opts)
}

// Precision computes the precision score. The average defaults to binary
// for binary tasks and weighted otherwise; pos_label only applies to the
// binary average.
func (r *Report) Precision(ctx context.Context, opts ...CallOption) (*frame.Frame, error) {
	return r.builtin(ctx, "precision", opts)
}

// Recall computes the recall score with the defaults of Precision.
func (r *Report) Recall(ctx context.Context, opts ...CallOption) (*frame.Frame, error) {
	return r.builtin(ctx, "recall", opts)
}

// BrierScore computes the Brier score of the positive class probability.
func (r *Report) BrierScore(ctx context.Context, opts ...CallOption) (*frame.Frame, error) {
	return r.builtin(ctx, "brier_score", opts)
}

// RocAUC computes the ROC AUC score. The average defaults to macro for
// binary tasks and weighted otherwise, with the one-vs-rest strategy.
func (r *Report) RocAUC(ctx context.Context, opts ...CallOption) (*frame.Frame, error) {
	return r.builtin(ctx, "roc_auc", opts)
}

// LogLoss computes the log loss.
func (r *Report) LogLoss(ctx context.Context, opts ...CallOption) (*frame.Frame, error) {
	return r.builtin(ctx, "log_loss", opts)
}

// R2 computes the coefficient of determination.
func (r *Report) R2(ctx context.Context, opts ...CallOption) (*frame.Frame, error) {
	return r.builtin(ctx, "r2", opts)
}

// RMSE computes the root mean squared error.
func (r *Report) RMSE(ctx context.Context, opts ...CallOption) (*frame.Frame, error) {
	return r.builtin(ctx, "rmse", opts)
}

// CustomMetric computes a user supplied score function. Every parameter set
// with WithParam or WithParams reaches m.Func and is part of the cache key.
// WithName overrides the column name.
func (r *Report) CustomMetric(ctx context.Context, m metrics.CustomMetric, opts ...CallOption) (*frame.Frame, error) {
	o := collect(opts)
	st := r.current()
	if err := r.require("custom_metric", st.task); err != nil {
		return nil, err
	}
	m.Params = append(slices.Clone(m.Params), o.params.Keys()...)
	inv, err := metrics.Callable(m).Resolve(o.params)
	if err != nil {
		return nil, err
	}
	if o.name != "" {
		inv.Label = o.name
	}
	pos, err := invocationPosLabel(inv)
	if err != nil {
		return nil, err
	}
	return r.computeMetric(ctx, st, inv.Identity, inv, pos, o)
}

// ReportMetrics computes several metrics and joins them column-wise.
//
// Without specs the task defaults are used. Parameters set on the call are
// shared: builtins take the ones they accept, callables the ones they
// declare, and scorers the declared ones they do not set themselves. The
// positive label (WithPosLabel, DefaultPosLabel otherwise) reaches every
// metric that accepts one. The first failing metric aborts the batch.
func (r *Report) ReportMetrics(ctx context.Context, specs []metrics.Spec, opts ...CallOption) (*frame.Frame, error) {
	o := collect(opts)
	st := r.current()
	if err := r.require("report_metrics", st.task); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		names := DefaultMetrics(st.task, estimator.Supports(r.est, estimator.MethodPredictProba))
		if len(names) == 0 {
			return nil, &UnsupportedOperationError{Operation: "report_metrics", Task: st.task, Reason: "no default metrics; pass metric specifications"}
		}
		specs = metrics.Names(names...)
	}

	shared := o.params.Clone()
	if _, ok := shared[metrics.ParamPosLabel]; !ok {
		shared[metrics.ParamPosLabel] = r.posLabel
	}

	meta := r.opMeta(st, "", "report_metrics", o.source)
	v, err := r.mw.Run(ctx, meta, func(ctx context.Context) (any, error) {
		frames := make([]*frame.Frame, 0, len(specs))
		for i, spec := range specs {
			f, err := r.dispatch(ctx, st, spec, shared, o)
			if err != nil {
				var invalid *metrics.InvalidSpecError
				if errors.As(err, &invalid) && invalid.Index < 0 {
					return nil, &metrics.InvalidSpecError{Index: i, Reason: invalid.Reason}
				}
				return nil, err
			}
			frames = append(frames, f)
		}
		level := LevelClassLabel
		if st.task == estimator.TaskRegression {
			level = LevelOutput
		}
		return frame.Concat(level, frames...)
	})
	if err != nil {
		return nil, err
	}
	return v.(*frame.Frame), nil
}

// dispatch resolves one spec of a batch and computes it.
func (r *Report) dispatch(ctx context.Context, st state, spec metrics.Spec, shared metrics.Params, o callOptions) (*frame.Frame, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	switch spec.Kind() {
	case metrics.SpecNamed:
		b, _ := metrics.Lookup(spec.BuiltinName())
		if err := r.require(b.Name, st.task); err != nil {
			return nil, err
		}
		inv, pos, err := r.namedInvocation(b, st.task, shared)
		if err != nil {
			return nil, err
		}
		return r.computeMetric(ctx, st, b.Name, inv, pos, o)
	case metrics.SpecCallable, metrics.SpecScorer:
		inv, err := spec.Resolve(shared)
		if err != nil {
			return nil, err
		}
		pos, err := invocationPosLabel(inv)
		if err != nil {
			return nil, err
		}
		return r.computeMetric(ctx, st, inv.Identity, inv, pos, o)
	}
	return nil, &metrics.InvalidSpecError{Index: -1, Reason: "expected a metric name, a callable or a scorer"}
}

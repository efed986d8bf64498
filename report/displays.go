package report

import (
	"context"

	"github.com/jonwraymond/evalops/cache"
	"github.com/jonwraymond/evalops/display"
	"github.com/jonwraymond/evalops/estimator"
	"github.com/jonwraymond/evalops/metrics"
	"gonum.org/v1/gonum/mat"
)

// DefaultSubsample is the number of points a prediction error display keeps
// by default.
const DefaultSubsample = 1000

// RocCurve computes the ROC curve once per data source, positive label and
// name, and renders it on every call. A repeated call returns the same
// display.
func (r *Report) RocCurve(ctx context.Context, opts ...CallOption) (*display.RocCurve, error) {
	d, err := r.curveDisplay(ctx, "roc", display.NameRocCurve, opts, func(data resolved, yScore *mat.Dense, meta display.Meta) (display.Display, error) {
		return display.RocCurveFromPredictions(data.y, yScore, estimator.Classes(r.est), meta)
	}, true)
	if err != nil {
		return nil, err
	}
	return d.(*display.RocCurve), nil
}

// PrecisionRecall computes the precision-recall curve with the caching rules
// of RocCurve.
func (r *Report) PrecisionRecall(ctx context.Context, opts ...CallOption) (*display.PrecisionRecallCurve, error) {
	d, err := r.curveDisplay(ctx, "precision_recall", display.NamePrecisionRecall, opts, func(data resolved, yScore *mat.Dense, meta display.Meta) (display.Display, error) {
		return display.PrecisionRecallFromPredictions(data.y, yScore, estimator.Classes(r.est), meta)
	}, false)
	if err != nil {
		return nil, err
	}
	return d.(*display.PrecisionRecallCurve), nil
}

func (r *Report) curveDisplay(ctx context.Context, op, displayName string, opts []CallOption, build func(resolved, *mat.Dense, display.Meta) (display.Display, error), chance bool) (display.Display, error) {
	o := collect(opts)
	st := r.current()
	if err := r.require(op, st.task); err != nil {
		return nil, err
	}
	data, err := r.resolve(st, o)
	if err != nil {
		return nil, err
	}
	var posLabel *float64
	if pos, ok, err := o.params.Float(metrics.ParamPosLabel); err != nil {
		return nil, err
	} else if ok {
		posLabel = &pos
	}
	name := o.name
	if name == "" {
		name = r.EstimatorName()
	}

	spec := cache.KeySpec{
		Scope:       st.id,
		Operation:   displayName,
		Source:      string(data.source),
		Fingerprint: data.fingerprint,
		Params: map[string]any{
			metrics.ParamPosLabel: posLabel,
			"name":                name,
		},
	}
	meta := r.opMeta(st, groupPlot, op, data.source)

	v, err := r.mw.Run(ctx, meta, func(ctx context.Context) (any, error) {
		yScore, err := r.responseValues(ctx, st, data, scoreMethods, posLabel)
		if err != nil {
			return nil, err
		}
		d, err := r.memoize(ctx, st, meta, displayName, spec, func(context.Context) (any, error) {
			return build(data, yScore, display.Meta{EstimatorName: name, DataSource: string(data.source), PosLabel: posLabel})
		})
		if err != nil {
			return nil, err
		}
		disp := d.(display.Display)
		if _, err := disp.Plot(display.RenderOptions{EstimatorName: name, ChanceLevel: chance}); err != nil {
			return nil, err
		}
		return disp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(display.Display), nil
}

// PredictionError computes the prediction error of a regression once per
// data source, kind and subsampling, and renders it on every call.
func (r *Report) PredictionError(ctx context.Context, opts ...CallOption) (*display.PredictionError, error) {
	o := collect(opts)
	st := r.current()
	if err := r.require("prediction_error", st.task); err != nil {
		return nil, err
	}
	if err := o.kind.Validate(); err != nil {
		return nil, configErr("kind", "%v", err)
	}
	kind := o.kind
	if kind == "" {
		kind = display.ResidualVsPredicted
	}
	subsample := DefaultSubsample
	if o.subsample != nil {
		subsample = *o.subsample
	}
	data, err := r.resolve(st, o)
	if err != nil {
		return nil, err
	}

	spec := cache.KeySpec{
		Scope:       st.id,
		Operation:   display.NamePredictionError,
		Source:      string(data.source),
		Fingerprint: data.fingerprint,
		Params: map[string]any{
			"kind":      string(kind),
			"subsample": subsample,
			"seed":      o.seed,
		},
	}
	meta := r.opMeta(st, groupPlot, "prediction_error", data.source)

	v, err := r.mw.Run(ctx, meta, func(ctx context.Context) (any, error) {
		yPred, err := r.responseValues(ctx, st, data, []estimator.ResponseMethod{estimator.MethodPredict}, nil)
		if err != nil {
			return nil, err
		}
		d, err := r.memoize(ctx, st, meta, display.NamePredictionError, spec, func(context.Context) (any, error) {
			return display.PredictionErrorFromPredictions(data.y, yPred,
				display.PredictionErrorOptions{Subsample: subsample, Seed: o.seed},
				display.Meta{EstimatorName: r.EstimatorName(), DataSource: string(data.source)})
		})
		if err != nil {
			return nil, err
		}
		disp := d.(*display.PredictionError)
		if _, err := disp.Plot(display.RenderOptions{EstimatorName: r.EstimatorName(), Kind: kind}); err != nil {
			return nil, err
		}
		return disp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*display.PredictionError), nil
}

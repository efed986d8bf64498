package report

import (
	"context"
	"fmt"

	"github.com/jonwraymond/evalops/cache"
	"github.com/jonwraymond/evalops/estimator"
	"github.com/jonwraymond/evalops/metrics"
	"gonum.org/v1/gonum/mat"
)

// Operation group names used in telemetry.
const (
	groupResponses = "responses"
	groupMetrics   = "metrics"
	groupPlot      = "plot"
)

// responseValues returns the output of the first candidate method the
// estimator implements on data, computing it at most once per report state.
// posLabel is part of the key only for probability and decision outputs.
func (r *Report) responseValues(ctx context.Context, st state, data resolved, candidates []estimator.ResponseMethod, posLabel *float64) (*mat.Dense, error) {
	method, err := estimator.ResolveMethod(r.est, candidates...)
	if err != nil {
		return nil, &UnsupportedOperationError{Operation: fmt.Sprint(candidates), Task: st.task, Reason: err.Error()}
	}

	params := map[string]any{}
	if method.UsesPosLabel() {
		// a binary output without a label is the second class
		if classes := estimator.Classes(r.est); posLabel == nil && len(classes) == 2 {
			posLabel = &classes[1]
		}
		params[metrics.ParamPosLabel] = posLabel
	}
	spec := cache.KeySpec{
		Scope:       st.id,
		Operation:   string(method),
		Source:      string(data.source),
		Fingerprint: data.fingerprint,
		Params:      params,
	}
	meta := r.opMeta(st, groupResponses, string(method), data.source)

	v, err := r.mw.Run(ctx, meta, func(ctx context.Context) (any, error) {
		return r.memoize(ctx, st, meta, string(method), spec, func(context.Context) (any, error) {
			return estimator.ResponseValues(r.est, data.x, method, posLabel)
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*mat.Dense), nil
}

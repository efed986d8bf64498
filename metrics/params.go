package metrics

import (
	"maps"
	"slices"
)

// Parameter names shared across score functions.
const (
	ParamAverage     = "average"
	ParamPosLabel    = "pos_label"
	ParamMultiClass  = "multi_class"
	ParamMultiOutput = "multioutput"
	ParamLabels      = "labels"
	ParamNormalize   = "normalize"
)

// Averaging modes.
const (
	AverageBinary   = "binary"
	AverageMicro    = "micro"
	AverageMacro    = "macro"
	AverageWeighted = "weighted"
	AverageSamples  = "samples"
	// AverageNone returns one score per class.
	AverageNone = "none"
)

// Multi-output aggregation modes.
const (
	MultiOutputUniform          = "uniform_average"
	MultiOutputRaw              = "raw_values"
	MultiOutputVarianceWeighted = "variance_weighted"
)

// Multiclass strategies for ROC AUC.
const (
	MultiClassOVR = "ovr"
	MultiClassOVO = "ovo"
)

// Params holds keyword parameters for a score function.
type Params map[string]any

// Clone returns a shallow copy; a nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Keys returns the parameter names in lexicographic order.
func (p Params) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Only returns the subset of p whose names appear in names.
func (p Params) Only(names ...string) Params {
	out := make(Params)
	for _, n := range names {
		if v, ok := p[n]; ok {
			out[n] = v
		}
	}
	return out
}

// Without returns p minus the given names.
func (p Params) Without(names ...string) Params {
	out := p.Clone()
	for _, n := range names {
		delete(out, n)
	}
	return out
}

// String returns a string parameter or def when unset.
func (p Params) String(name, def string) (string, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return def, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", invalidParam(name, v)
	}
	return s, nil
}

// Average returns the averaging mode. An explicit nil reads as AverageNone.
func (p Params) Average(def string) (string, error) {
	if v, ok := p[ParamAverage]; ok && v == nil {
		return AverageNone, nil
	}
	return p.String(ParamAverage, def)
}

// Float returns a numeric parameter.
func (p Params) Float(name string) (float64, bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch f := v.(type) {
	case float64:
		return f, true, nil
	case *float64:
		if f == nil {
			return 0, false, nil
		}
		return *f, true, nil
	case float32:
		return float64(f), true, nil
	case int:
		return float64(f), true, nil
	case int64:
		return float64(f), true, nil
	}
	return 0, false, invalidParam(name, v)
}

// Bool returns a boolean parameter or def when unset.
func (p Params) Bool(name string, def bool) (bool, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, invalidParam(name, v)
	}
	return b, nil
}

// Floats returns a []float64 parameter.
func (p Params) Floats(name string) ([]float64, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return nil, nil
	}
	f, isFloats := v.([]float64)
	if !isFloats {
		return nil, invalidParam(name, v)
	}
	return f, nil
}

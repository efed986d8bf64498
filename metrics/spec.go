package metrics

import (
	"fmt"
	"slices"

	"github.com/jonwraymond/evalops/estimator"
)

// SpecKind is the variant of a Spec.
type SpecKind int

const (
	SpecInvalid SpecKind = iota
	SpecNamed
	SpecCallable
	SpecScorer
)

func (k SpecKind) String() string {
	switch k {
	case SpecNamed:
		return "named"
	case SpecCallable:
		return "callable"
	case SpecScorer:
		return "scorer"
	default:
		return "invalid"
	}
}

// CustomMetric is a bare score function.
type CustomMetric struct {
	// Name is the column name. Defaults to FuncName.
	Name string
	// FuncName identifies Func in cache keys. Defaults to FuncIdentity(Func).
	FuncName string
	Func     Func
	// ResponseMethods are tried in order. Defaults to predict.
	ResponseMethods []estimator.ResponseMethod
	// Params lists the shared parameter names Func accepts.
	Params []string
}

// Scorer is a score function bound to a response method and keyword
// arguments.
type Scorer struct {
	Name            string
	FuncName        string
	Func            Func
	ResponseMethods []estimator.ResponseMethod
	// Kwargs are passed on every call and win over shared parameters.
	Kwargs Params
	// Params lists the shared parameter names Func accepts in addition to
	// Kwargs.
	Params []string
}

// MakeScorer binds f to a response method and keyword arguments.
func MakeScorer(name string, f Func, method estimator.ResponseMethod, kwargs Params) Scorer {
	return Scorer{
		Name:            name,
		Func:            f,
		ResponseMethods: []estimator.ResponseMethod{method},
		Kwargs:          kwargs.Clone(),
	}
}

// Spec is one metric of a batched request: a builtin name, a bare callable
// or a scorer. The zero value is invalid.
type Spec struct {
	kind   SpecKind
	name   string
	custom CustomMetric
	scorer Scorer
}

// Named selects a builtin metric by name.
func Named(name string) Spec {
	return Spec{kind: SpecNamed, name: name}
}

// Callable wraps a custom score function.
func Callable(m CustomMetric) Spec {
	return Spec{kind: SpecCallable, custom: m}
}

// FromScorer wraps a scorer.
func FromScorer(s Scorer) Spec {
	return Spec{kind: SpecScorer, scorer: s}
}

// Names converts builtin names to specs.
func Names(names ...string) []Spec {
	out := make([]Spec, len(names))
	for i, n := range names {
		out[i] = Named(n)
	}
	return out
}

func (s Spec) Kind() SpecKind { return s.kind }

// BuiltinName returns the requested name of a named spec.
func (s Spec) BuiltinName() string { return s.name }

// Custom returns the callable variant.
func (s Spec) Custom() (CustomMetric, bool) {
	return s.custom, s.kind == SpecCallable
}

// Scorer returns the scorer variant.
func (s Spec) Scorer() (Scorer, bool) {
	return s.scorer, s.kind == SpecScorer
}

// Validate checks that the variant carries what it needs.
func (s Spec) Validate() error {
	switch s.kind {
	case SpecNamed:
		if s.name == "" {
			return &InvalidSpecError{Index: -1, Reason: "empty metric name"}
		}
		if _, ok := Lookup(s.name); !ok {
			return &InvalidSpecError{Index: -1, Reason: fmt.Sprintf("unknown metric %q, expected one of %v", s.name, BuiltinNames())}
		}
	case SpecCallable:
		if s.custom.Func == nil {
			return &InvalidSpecError{Index: -1, Reason: "callable metric has no function"}
		}
		if err := validMethods(s.custom.ResponseMethods); err != nil {
			return err
		}
	case SpecScorer:
		if s.scorer.Func == nil {
			return &InvalidSpecError{Index: -1, Reason: "scorer has no function"}
		}
		if err := validMethods(s.scorer.ResponseMethods); err != nil {
			return err
		}
	default:
		return &InvalidSpecError{Index: -1, Reason: "expected a metric name, a callable or a scorer"}
	}
	return nil
}

func validMethods(methods []estimator.ResponseMethod) error {
	legal := []estimator.ResponseMethod{estimator.MethodPredict, estimator.MethodPredictProba, estimator.MethodDecisionFunction}
	for _, m := range methods {
		if !slices.Contains(legal, m) {
			return &InvalidSpecError{Index: -1, Reason: fmt.Sprintf("response method %q, expected one of %v", m, legal)}
		}
	}
	return nil
}

// Invocation is a spec resolved against shared parameters.
type Invocation struct {
	// Label is the column name.
	Label string
	// Identity names the function in cache keys.
	Identity        string
	Func            Func
	ResponseMethods []estimator.ResponseMethod
	Params          Params
	// PosLabel reports whether pos_label may reach Func.
	PosLabel bool
}

// Resolve turns a callable or scorer spec into an invocation. Callables
// receive the shared parameters they declare; scorers keep their kwargs and
// only gain declared shared parameters they do not already set. Named specs
// need task defaults and are resolved by the caller.
func (s Spec) Resolve(shared Params) (Invocation, error) {
	if err := s.Validate(); err != nil {
		return Invocation{}, err
	}
	switch s.kind {
	case SpecCallable:
		c := s.custom
		inv := Invocation{
			Identity:        c.FuncName,
			Func:            c.Func,
			ResponseMethods: c.ResponseMethods,
			Params:          shared.Only(c.Params...),
			PosLabel:        slices.Contains(c.Params, ParamPosLabel),
		}
		finishInvocation(&inv, c.Name)
		return inv, nil
	case SpecScorer:
		sc := s.scorer
		params := sc.Kwargs.Clone()
		for name, v := range shared.Only(sc.Params...) {
			if _, set := params[name]; !set {
				params[name] = v
			}
		}
		_, hasPos := params[ParamPosLabel]
		inv := Invocation{
			Identity:        sc.FuncName,
			Func:            sc.Func,
			ResponseMethods: sc.ResponseMethods,
			Params:          params,
			PosLabel:        hasPos || slices.Contains(sc.Params, ParamPosLabel),
		}
		finishInvocation(&inv, sc.Name)
		return inv, nil
	}
	return Invocation{}, &InvalidSpecError{Index: -1, Reason: fmt.Sprintf("%s specs are resolved with task defaults", s.kind)}
}

func finishInvocation(inv *Invocation, name string) {
	if inv.Identity == "" {
		inv.Identity = FuncIdentity(inv.Func)
	}
	inv.Label = name
	if inv.Label == "" {
		inv.Label = inv.Identity
	}
	if len(inv.ResponseMethods) == 0 {
		inv.ResponseMethods = predictOnly
	}
}

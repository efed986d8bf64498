package estimator

import (
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ResponseMethod names an estimator prediction method.
type ResponseMethod string

const (
	MethodPredict          ResponseMethod = "predict"
	MethodPredictProba     ResponseMethod = "predict_proba"
	MethodDecisionFunction ResponseMethod = "decision_function"
)

// UsesPosLabel reports whether the output of m depends on the positive label
// for binary problems. Hard predictions never do.
func (m ResponseMethod) UsesPosLabel() bool {
	return m == MethodPredictProba || m == MethodDecisionFunction
}

// Supports reports whether est can produce responses with method m.
func Supports(est Estimator, m ResponseMethod) bool {
	var ok bool
	switch m {
	case MethodPredict:
		_, ok = est.(Predictor)
	case MethodPredictProba:
		_, ok = est.(ProbaPredictor)
	case MethodDecisionFunction:
		_, ok = est.(DecisionScorer)
	}
	if !ok {
		return false
	}
	if s, isSupporter := est.(ResponseMethodSupporter); isSupporter {
		return s.SupportsResponseMethod(m)
	}
	return true
}

// ResolveMethod returns the first candidate supported by est.
func ResolveMethod(est Estimator, candidates ...ResponseMethod) (ResponseMethod, error) {
	for _, m := range candidates {
		if Supports(est, m) {
			return m, nil
		}
	}
	names := make([]string, len(candidates))
	for i, m := range candidates {
		names[i] = string(m)
	}
	return "", fmt.Errorf("%w: %s implements none of [%s]", ErrUnsupportedMethod, DisplayName(est), strings.Join(names, ", "))
}

// ResponseValues computes the raw output of est on X with method m.
//
// For binary classifiers the output is reduced to a single column oriented
// towards posLabel: the probability of posLabel for predict_proba and a
// decision score negated when posLabel is the first class. A nil posLabel
// selects the second class.
func ResponseValues(est Estimator, X mat.Matrix, m ResponseMethod, posLabel *float64) (*mat.Dense, error) {
	if !est.Fitted() {
		return nil, fmt.Errorf("%w: %s", ErrNotFitted, DisplayName(est))
	}
	if !Supports(est, m) {
		return nil, fmt.Errorf("%w: %s does not implement %s", ErrUnsupportedMethod, DisplayName(est), m)
	}

	switch m {
	case MethodPredict:
		return est.(Predictor).Predict(X)
	case MethodPredictProba:
		proba, err := est.(ProbaPredictor).PredictProba(X)
		if err != nil {
			return nil, err
		}
		classes := Classes(est)
		if len(classes) != 2 {
			return proba, nil
		}
		idx, err := posLabelIndex(classes, posLabel)
		if err != nil {
			return nil, err
		}
		return columnOf(proba, idx), nil
	case MethodDecisionFunction:
		scores, err := est.(DecisionScorer).DecisionFunction(X)
		if err != nil {
			return nil, err
		}
		classes := Classes(est)
		if len(classes) != 2 {
			return scores, nil
		}
		idx, err := posLabelIndex(classes, posLabel)
		if err != nil {
			return nil, err
		}
		if idx == 0 {
			var neg mat.Dense
			neg.Scale(-1, scores)
			return &neg, nil
		}
		return scores, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, m)
}

func posLabelIndex(classes []float64, posLabel *float64) (int, error) {
	if posLabel == nil {
		return 1, nil
	}
	idx := slices.Index(classes, *posLabel)
	if idx < 0 {
		return 0, fmt.Errorf("%w: pos_label=%v, classes are %v", ErrUnknownLabel, *posLabel, classes)
	}
	return idx, nil
}

func columnOf(m *mat.Dense, j int) *mat.Dense {
	r, _ := m.Dims()
	return mat.NewDense(r, 1, mat.Col(nil, j, m))
}

package estimator_test

import (
	"testing"

	"github.com/jonwraymond/evalops/estimator"
	"github.com/jonwraymond/evalops/estimator/estimatortest"
	"github.com/jonwraymond/evalops/estimator/linear"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func col(values ...float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

func TestResolveMethod_FirstSupportedCandidate(t *testing.T) {
	fake := &estimatortest.Fake{
		EstimatorKind: estimator.KindClassifier,
		DecisionFunc:  estimatortest.Column(0.1, -0.2),
		PredictFunc:   estimatortest.Column(1, 0),
	}

	m, err := estimator.ResolveMethod(fake, estimator.MethodPredictProba, estimator.MethodDecisionFunction)
	require.NoError(t, err)
	assert.Equal(t, estimator.MethodDecisionFunction, m)

	fake.ProbaFunc = estimatortest.Rows([]float64{0.4, 0.6})
	m, err = estimator.ResolveMethod(fake, estimator.MethodPredictProba, estimator.MethodDecisionFunction)
	require.NoError(t, err)
	assert.Equal(t, estimator.MethodPredictProba, m)
}

func TestResolveMethod_NoneSupported(t *testing.T) {
	fake := &estimatortest.Fake{EstimatorName: "Bare"}
	_, err := estimator.ResolveMethod(fake, estimator.MethodPredictProba)
	require.ErrorIs(t, err, estimator.ErrUnsupportedMethod)
	assert.Contains(t, err.Error(), "Bare")
	assert.Contains(t, err.Error(), "predict_proba")
}

func TestResponseValues_BinaryProbaSelectsPosLabel(t *testing.T) {
	fake := &estimatortest.Fake{
		EstimatorKind: estimator.KindClassifier,
		Labels:        []float64{0, 1},
		ProbaFunc:     estimatortest.Rows([]float64{0.3, 0.7}, []float64{0.9, 0.1}),
	}

	got, err := estimator.ResponseValues(fake, nil, estimator.MethodPredictProba, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.7, 0.1}, mat.Col(nil, 0, got))

	first := 0.0
	got, err = estimator.ResponseValues(fake, nil, estimator.MethodPredictProba, &first)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.9}, mat.Col(nil, 0, got))

	unknown := 7.0
	_, err = estimator.ResponseValues(fake, nil, estimator.MethodPredictProba, &unknown)
	require.ErrorIs(t, err, estimator.ErrUnknownLabel)
}

func TestResponseValues_BinaryDecisionNegatedForFirstClass(t *testing.T) {
	fake := &estimatortest.Fake{
		EstimatorKind: estimator.KindClassifier,
		Labels:        []float64{-1, 1},
		DecisionFunc:  estimatortest.Column(2, -3),
	}
	neg := -1.0
	got, err := estimator.ResponseValues(fake, nil, estimator.MethodDecisionFunction, &neg)
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, 3}, mat.Col(nil, 0, got))
}

func TestResponseValues_NotFitted(t *testing.T) {
	fake := &estimatortest.Fake{Unfitted: true, PredictFunc: estimatortest.Column(1)}
	_, err := estimator.ResponseValues(fake, nil, estimator.MethodPredict, nil)
	require.ErrorIs(t, err, estimator.ErrNotFitted)
	assert.Zero(t, fake.TotalCalls())
}

func TestTypeOfTarget(t *testing.T) {
	tests := []struct {
		name string
		y    mat.Matrix
		want estimator.TargetType
	}{
		{"binary", col(0, 1, 1, 0), estimator.TargetBinary},
		{"single label", col(3, 3), estimator.TargetBinary},
		{"multiclass", col(0, 1, 2), estimator.TargetMulticlass},
		{"continuous", col(0.5, 1, 2), estimator.TargetContinuous},
		{"continuous multioutput", mat.NewDense(2, 2, []float64{0.5, 1, 2, 3}), estimator.TargetContinuousMultioutput},
		{"multiclass multioutput", mat.NewDense(2, 2, []float64{0, 1, 2, 3}), estimator.TargetMulticlassMultioutput},
		{"nil", nil, estimator.TargetUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, estimator.TypeOfTarget(tt.y))
		})
	}
}

func TestFindTask(t *testing.T) {
	classifier := &estimatortest.Fake{EstimatorKind: estimator.KindClassifier}
	regressor := &estimatortest.Fake{EstimatorKind: estimator.KindRegressor}
	clusterer := &estimatortest.Fake{EstimatorKind: estimator.KindClusterer}

	var typedNil *mat.Dense
	assert.Equal(t, estimator.TaskClustering, estimator.FindTask(clusterer, nil))
	assert.Equal(t, estimator.TaskClustering, estimator.FindTask(clusterer, typedNil))
	assert.Equal(t, estimator.TaskBinaryClassification, estimator.FindTask(classifier, col(0, 1)))
	assert.Equal(t, estimator.TaskMulticlassClassification, estimator.FindTask(classifier, col(0, 1, 2)))
	assert.Equal(t, estimator.TaskUnknown, estimator.FindTask(classifier, col(0.5, 1)))
	assert.Equal(t, estimator.TaskRegression, estimator.FindTask(regressor, col(0, 1)))
	assert.Equal(t, estimator.TaskRegression, estimator.FindTask(clusterer, col(0.5, 1)))

	// the fitted classes win over a test set that only shows two labels
	classifier.Labels = []float64{0, 1, 2}
	assert.Equal(t, estimator.TaskMulticlassClassification, estimator.FindTask(classifier, col(0, 1)))

	// without a target the estimator decides
	assert.Equal(t, estimator.TaskMulticlassClassification, estimator.FindTask(classifier, nil))
	classifier.Labels = []float64{0, 1}
	assert.Equal(t, estimator.TaskBinaryClassification, estimator.FindTask(classifier, nil))
	classifier.Labels = nil
	assert.Equal(t, estimator.TaskUnknown, estimator.FindTask(classifier, nil))
	assert.Equal(t, estimator.TaskRegression, estimator.FindTask(regressor, nil))
	assert.Equal(t, estimator.TaskUnknown, estimator.FindTask(nil, nil))
}

func TestDisplayName_UnwrapsPipeline(t *testing.T) {
	p := linear.NewPipeline(linear.NewLogisticRegression())
	assert.Equal(t, "Pipeline", p.Name())
	assert.Equal(t, "LogisticRegression", estimator.DisplayName(p))
}

func TestUniqueLabels(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 2}, estimator.UniqueLabels(col(2, 0), col(1, 2)))
	assert.Empty(t, estimator.UniqueLabels(nil))
}

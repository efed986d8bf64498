package report

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/jonwraymond/evalops/cache"
	"github.com/jonwraymond/evalops/config"
	"github.com/jonwraymond/evalops/estimator"
	"github.com/jonwraymond/evalops/estimator/estimatortest"
	"github.com/jonwraymond/evalops/estimator/linear"
	"github.com/jonwraymond/evalops/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var binaryProba = []float64{0.1, 0.2, 0.6, 0.3, 0.8, 0.9, 0.4, 0.7}

func binaryFake() *estimatortest.Fake {
	rows := make([][]float64, len(binaryProba))
	for i, p := range binaryProba {
		rows[i] = []float64{1 - p, p}
	}
	return &estimatortest.Fake{
		EstimatorKind: estimator.KindClassifier,
		Labels:        []float64{0, 1},
		PredictFunc:   estimatortest.Column(0, 0, 1, 0, 1, 1, 0, 1),
		ProbaFunc:     estimatortest.Rows(rows...),
	}
}

func binaryTest() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func multiclassFake() (*estimatortest.Fake, *mat.Dense, *mat.Dense) {
	fake := &estimatortest.Fake{
		EstimatorKind: estimator.KindClassifier,
		Labels:        []float64{0, 1, 2},
		PredictFunc:   estimatortest.Column(0, 1, 2, 0, 1, 2),
		ProbaFunc: estimatortest.Rows(
			[]float64{0.7, 0.2, 0.1},
			[]float64{0.2, 0.6, 0.2},
			[]float64{0.1, 0.2, 0.7},
			[]float64{0.5, 0.3, 0.2},
			[]float64{0.3, 0.4, 0.3},
			[]float64{0.2, 0.3, 0.5},
		),
	}
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{0, 1, 2, 0, 1, 2})
	return fake, X, y
}

func regressionFake() (*estimatortest.Fake, *mat.Dense, *mat.Dense) {
	fake := &estimatortest.Fake{
		EstimatorName: "Ridge",
		EstimatorKind: estimator.KindRegressor,
		PredictFunc:   estimatortest.Column(1.4, 2.6, 3.3, 4.8),
	}
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{1.5, 2.5, 3.5, 4.5})
	return fake, X, y
}

func newBinaryReport(t *testing.T, opts ...Option) (*Report, *estimatortest.Fake) {
	t.Helper()
	fake := binaryFake()
	X, y := binaryTest()
	r, err := New(fake, append([]Option{WithTest(X, y)}, opts...)...)
	require.NoError(t, err)
	return r, fake
}

// blobs draws two Gaussian clusters with alternating labels.
func blobs(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		center := -1.5
		if label == 1 {
			center = 1.5
		}
		X.Set(i, 0, center+rng.NormFloat64())
		X.Set(i, 1, rng.NormFloat64())
		y.Set(i, 0, label)
	}
	return X, y
}

func TestNew_Task(t *testing.T) {
	r, _ := newBinaryReport(t)
	assert.Equal(t, estimator.TaskBinaryClassification, r.Task())
	assert.Equal(t, "Fake", r.EstimatorName())
	assert.NotEmpty(t, r.ID())
	assert.Zero(t, r.CacheLen())

	fake, X, y := multiclassFake()
	mc, err := New(fake, WithTest(X, y))
	require.NoError(t, err)
	assert.Equal(t, estimator.TaskMulticlassClassification, mc.Task())

	reg, X, y := regressionFake()
	rr, err := New(reg, WithTest(X, y))
	require.NoError(t, err)
	assert.Equal(t, estimator.TaskRegression, rr.Task())
}

func TestNew_RandomIdentifiers(t *testing.T) {
	a, _ := newBinaryReport(t)
	b, _ := newBinaryReport(t)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestNew_NilEstimator(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNew_FitModes(t *testing.T) {
	Xtr, ytr := blobs(60, 1)
	Xte, yte := blobs(20, 2)

	t.Run("auto fits a clone", func(t *testing.T) {
		est := linear.NewLogisticRegression()
		r, err := New(est, WithTrain(Xtr, ytr), WithTest(Xte, yte))
		require.NoError(t, err)
		assert.True(t, r.Estimator().Fitted())
		assert.False(t, est.Fitted())
	})

	t.Run("auto keeps a fitted estimator", func(t *testing.T) {
		est := linear.NewLogisticRegression()
		require.NoError(t, est.Fit(Xtr, ytr))
		r, err := New(est, WithTest(Xte, yte))
		require.NoError(t, err)
		assert.Same(t, est, r.Estimator())
	})

	t.Run("always refits", func(t *testing.T) {
		est := linear.NewLogisticRegression()
		require.NoError(t, est.Fit(Xtr, ytr))
		r, err := New(est, WithFit(FitAlways), WithTrain(Xtr, ytr), WithTest(Xte, yte))
		require.NoError(t, err)
		assert.NotSame(t, est, r.Estimator())
	})

	t.Run("missing training data", func(t *testing.T) {
		_, err := New(linear.NewLogisticRegression(), WithTest(Xte, yte))
		require.ErrorIs(t, err, ErrConfiguration)
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "X_train", ce.Field)
		assert.Contains(t, err.Error(), "Please provide both X_train and y_train.")
	})

	t.Run("never keeps an unfitted estimator", func(t *testing.T) {
		r, err := New(linear.NewLogisticRegression(), WithFit(FitNever), WithTest(Xte, yte))
		require.NoError(t, err)
		_, err = r.Accuracy(context.Background())
		assert.ErrorIs(t, err, estimator.ErrNotFitted)
	})

	t.Run("not a fitter", func(t *testing.T) {
		fake := binaryFake()
		fake.Unfitted = true
		_, err := New(fake, WithTrain(Xtr, ytr))
		require.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "cannot be fitted")
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, err := New(binaryFake(), WithFit("sometimes"))
		require.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "auto, always, never")
	})
}

func TestReport_Immutability(t *testing.T) {
	r, _ := newBinaryReport(t)
	X, y := binaryTest()

	for field, err := range map[string]error{
		"estimator": r.SetEstimator(binaryFake()),
		"X_train":   r.SetXTrain(X),
		"y_train":   r.SetYTrain(y),
	} {
		t.Run(field, func(t *testing.T) {
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrImmutable)
			assert.ErrorIs(t, err, ErrConfiguration)
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, field, ce.Field)
			assert.True(t, ce.Immutable)
			assert.Contains(t, err.Error(), "The "+field+" attribute is immutable.")
		})
	}
	assert.Nil(t, r.XTrain())
	assert.Nil(t, r.YTrain())
}

func TestReport_ReplacingTestDataResetsState(t *testing.T) {
	ctx := context.Background()
	r, fake := newBinaryReport(t)
	X, y := binaryTest()

	_, err := r.Accuracy(ctx)
	require.NoError(t, err)
	_, err = r.BrierScore(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, r.CacheLen())
	id := r.ID()

	r.SetXTest(mat.DenseCopyOf(X))
	assert.Zero(t, r.CacheLen())
	assert.NotEqual(t, id, r.ID())

	_, err = r.Accuracy(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fake.Calls(estimator.MethodPredict))

	id = r.ID()
	multiclass := mat.NewDense(8, 1, []float64{0, 1, 2, 0, 1, 2, 0, 1})
	r.SetYTest(multiclass)
	assert.Zero(t, r.CacheLen())
	assert.NotEqual(t, id, r.ID())
	assert.Equal(t, estimator.TaskMulticlassClassification, r.Task())
	assert.Same(t, multiclass, r.YTest())

	r.SetYTest(y)
	assert.Equal(t, estimator.TaskBinaryClassification, r.Task())
}

func TestReport_ClearCache(t *testing.T) {
	ctx := context.Background()
	r, fake := newBinaryReport(t)

	first, err := r.Accuracy(ctx)
	require.NoError(t, err)
	id, task := r.ID(), r.Task()

	r.ClearCache()
	assert.Zero(t, r.CacheLen())
	assert.Equal(t, id, r.ID())
	assert.Equal(t, task, r.Task())

	second, err := r.Accuracy(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Values, second.Values)
	assert.EqualValues(t, 2, fake.Calls(estimator.MethodPredict))
}

func TestReport_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	r, fake := newBinaryReport(t)
	X, y := binaryTest()

	f, err := r.Accuracy(ctx)
	require.NoError(t, err)
	snap := r.Snapshot()
	assert.Equal(t, r.ID(), snap.ID)
	assert.Len(t, snap.Entries, 2)

	restored, err := Restore(fake, snap, WithTest(X, y))
	require.NoError(t, err)
	assert.Equal(t, snap.ID, restored.ID())
	assert.Equal(t, 2, restored.CacheLen())

	again, err := restored.Accuracy(ctx)
	require.NoError(t, err)
	assert.Same(t, f, again)
	assert.EqualValues(t, 1, fake.TotalCalls())

	_, err = Restore(fake, Snapshot{})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestReport_SnapshotSharesValues(t *testing.T) {
	ctx := context.Background()
	r, _ := newBinaryReport(t)

	f, err := r.Accuracy(ctx)
	require.NoError(t, err)
	snap := r.Snapshot()

	shared := 0
	for _, v := range snap.Entries {
		if got, ok := v.(*frame.Frame); ok && got == f {
			shared++
		}
	}
	assert.Equal(t, 1, shared, "snapshot holds the cached frame itself")

	clear(snap.Entries)
	assert.Equal(t, 2, r.CacheLen(), "the map is a copy")
}

func TestReport_WithConfig(t *testing.T) {
	ctx := context.Background()
	pos := 0.0
	off := false
	r, fake := newBinaryReport(t, WithConfig(config.ReportConfig{
		CacheEnabled:    &off,
		DefaultPosLabel: &pos,
	}))

	_, err := r.Accuracy(ctx)
	require.NoError(t, err)
	_, err = r.Accuracy(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fake.Calls(estimator.MethodPredict))
	assert.Zero(t, r.CacheLen())

	// predicted 0 at rows 0, 1, 3 and 6; rows 0, 1 and 3 are 0
	f, err := r.Precision(ctx)
	require.NoError(t, err)
	v, err := f.Value("Precision", "")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, v, 1e-12)
}

func TestReport_WithConfigGuard(t *testing.T) {
	ctx := context.Background()
	r, fake := newBinaryReport(t, WithConfig(config.ReportConfig{
		ComputeLimit: 1,
	}))
	_, err := r.ReportMetrics(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, fake.Calls(estimator.MethodPredict))
	assert.EqualValues(t, 1, fake.Calls(estimator.MethodPredictProba))
}

func TestReport_WithConfigKeepsCaching(t *testing.T) {
	ctx := context.Background()
	r, fake := newBinaryReport(t, WithConfig(config.ReportConfig{ComputeLimit: 2}))

	first, err := r.Accuracy(ctx)
	require.NoError(t, err)
	second, err := r.Accuracy(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.EqualValues(t, 1, fake.Calls(estimator.MethodPredict))
	assert.Equal(t, 2, r.CacheLen())
}

func TestReport_WithConfigKeepsEarlierPolicy(t *testing.T) {
	ctx := context.Background()
	r, fake := newBinaryReport(t,
		WithPolicy(cache.Policy{Enabled: true, SkipOperations: []string{"predict"}}),
		WithConfig(config.ReportConfig{FitMode: "never"}),
	)
	for range 2 {
		_, err := r.Accuracy(ctx)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, fake.Calls(estimator.MethodPredict), "predict stays uncached")
	assert.Equal(t, 1, r.CacheLen())
}

func TestConfigurationError_Unwrap(t *testing.T) {
	err := configErr("data_source", "bad %s", "value")
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, errors.Is(err, ErrImmutable))
	assert.Equal(t, "report: bad value", err.Error())

	u := &UnsupportedOperationError{Operation: "r2", Task: estimator.TaskBinaryClassification, Reason: "r2 supports regression tasks"}
	assert.ErrorIs(t, u, ErrUnsupported)
	assert.Equal(t, "report: r2 is not available for a binary-classification report: r2 supports regression tasks", u.Error())
}

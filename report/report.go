// Package report evaluates a fitted estimator on stored or external data.
//
// A Report caches every response value, metric score and display it
// computes. Keys are scoped by a random identifier that is regenerated,
// together with an empty cache, whenever the test data is replaced. The
// estimator and the training data are fixed for the lifetime of a report.
//
// All methods are safe for concurrent use. Concurrent requests for the same
// key share one computation.
package report

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonwraymond/evalops/cache"
	"github.com/jonwraymond/evalops/config"
	"github.com/jonwraymond/evalops/estimator"
	"github.com/jonwraymond/evalops/observe"
	"gonum.org/v1/gonum/mat"
)

// FitMode controls whether New fits the estimator.
type FitMode string

const (
	// FitAuto fits a clone of the estimator only when it is not fitted.
	FitAuto FitMode = "auto"
	// FitAlways fits a clone of the estimator on the training data.
	FitAlways FitMode = "always"
	// FitNever uses the estimator as given.
	FitNever FitMode = "never"
)

// DefaultPosLabel is the positive class used when none is given.
const DefaultPosLabel = 1.0

// Option configures a Report.
type Option func(*options)

type options struct {
	xTrain, yTrain mat.Matrix
	xTest, yTest   mat.Matrix
	fit            FitMode
	policy         cache.Policy
	guard          cache.Guard
	metrics        cache.Metrics
	middleware     *observe.Middleware
	observer       observe.Observer
	posLabel       float64
}

func defaultOptions() options {
	return options{
		fit:      FitAuto,
		policy:   cache.DefaultPolicy(),
		metrics:  cache.NoopMetrics{},
		posLabel: DefaultPosLabel,
	}
}

// WithTrain sets the training data. y may be nil for clusterers.
func WithTrain(X, y mat.Matrix) Option {
	return func(o *options) {
		o.xTrain, o.yTrain = X, y
	}
}

// WithTest sets the test data.
func WithTest(X, y mat.Matrix) Option {
	return func(o *options) {
		o.xTest, o.yTest = X, y
	}
}

// WithFit sets the fit mode. The default is FitAuto.
func WithFit(mode FitMode) Option {
	return func(o *options) {
		o.fit = mode
	}
}

// WithPolicy sets the cache policy.
func WithPolicy(p cache.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithGuard runs every cached computation through g.
func WithGuard(g cache.Guard) Option {
	return func(o *options) {
		o.guard = g
	}
}

// WithCacheMetrics reports cache hits, misses and size to m.
func WithCacheMetrics(m cache.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithMiddleware wraps every operation with mw.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *options) {
		o.middleware = mw
	}
}

// WithObserver traces, measures and logs every operation through obs, and
// reports cache activity on its meter. Explicit WithMiddleware and
// WithCacheMetrics options take precedence.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// instrument fills the middleware and cache metrics from the observer.
func (o *options) instrument() error {
	if o.observer == nil {
		return nil
	}
	if o.middleware == nil {
		mw, err := observe.MiddlewareFromObserver(o.observer)
		if err != nil {
			return fmt.Errorf("report: observer: %w", err)
		}
		o.middleware = mw
	}
	if _, noop := o.metrics.(cache.NoopMetrics); noop {
		m, err := observe.NewCacheMetrics(o.observer.Meter())
		if err != nil {
			return fmt.Errorf("report: observer: %w", err)
		}
		o.metrics = m
	}
	return nil
}

// WithConfig applies the report section of a configuration file. Only the
// fields set in cfg override earlier options.
func WithConfig(cfg config.ReportConfig) Option {
	return func(o *options) {
		o.policy = cfg.ApplyPolicy(o.policy)
		if g := cfg.Guard(); g != nil {
			o.guard = g
		}
		if cfg.FitMode != "" {
			o.fit = FitMode(cfg.FitMode)
		}
		if cfg.DefaultPosLabel != nil {
			o.posLabel = *cfg.DefaultPosLabel
		}
	}
}

// Report evaluates one estimator.
type Report struct {
	est      estimator.Estimator
	xTrain   mat.Matrix
	yTrain   mat.Matrix
	keyer    cache.Keyer
	policy   cache.Policy
	guard    cache.Guard
	metrics  cache.Metrics
	mw       *observe.Middleware
	posLabel float64

	mu    sync.RWMutex
	xTest mat.Matrix
	yTest mat.Matrix
	id    string
	task  estimator.Task
	store *cache.MemoryCache
	memo  *cache.Memo
}

// state is a consistent view of the mutable part of a report. Operations
// work on the state they started with, so a computation that finishes after
// a reset stores into the discarded cache.
type state struct {
	id    string
	task  estimator.Task
	xTest mat.Matrix
	yTest mat.Matrix
	memo  *cache.Memo
}

// New creates a report for est.
//
// With FitAuto an unfitted estimator is cloned and fitted on the training
// data; FitAlways does so even when est is fitted. The training data is
// then required.
func New(est estimator.Estimator, opts ...Option) (*Report, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if est == nil {
		return nil, configErr("estimator", "An estimator is required to create a report.")
	}
	if err := o.instrument(); err != nil {
		return nil, err
	}

	fitted := est
	switch o.fit {
	case FitAuto:
		if !est.Fitted() {
			f, err := fitEstimator(est, o.xTrain, o.yTrain)
			if err != nil {
				return nil, err
			}
			fitted = f
		}
	case FitAlways:
		f, err := fitEstimator(est, o.xTrain, o.yTrain)
		if err != nil {
			return nil, err
		}
		fitted = f
	case FitNever:
	default:
		return nil, configErr("fit", "Invalid fit mode: %s. Possible values are: %s, %s, %s.", o.fit, FitAuto, FitAlways, FitNever)
	}

	mw := o.middleware
	if mw == nil {
		mw = observe.NopMiddleware()
	}
	r := &Report{
		est:      fitted,
		xTrain:   o.xTrain,
		yTrain:   o.yTrain,
		keyer:    cache.NewDefaultKeyer(),
		policy:   o.policy,
		guard:    o.guard,
		metrics:  o.metrics,
		mw:       mw,
		posLabel: o.posLabel,
		xTest:    o.xTest,
		yTest:    o.yTest,
	}
	r.initializeState()
	return r, nil
}

func fitEstimator(est estimator.Estimator, X, y mat.Matrix) (estimator.Estimator, error) {
	f, ok := est.(estimator.Fitter)
	if !ok {
		return nil, configErr("estimator", "%s is not fitted and cannot be fitted. Pass a fitted estimator or use fit mode %s.", estimator.DisplayName(est), FitNever)
	}
	if estimator.IsEmpty(X) || (estimator.IsEmpty(y) && est.Kind() != estimator.KindClusterer) {
		return nil, configErr("X_train", "The training data is required to fit the estimator. Please provide both X_train and y_train.")
	}
	clone := f.Clone()
	if err := clone.Fit(X, y); err != nil {
		return nil, fmt.Errorf("report: fitting %s: %w", estimator.DisplayName(est), err)
	}
	return clone, nil
}

// initializeState regenerates the identifier, discards the cache and
// recomputes the task. Callers hold mu or own r exclusively.
func (r *Report) initializeState() {
	r.id = uuid.NewString()
	r.resetStore(cache.NewMemoryCache())
	r.task = estimator.FindTask(r.est, r.yTest)
}

func (r *Report) resetStore(store *cache.MemoryCache) {
	r.store = store
	opts := []cache.MemoOption{cache.WithMetrics(r.metrics)}
	if r.guard != nil {
		opts = append(opts, cache.WithGuard(r.guard))
	}
	r.memo = cache.NewMemo(store, r.policy, opts...)
	r.metrics.Size(store.Len())
}

func (r *Report) current() state {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return state{id: r.id, task: r.task, xTest: r.xTest, yTest: r.yTest, memo: r.memo}
}

// ID returns the identifier that scopes the cache keys of the current
// state.
func (r *Report) ID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.id
}

// Task returns the task derived from the estimator and y_test.
func (r *Report) Task() estimator.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.task
}

// Estimator returns the fitted estimator.
func (r *Report) Estimator() estimator.Estimator { return r.est }

// EstimatorName returns the estimator name, or the name of the final step
// of a pipeline.
func (r *Report) EstimatorName() string { return estimator.DisplayName(r.est) }

func (r *Report) XTrain() mat.Matrix { return r.xTrain }
func (r *Report) YTrain() mat.Matrix { return r.yTrain }

func (r *Report) XTest() mat.Matrix {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.xTest
}

func (r *Report) YTest() mat.Matrix {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.yTest
}

// SetXTest replaces the test features and resets the report state.
func (r *Report) SetXTest(X mat.Matrix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.xTest = X
	r.initializeState()
}

// SetYTest replaces the test target and resets the report state.
func (r *Report) SetYTest(y mat.Matrix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.yTest = y
	r.initializeState()
}

// SetEstimator always fails: the estimator is fixed at construction.
func (r *Report) SetEstimator(estimator.Estimator) error {
	return immutableErr("estimator", "Please use New to create a new report.")
}

// SetXTrain always fails: the training data is fixed at construction.
func (r *Report) SetXTrain(mat.Matrix) error {
	return immutableErr("X_train", "Please use New with WithTrain to create a new report.")
}

// SetYTrain always fails: the training data is fixed at construction.
func (r *Report) SetYTrain(mat.Matrix) error {
	return immutableErr("y_train", "Please use New with WithTrain to create a new report.")
}

// ClearCache empties the cache. The identifier and the task are kept.
func (r *Report) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetStore(cache.NewMemoryCache())
}

// CacheLen returns the number of cached entries.
func (r *Report) CacheLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Len()
}

// CacheKeys returns the cached keys in lexicographic order.
func (r *Report) CacheKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Keys()
}

// Snapshot is the in-process state of a report: its identifier and the
// cache entries keyed by cache key. Entries hold the live cached values and
// are not meant to be encoded.
type Snapshot struct {
	ID      string
	Task    estimator.Task
	Entries map[string]any
}

// Snapshot returns the identifier and a copy of the cache map. Cached
// values are shared with the report.
func (r *Report) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{ID: r.id, Task: r.task, Entries: r.store.Snapshot()}
}

// Restore rebuilds a report from a snapshot taken on a report over the same
// estimator and data. The identifier and the cache are kept, so entries
// computed before the snapshot are hits.
func Restore(est estimator.Estimator, snap Snapshot, opts ...Option) (*Report, error) {
	if snap.ID == "" {
		return nil, configErr("snapshot", "The snapshot has no identifier.")
	}
	r, err := New(est, append(slices.Clone(opts), WithFit(FitNever))...)
	if err != nil {
		return nil, err
	}
	r.id = snap.ID
	r.resetStore(cache.NewMemoryCacheFrom(snap.Entries))
	return r, nil
}

func (r *Report) opMeta(st state, group, name string, source DataSource) observe.OpMeta {
	return observe.OpMeta{
		Report: st.id,
		Group:  group,
		Name:   name,
		Task:   string(st.task),
		Source: string(source),
	}
}

// memoize runs compute through the memo of st and logs the cache outcome.
func (r *Report) memoize(ctx context.Context, st state, meta observe.OpMeta, op string, spec cache.KeySpec, compute cache.ComputeFunc) (any, error) {
	key, err := r.keyer.Key(spec)
	if err != nil {
		return nil, err
	}
	v, hit, err := st.memo.Do(ctx, op, key, compute)
	if err != nil {
		return nil, err
	}
	logger := r.mw.Logger().WithOperation(meta)
	if hit {
		logger.Debug(ctx, "cache hit", observe.Field{Key: "key", Value: key})
	} else {
		logger.Debug(ctx, "cache miss", observe.Field{Key: "key", Value: key})
	}
	return v, nil
}

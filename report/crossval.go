package report

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonwraymond/evalops/cache"
	"github.com/jonwraymond/evalops/estimator"
	"github.com/jonwraymond/evalops/frame"
	"github.com/jonwraymond/evalops/metrics"
	"github.com/jonwraymond/evalops/observe"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Aggregation functions accepted by WithAggregate.
const (
	AggregateMean = "mean"
	AggregateStd  = "std"
)

// DefaultFolds is the number of cross-validation splits.
const DefaultFolds = 5

// CVOption configures a CrossValidationReport.
type CVOption func(*cvOptions)

type cvOptions struct {
	folds       int
	shuffle     bool
	seed        uint64
	concurrency int
	report      []Option
}

// WithFolds sets the number of splits.
func WithFolds(k int) CVOption {
	return func(o *cvOptions) {
		o.folds = k
	}
}

// WithShuffle shuffles samples with seed before splitting.
func WithShuffle(seed uint64) CVOption {
	return func(o *cvOptions) {
		o.shuffle = true
		o.seed = seed
	}
}

// WithConcurrency bounds how many splits are fitted at once. Zero or
// negative means no bound.
func WithConcurrency(n int) CVOption {
	return func(o *cvOptions) {
		o.concurrency = n
	}
}

// WithReportOptions applies opts to the report of every split and to the
// cache of the cross-validation report.
func WithReportOptions(opts ...Option) CVOption {
	return func(o *cvOptions) {
		o.report = append(o.report, opts...)
	}
}

// CrossValidationReport evaluates an estimator fitted on k splits of the
// data, with one Report per split.
type CrossValidationReport struct {
	est     estimator.Fitter
	reports []*Report
	keyer   cache.Keyer
	mw      *observe.Middleware
	opts    options

	mu    sync.RWMutex
	id    string
	store *cache.MemoryCache
	memo  *cache.Memo
}

// NewCrossValidation splits (X, y) into k folds and fits a clone of est on
// each training part, concurrently. Fold sizes differ by at most one.
func NewCrossValidation(ctx context.Context, est estimator.Fitter, X, y mat.Matrix, opts ...CVOption) (*CrossValidationReport, error) {
	o := cvOptions{folds: DefaultFolds}
	for _, opt := range opts {
		opt(&o)
	}
	if est == nil {
		return nil, configErr("estimator", "An estimator is required to create a report.")
	}
	if estimator.IsEmpty(X) {
		return nil, configErr("X", "X must be provided.")
	}
	n, _ := X.Dims()
	if !estimator.IsEmpty(y) {
		if ny, _ := y.Dims(); ny != n {
			return nil, configErr("y", "X has %d samples but y has %d.", n, ny)
		}
	}
	if o.folds < 2 || o.folds > n {
		return nil, configErr("folds", "The number of folds must be between 2 and the number of samples (%d), got %d.", n, o.folds)
	}

	ro := defaultOptions()
	for _, opt := range o.report {
		opt(&ro)
	}
	if err := ro.instrument(); err != nil {
		return nil, err
	}

	splits := kFold(n, o.folds, o.shuffle, o.seed)
	reports := make([]*Report, len(splits))
	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	for i, s := range splits {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			splitOpts := append(slices.Clone(o.report),
				WithTrain(takeRows(X, s.train), takeRows(y, s.train)),
				WithTest(takeRows(X, s.test), takeRows(y, s.test)),
				WithFit(FitAlways),
			)
			rep, err := New(est, splitOpts...)
			if err != nil {
				return fmt.Errorf("split #%d: %w", i, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mw := ro.middleware
	if mw == nil {
		mw = observe.NopMiddleware()
	}
	cv := &CrossValidationReport{
		est:     est,
		reports: reports,
		keyer:   cache.NewDefaultKeyer(),
		mw:      mw,
		opts:    ro,
	}
	cv.initializeState()
	return cv, nil
}

type split struct {
	train, test []int
}

// kFold partitions 0..n-1 into k contiguous test folds, the first n%k of
// them one sample larger.
func kFold(n, k int, shuffle bool, seed uint64) []split {
	idx := make([]int, n)
	if shuffle {
		sampleuv.WithoutReplacement(idx, n, rand.NewPCG(seed, seed))
	} else {
		for i := range idx {
			idx[i] = i
		}
	}
	splits := make([]split, k)
	start := 0
	for f := range k {
		size := n / k
		if f < n%k {
			size++
		}
		test := slices.Clone(idx[start : start+size])
		train := append(slices.Clone(idx[:start]), idx[start+size:]...)
		slices.Sort(test)
		slices.Sort(train)
		splits[f] = split{train: train, test: test}
		start += size
	}
	return splits
}

// takeRows copies the given rows of m. An empty m yields a nil matrix.
func takeRows(m mat.Matrix, rows []int) mat.Matrix {
	if estimator.IsEmpty(m) {
		return nil
	}
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(r, j))
		}
	}
	return out
}

func (cv *CrossValidationReport) initializeState() {
	cv.id = uuid.NewString()
	cv.resetStore()
}

// resetStore installs an empty aggregate cache. The guard is left to the
// split reports, which run inside the aggregate computation.
func (cv *CrossValidationReport) resetStore() {
	cv.store = cache.NewMemoryCache()
	cv.memo = cache.NewMemo(cv.store, cv.opts.policy, cache.WithMetrics(cv.opts.metrics))
}

// ID returns the identifier scoping the aggregate cache keys.
func (cv *CrossValidationReport) ID() string {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.id
}

// EstimatorReports returns the report of every split in split order.
func (cv *CrossValidationReport) EstimatorReports() []*Report {
	return slices.Clone(cv.reports)
}

// splitIDs returns the current identifier of every split report. Changing
// the data of a split through EstimatorReports changes its identifier and
// so the aggregate keys.
func (cv *CrossValidationReport) splitIDs() []any {
	ids := make([]any, len(cv.reports))
	for i, r := range cv.reports {
		ids[i] = r.ID()
	}
	return ids
}

// EstimatorName returns the name of the evaluated estimator.
func (cv *CrossValidationReport) EstimatorName() string {
	return estimator.DisplayName(cv.est)
}

// Task returns the task of the first split.
func (cv *CrossValidationReport) Task() estimator.Task {
	return cv.reports[0].Task()
}

// ClearCache empties the aggregate cache and the cache of every split.
func (cv *CrossValidationReport) ClearCache() {
	cv.mu.Lock()
	cv.resetStore()
	cv.mu.Unlock()
	for _, r := range cv.reports {
		r.ClearCache()
	}
}

// CacheLen returns the number of aggregate entries.
func (cv *CrossValidationReport) CacheLen() int {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.store.Len()
}

// ReportMetrics computes ReportMetrics on every split and stacks the rows,
// one per split. WithAggregate replaces the rows by the mean and/or the
// sample standard deviation across splits. Only the test and train sources
// are accepted.
func (cv *CrossValidationReport) ReportMetrics(ctx context.Context, specs []metrics.Spec, opts ...CallOption) (*frame.Frame, error) {
	o := collect(opts)
	if o.source != SourceTest && o.source != SourceTrain {
		return nil, configErr("data_source", "Invalid data source: %s. Possible values are: test, train.", o.source)
	}
	for _, fn := range o.aggregate {
		if fn != AggregateMean && fn != AggregateStd {
			return nil, configErr("aggregate", "Invalid aggregate: %s. Possible values are: %s, %s.", fn, AggregateMean, AggregateStd)
		}
	}

	cv.mu.RLock()
	id, memo := cv.id, cv.memo
	cv.mu.RUnlock()

	params := map[string]any(o.params.Clone())
	params["metrics"] = specIdentities(specs)
	var aggregate any
	if len(o.aggregate) > 0 {
		aggregate = slices.Clone(o.aggregate)
	}
	params["aggregate"] = aggregate
	params["splits"] = cv.splitIDs()
	key, err := cv.keyer.Key(cache.KeySpec{
		Scope:     id,
		Operation: "report_metrics",
		Source:    string(o.source),
		Params:    params,
	})
	if err != nil {
		return nil, err
	}

	meta := observe.OpMeta{Report: id, Group: "cross_validation", Name: "report_metrics", Source: string(o.source)}
	v, err := cv.mw.Run(ctx, meta, func(ctx context.Context) (any, error) {
		v, hit, err := memo.Do(ctx, "report_metrics", key, func(ctx context.Context) (any, error) {
			return cv.computeReportMetrics(ctx, specs, opts, o.aggregate)
		})
		if err != nil {
			return nil, err
		}
		msg := "cache miss"
		if hit {
			msg = "cache hit"
		}
		cv.mw.Logger().WithOperation(meta).Debug(ctx, msg, observe.Field{Key: "key", Value: key})
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*frame.Frame), nil
}

func (cv *CrossValidationReport) computeReportMetrics(ctx context.Context, specs []metrics.Spec, opts []CallOption, aggregate []string) (*frame.Frame, error) {
	frames := make([]*frame.Frame, len(cv.reports))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range cv.reports {
		g.Go(func() error {
			f, err := r.ReportMetrics(gctx, specs, opts...)
			if err != nil {
				return fmt.Errorf("split #%d: %w", i, err)
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make([]string, len(frames))
	for i := range frames {
		index[i] = fmt.Sprintf("Split #%d", i)
	}
	stacked, err := frame.ConcatRows("Split", index, frames...)
	if err != nil {
		return nil, err
	}
	if len(aggregate) == 0 {
		return stacked, nil
	}
	return aggregateRows(stacked, cv.EstimatorName(), aggregate), nil
}

// aggregateRows reduces every column of f across rows.
func aggregateRows(f *frame.Frame, indexName string, fns []string) *frame.Frame {
	out := &frame.Frame{
		IndexName:  indexName,
		Columns:    slices.Clone(f.Columns),
		MultiLevel: f.MultiLevel,
		LevelNames: slices.Clone(f.LevelNames),
	}
	column := make([]float64, len(f.Values))
	for _, fn := range fns {
		row := make([]float64, len(f.Columns))
		for j := range f.Columns {
			for i := range f.Values {
				column[i] = f.Values[i][j]
			}
			switch fn {
			case AggregateMean:
				row[j] = stat.Mean(column, nil)
			case AggregateStd:
				row[j] = stat.StdDev(column, nil)
			}
		}
		out.Index = append(out.Index, fn)
		out.Values = append(out.Values, row)
	}
	return out
}

// specIdentities describes specs for cache keys: builtin names, function
// identities and scorer kwargs.
func specIdentities(specs []metrics.Spec) []any {
	out := make([]any, len(specs))
	for i, s := range specs {
		switch s.Kind() {
		case metrics.SpecNamed:
			out[i] = s.BuiltinName()
		case metrics.SpecCallable:
			c, _ := s.Custom()
			id := c.FuncName
			if id == "" {
				id = metrics.FuncIdentity(c.Func)
			}
			out[i] = map[string]any{"callable": id, "name": c.Name}
		case metrics.SpecScorer:
			sc, _ := s.Scorer()
			id := sc.FuncName
			if id == "" {
				id = metrics.FuncIdentity(sc.Func)
			}
			out[i] = map[string]any{"scorer": id, "name": sc.Name, "kwargs": map[string]any(sc.Kwargs.Clone())}
		default:
			out[i] = nil
		}
	}
	return out
}

package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/evalops/cache"
)

// Metrics records execution metrics for report operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOperation records one operation with its duration and error status.
	RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates operation metrics on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"report.op.total",
		metric.WithDescription("Total number of report operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"report.op.errors",
		metric.WithDescription("Total number of failed report operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"report.op.duration_ms",
		metric.WithDescription("Report operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordOperation records metrics for a report operation. The report
// identifier is left out of the attributes to bound cardinality.
func (m *metricsImpl) RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(context.Context, OpMeta, time.Duration, error) {}

// cacheMetrics implements cache.Metrics with otel instruments.
type cacheMetrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
	size   metric.Int64Gauge
}

// NewCacheMetrics creates memoization metrics on meter.
func NewCacheMetrics(meter metric.Meter) (cache.Metrics, error) {
	hits, err := meter.Int64Counter(
		"report.cache.hits",
		metric.WithDescription("Report cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"report.cache.misses",
		metric.WithDescription("Report cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	size, err := meter.Int64Gauge(
		"report.cache.size",
		metric.WithDescription("Number of cached report results"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &cacheMetrics{hits: hits, misses: misses, size: size}, nil
}

func (m *cacheMetrics) Hit(op string) {
	m.hits.Add(context.Background(), 1, metric.WithAttributes(opAttr(op)))
}

func (m *cacheMetrics) Miss(op string) {
	m.misses.Add(context.Background(), 1, metric.WithAttributes(opAttr(op)))
}

func (m *cacheMetrics) Size(n int) {
	m.size.Record(context.Background(), int64(n))
}

func opAttr(op string) attribute.KeyValue {
	return attribute.String("report.op", op)
}

// Package exporters builds the OpenTelemetry span exporters and metric
// readers that an observe.Observer can ship report telemetry through.
package exporters

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Options carries the sinks an exporter may write to.
type Options struct {
	// Writer receives stdout output; nil means os.Stdout.
	Writer io.Writer
	// Registerer receives prometheus collectors; nil means the default registry.
	Registerer promclient.Registerer
}

func (o Options) out() io.Writer {
	if o.Writer != nil {
		return o.Writer
	}
	return os.Stdout
}

type (
	spanFactory   func(context.Context, Options) (sdktrace.SpanExporter, error)
	readerFactory func(context.Context, Options) (sdkmetric.Reader, error)
)

// "none" and "" still get a real exporter writing to io.Discard so the
// providers behave the same whether or not anything is shipped.
var spanExporters = map[string]spanFactory{
	"":     discardSpans,
	"none": discardSpans,
	"stdout": func(_ context.Context, o Options) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithWriter(o.out()))
	},
	"otlp": func(ctx context.Context, _ Options) (sdktrace.SpanExporter, error) {
		if err := requireEnv("OTLP traces", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	},
	// Jaeger ingests OTLP directly.
	"jaeger": func(ctx context.Context, _ Options) (sdktrace.SpanExporter, error) {
		if err := requireEnv("jaeger", "OTEL_EXPORTER_JAEGER_ENDPOINT"); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	},
}

var metricReaders = map[string]readerFactory{
	"":     discardMetrics,
	"none": discardMetrics,
	"stdout": func(_ context.Context, o Options) (sdkmetric.Reader, error) {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(o.out()))
		if err != nil {
			return nil, fmt.Errorf("stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	},
	"otlp": func(ctx context.Context, _ Options) (sdkmetric.Reader, error) {
		if err := requireEnv("OTLP metrics", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); err != nil {
			return nil, err
		}
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	},
	"prometheus": func(_ context.Context, o Options) (sdkmetric.Reader, error) {
		var opts []prometheus.Option
		if o.Registerer != nil {
			opts = append(opts, prometheus.WithRegisterer(o.Registerer))
		}
		exp, err := prometheus.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		return exp, nil
	},
}

func discardSpans(context.Context, Options) (sdktrace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
}

func discardMetrics(context.Context, Options) (sdkmetric.Reader, error) {
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}

// TracingNames lists the accepted tracing exporter names, "" included.
func TracingNames() []string { return sortedKeys(spanExporters) }

// MetricsNames lists the accepted metrics exporter names, "" included.
func MetricsNames() []string { return sortedKeys(metricReaders) }

// NewTracingExporter builds the span exporter registered under name.
func NewTracingExporter(ctx context.Context, name string, opts Options) (sdktrace.SpanExporter, error) {
	build, ok := spanExporters[name]
	if !ok {
		return nil, fmt.Errorf("unknown tracing exporter %q, expected one of %s", name, strings.Join(TracingNames()[1:], ", "))
	}
	return build(ctx, opts)
}

// NewMetricsReader builds the metric reader registered under name.
func NewMetricsReader(ctx context.Context, name string, opts Options) (sdkmetric.Reader, error) {
	build, ok := metricReaders[name]
	if !ok {
		return nil, fmt.Errorf("unknown metrics exporter %q, expected one of %s", name, strings.Join(MetricsNames()[1:], ", "))
	}
	return build(ctx, opts)
}

func requireEnv(what string, keys ...string) error {
	for _, k := range keys {
		if os.Getenv(k) != "" {
			return nil
		}
	}
	return fmt.Errorf("%s endpoint not configured: set %s", what, strings.Join(keys, " or "))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

package exporters

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestExporter_InvalidName(t *testing.T) {
	if _, err := NewTracingExporter(context.Background(), "invalid", Options{}); err == nil ||
		!strings.Contains(err.Error(), "unknown tracing exporter") {
		t.Fatalf("expected unknown exporter error, got %v", err)
	}
	if _, err := NewMetricsReader(context.Background(), "invalid", Options{}); err == nil ||
		!strings.Contains(err.Error(), "unknown metrics exporter") {
		t.Fatalf("expected unknown metrics exporter error, got %v", err)
	}
}

func TestExporter_StdoutTracingWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	exp, err := NewTracingExporter(context.Background(), "stdout", Options{Writer: &buf})
	if err != nil {
		t.Fatalf("failed to create stdout tracing exporter: %v", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	_, span := tp.Tracer("test").Start(context.Background(), "report.metrics.accuracy")
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if !strings.Contains(buf.String(), "report.metrics.accuracy") {
		t.Errorf("expected span in output, got %q", buf.String())
	}
}

func TestExporter_StdoutMetrics(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "stdout", Options{Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("failed to create stdout metrics reader: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

func TestExporter_OtlpMissingEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	if _, err := NewTracingExporter(context.Background(), "otlp", Options{}); err == nil ||
		!strings.Contains(err.Error(), "endpoint") {
		t.Errorf("expected endpoint error, got %v", err)
	}
	if _, err := NewMetricsReader(context.Background(), "otlp", Options{}); err == nil ||
		!strings.Contains(err.Error(), "endpoint") {
		t.Errorf("expected endpoint error, got %v", err)
	}
}

func TestExporter_OtlpWithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")

	exp, err := NewTracingExporter(context.Background(), "otlp", Options{})
	if err != nil {
		t.Fatalf("failed to create OTLP exporter: %v", err)
	}
	_ = exp.Shutdown(context.Background())
}

func TestExporter_JaegerMissingEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")
	if _, err := NewTracingExporter(context.Background(), "jaeger", Options{}); err == nil {
		t.Fatal("expected error when jaeger endpoint not configured")
	}
}

func TestExporter_PrometheusUsesRegisterer(t *testing.T) {
	reg := promclient.NewRegistry()
	reader, err := NewMetricsReader(context.Background(), "prometheus", Options{Registerer: reg})
	if err != nil {
		t.Fatalf("failed to create prometheus reader: %v", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	counter, err := mp.Meter("test").Int64Counter("report.op.total")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "report_op_total") {
			found = true
		}
	}
	if !found {
		t.Error("expected report_op_total in the supplied registry")
	}
}

func TestExporter_None(t *testing.T) {
	if exp, err := NewTracingExporter(context.Background(), "none", Options{}); err != nil || exp == nil {
		t.Errorf("none tracing exporter: %v, %v", exp, err)
	}
	if r, err := NewMetricsReader(context.Background(), "", Options{}); err != nil || r == nil {
		t.Errorf("empty metrics exporter: %v, %v", r, err)
	}
}

func TestExporter_Names(t *testing.T) {
	want := []string{"", "jaeger", "none", "otlp", "stdout"}
	if got := TracingNames(); !slices.Equal(got, want) {
		t.Errorf("TracingNames() = %v, want %v", got, want)
	}
	want = []string{"", "none", "otlp", "prometheus", "stdout"}
	if got := MetricsNames(); !slices.Equal(got, want) {
		t.Errorf("MetricsNames() = %v, want %v", got, want)
	}

	_, err := NewMetricsReader(context.Background(), "statsd", Options{})
	if err == nil || !strings.Contains(err.Error(), "none, otlp, prometheus, stdout") {
		t.Errorf("error should list the accepted names, got %v", err)
	}
}

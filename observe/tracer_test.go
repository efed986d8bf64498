package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOpMeta_SpanName(t *testing.T) {
	tests := []struct {
		name string
		meta OpMeta
		want string
	}{
		{name: "with group", meta: OpMeta{Group: "metrics", Name: "precision"}, want: "report.metrics.precision"},
		{name: "without group", meta: OpMeta{Name: "predict"}, want: "report.predict"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.meta.SpanName(); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestOpMeta_Validate(t *testing.T) {
	if err := (OpMeta{}).Validate(); !errors.Is(err, ErrMissingOperationName) {
		t.Errorf("expected %v, got %v", ErrMissingOperationName, err)
	}
	if err := (OpMeta{Name: "r2"}).Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewTracer(tp.Tracer("test"))

	meta := OpMeta{Report: "id-1", Group: "displays", Name: "roc_curve", Task: "binary-classification", Source: "X_y"}
	_, span := tracer.StartSpan(context.Background(), meta)
	tracer.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "report.displays.roc_curve" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}
	attrs := spanAttrs(spans[0])
	want := map[attribute.Key]string{
		"report.op":          "displays.roc_curve",
		"report.op.name":     "roc_curve",
		"report.op.group":    "displays",
		"report.task":        "binary-classification",
		"report.data_source": "X_y",
		"report.id":          "id-1",
	}
	for k, v := range want {
		if attrs[k].AsString() != v {
			t.Errorf("attribute %s = %q, want %q", k, attrs[k].AsString(), v)
		}
	}
	if attrs["report.op.error"].AsBool() {
		t.Error("report.op.error should be false")
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", spans[0].Status().Code)
	}
}

func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewTracer(tp.Tracer("test"))

	_, span := tracer.StartSpan(context.Background(), OpMeta{Name: "log_loss"})
	tracer.EndSpan(span, errors.New("single class"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "single class" {
		t.Errorf("unexpected status %+v", s.Status())
	}
	if !spanAttrs(s)["report.op.error"].AsBool() {
		t.Error("report.op.error should be true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected an exception event")
	}
}

func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewTracer(tp.Tracer("test"))

	ctx, parent := tracer.StartSpan(context.Background(), OpMeta{Name: "report_metrics"})
	_, child := tracer.StartSpan(ctx, OpMeta{Group: "metrics", Name: "r2"})
	tracer.EndSpan(child, nil)
	tracer.EndSpan(parent, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("child span should be parented to the report_metrics span")
	}
}

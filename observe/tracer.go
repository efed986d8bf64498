package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// OpMeta describes one report operation for telemetry purposes.
type OpMeta struct {
	Report string // report identifier (optional)
	Group  string // metrics, displays or responses (optional)
	Name   string // operation name, e.g. roc_auc or predict_proba (required)
	Task   string // task classification of the report (optional)
	Source string // data source: test, train or X_y (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: report.<group>.<name> or report.<name>
func (m OpMeta) SpanName() string {
	return "report." + m.OpID()
}

// OpID returns the qualified operation identifier.
func (m OpMeta) OpID() string {
	if m.Group != "" {
		return m.Group + "." + m.Name
	}
	return m.Name
}

// Validate reports whether the metadata names an operation.
func (m OpMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingOperationName
	}
	return nil
}

func (m OpMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("report.op", m.OpID()),
		attribute.String("report.op.name", m.Name),
	}
	if m.Group != "" {
		attrs = append(attrs, attribute.String("report.op.group", m.Group))
	}
	if m.Task != "" {
		attrs = append(attrs, attribute.String("report.task", m.Task))
	}
	if m.Source != "" {
		attrs = append(attrs, attribute.String("report.data_source", m.Source))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with per-operation spans.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a report operation.
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span carrying the operation metadata. The report
// identifier is attached as an attribute, never as part of the span name.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("report.op.error", false))
	if meta.Report != "" {
		attrs = append(attrs, attribute.String("report.id", meta.Report))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("report.op.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}

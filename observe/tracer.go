package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Op identifies one traced operation, such as a checksum scan or a
// memoized command execution.
type Op struct {
	Scope string // subsystem, e.g. "checksum" or "cache"
	Name  string // operation, e.g. "scan"
}

// SpanName returns the deterministic span name for this operation.
// Format: toolcache.<scope>.<name>
func (o Op) SpanName() string {
	return "toolcache." + o.Scope + "." + o.Name
}

// Tracer wraps OpenTelemetry tracing with operation span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndOp must be best-effort and must not panic.
type Tracer interface {
	// StartOp starts a span for the operation.
	StartOp(ctx context.Context, op Op) (context.Context, trace.Span)

	// EndOp ends the span, recording any error.
	EndOp(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartOp(ctx context.Context, op Op) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, op.SpanName(),
		trace.WithAttributes(
			attribute.String("op.scope", op.Scope),
			attribute.String("op.name", op.Name),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndOp(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type nopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a Tracer that produces no-op spans.
func NopTracer() Tracer {
	return &nopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *nopTracer) StartOp(ctx context.Context, op Op) (context.Context, trace.Span) {
	return t.noop.Start(ctx, op.SpanName())
}

func (t *nopTracer) EndOp(span trace.Span, err error) {
	span.End()
}

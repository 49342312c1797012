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

// TestOp_SpanName verifies the deterministic span naming scheme.
func TestOp_SpanName(t *testing.T) {
	tests := []struct {
		op       Op
		expected string
	}{
		{Op{Scope: "checksum", Name: "scan"}, "toolcache.checksum.scan"},
		{Op{Scope: "cache", Name: "execute"}, "toolcache.cache.execute"},
	}
	for _, tc := range tests {
		if got := tc.op.SpanName(); got != tc.expected {
			t.Errorf("SpanName() = %q, want %q", got, tc.expected)
		}
	}
}

// TestTracer_SpanAttributes verifies scope and name attributes land on
// the span.
func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	tr := NewTracer(tp.Tracer("test"))
	_, span := tr.StartOp(context.Background(), Op{Scope: "checksum", Name: "scan"})
	tr.EndOp(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	if s.Name() != "toolcache.checksum.scan" {
		t.Errorf("expected span name 'toolcache.checksum.scan', got %q", s.Name())
	}

	attrMap := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		attrMap[string(a.Key)] = a.Value
	}
	if v, ok := attrMap["op.scope"]; !ok || v.AsString() != "checksum" {
		t.Errorf("expected op.scope='checksum', got %v", v)
	}
	if v, ok := attrMap["op.name"]; !ok || v.AsString() != "scan" {
		t.Errorf("expected op.name='scan', got %v", v)
	}

	if s.Status().Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", s.Status().Code)
	}
}

// TestTracer_EndOpRecordsError verifies error status and event.
func TestTracer_EndOpRecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	tr := NewTracer(tp.Tracer("test"))
	_, span := tr.StartOp(context.Background(), Op{Scope: "checksum", Name: "scan"})
	tr.EndOp(span, errors.New("disk on fire"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected Error status, got %v", s.Status().Code)
	}
	if s.Status().Description != "disk on fire" {
		t.Errorf("expected status description 'disk on fire', got %q", s.Status().Description)
	}

	var foundException bool
	for _, ev := range s.Events() {
		if ev.Name == "exception" {
			foundException = true
		}
	}
	if !foundException {
		t.Error("expected exception event from RecordError")
	}
}

// TestTracer_ContextPropagation verifies parent spans carry through.
func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := NewTracer(tracer)
	parentCtx, parentSpan := tracer.Start(context.Background(), "parent")

	_, childSpan := tr.StartOp(parentCtx, Op{Scope: "cache", Name: "execute"})
	tr.EndOp(childSpan, nil)
	parentSpan.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	child := spans[0]
	if child.Parent().SpanID() != parentSpan.SpanContext().SpanID() {
		t.Error("child span not parented to the enclosing span")
	}
}

// TestNopTracer verifies the no-op tracer is safe to use.
func TestNopTracer(t *testing.T) {
	tr := NopTracer()
	ctx, span := tr.StartOp(context.Background(), Op{Scope: "checksum", Name: "scan"})
	if ctx == nil {
		t.Fatal("StartOp returned nil context")
	}
	tr.EndOp(span, errors.New("ignored"))
}

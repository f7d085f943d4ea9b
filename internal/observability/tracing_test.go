package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracingNoEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, cfg := range []*TracingConfig{nil, {ServiceName: "test"}} {
		tp, err := InitTracing(ctx, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tp.Tracer() == nil {
			t.Fatal("expected non-nil tracer")
		}
		if err := tp.Shutdown(ctx); err != nil {
			t.Fatalf("shutdown error: %v", err)
		}
	}
}

func TestStageSpansAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	defer otel.SetTracerProvider(previous)

	ctx, span := StartStageSpan(context.Background(), "embedding", 3)
	RecordError(span, errors.New("model missing"))
	span.End()

	_, summary := StartSummarySpan(ctx, "alice.pdf")
	RecordError(summary, nil)
	summary.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "match.embedding" {
		t.Fatalf("unexpected span name %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", spans[0].Status().Code)
	}
	if spans[1].Status().Code == codes.Error {
		t.Fatalf("expected summary span without error")
	}
	if spans[1].Parent().SpanID() != spans[0].SpanContext().SpanID() {
		t.Fatalf("expected summary span to be a child of the stage span")
	}
}

package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wyfcoding/mcpricer/config"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(config.TracingConfig{Enabled: false, ServiceName: "mcpricer"})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown returned %v", err)
	}
}

func TestSpanHelpers(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartSpan(context.Background(), "mc.simulate")
	AddTag(ctx, "mc.paths", 1000)
	SetError(ctx, errors.New("boom"))
	if GetTraceID(ctx) == "" {
		t.Errorf("expected trace id in context")
	}
	if _, err := InitTracer(config.TracingConfig{}); err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	carrier := InjectContext(ctx)
	if carrier["traceparent"] == "" {
		t.Errorf("expected traceparent header, got %v", carrier)
	}
	restored := ExtractContext(context.Background(), carrier)
	if GetTraceID(restored) != GetTraceID(ctx) {
		t.Errorf("trace id not restored from carrier")
	}
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 || ended[0].Name() != "mc.simulate" {
		t.Fatalf("unexpected spans: %v", ended)
	}
	if ended[0].Status().Description != "boom" {
		t.Errorf("status = %v", ended[0].Status())
	}
}

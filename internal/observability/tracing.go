package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName scopes the engine's spans under one instrumentation library.
const tracerName = "github.com/canvasloom/loom"

// Tracer returns the engine tracer. The host application installs the
// global tracer provider; when none is installed this degrades to no-op
// spans.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartCallSpan begins a span for a top-level model call.
func StartCallSpan(ctx context.Context, provider, model string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "engine.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", provider),
			attribute.String("llm.model", model),
		),
	)
}

// StartToolSpan begins a span for one tool invocation.
func StartToolSpan(ctx context.Context, tool, callID string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "engine.tool",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("tool.name", tool),
			attribute.String("tool.call_id", callID),
		),
	)
}

// EndSpan finishes a span, marking it failed when errText is non-empty.
func EndSpan(span trace.Span, errText string) {
	if errText != "" {
		span.SetStatus(codes.Error, errText)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddTokenAttributes annotates a span with usage counts.
func AddTokenAttributes(span trace.Span, input, output int64) {
	span.SetAttributes(
		attribute.Int64("llm.tokens.input", input),
		attribute.Int64("llm.tokens.output", output),
	)
}

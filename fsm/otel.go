package fsm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fsm"

// startTriggerSpan creates a span covering one trigger attempt.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func (e *Engine) startTriggerSpan(ctx context.Context, t *Transition) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fsm.trigger")
	span.SetAttributes(e.spanAttributes()...)
	span.SetAttributes(
		attribute.String("transition", t.name),
		attribute.String("from", t.from.name),
		attribute.String("to", t.to.name),
	)

	return ctx, span
}

// startStartSpan creates a span covering Start.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func (e *Engine) startStartSpan(ctx context.Context, initial *State) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fsm.start")
	span.SetAttributes(e.spanAttributes()...)
	span.SetAttributes(attribute.String("to", initial.name))

	return ctx, span
}

func (e *Engine) spanAttributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("machine", e.name),
		attribute.String("engine_id", e.id),
	}
}

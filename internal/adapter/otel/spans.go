package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "spellforge"

// StartMutationSpan starts a span for one session mutation.
func StartMutationSpan(ctx context.Context, sessionID, op string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "session."+op,
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("session.op", op),
		),
	)
}

// StartCompileSpan starts a span for a stateless compile request.
func StartCompileSpan(ctx context.Context, spellCount int, notation string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "compile",
		trace.WithAttributes(
			attribute.Int("compile.spells", spellCount),
			attribute.String("compile.notation", notation),
		),
	)
}

// StartPresetLoadSpan starts a span for merging a preset into a session.
func StartPresetLoadSpan(ctx context.Context, sessionID, presetID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "preset.load",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("preset.id", presetID),
		),
	)
}

package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "adjutant"

// StartSessionSpan starts a span for one agent work session.
func StartSessionSpan(ctx context.Context, agentID, threadID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "session",
		trace.WithAttributes(
			attribute.String("agent.id", agentID),
			attribute.String("thread.id", threadID),
		),
	)
}

// StartTaskSpan starts a span for processing one claimed task.
func StartTaskSpan(ctx context.Context, taskID, agentID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "task",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("agent.id", agentID),
		),
	)
}

// StartToolCallSpan starts a span for a tool call within a session.
func StartToolCallSpan(ctx context.Context, callID, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("toolcall.id", callID),
			attribute.String("toolcall.tool", tool),
		),
	)
}

// StartBriefingSpan starts a span for briefing decision and publication.
func StartBriefingSpan(ctx context.Context, agentID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "briefing",
		trace.WithAttributes(
			attribute.String("agent.id", agentID),
		),
	)
}

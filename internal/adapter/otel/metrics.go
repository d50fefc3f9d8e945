// Package otel provides OpenTelemetry instrumentation for Adjutant.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "adjutant"

// Metrics holds all Adjutant metric instruments.
type Metrics struct {
	SessionsStarted    metric.Int64Counter
	SessionsCompleted  metric.Int64Counter
	SessionsFailed     metric.Int64Counter
	TasksEnqueued      metric.Int64Counter
	TasksCompleted     metric.Int64Counter
	TasksFailed        metric.Int64Counter
	BriefingsPublished metric.Int64Counter
	ToolCalls          metric.Int64Counter
	SessionDuration    metric.Float64Histogram
	SessionTokens      metric.Int64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.SessionsStarted, err = meter.Int64Counter("adjutant.sessions.started",
		metric.WithDescription("Number of work sessions started"))
	if err != nil {
		return nil, err
	}

	m.SessionsCompleted, err = meter.Int64Counter("adjutant.sessions.completed",
		metric.WithDescription("Number of work sessions completed"))
	if err != nil {
		return nil, err
	}

	m.SessionsFailed, err = meter.Int64Counter("adjutant.sessions.failed",
		metric.WithDescription("Number of work sessions that errored"))
	if err != nil {
		return nil, err
	}

	m.TasksEnqueued, err = meter.Int64Counter("adjutant.tasks.enqueued",
		metric.WithDescription("Number of tasks enqueued"))
	if err != nil {
		return nil, err
	}

	m.TasksCompleted, err = meter.Int64Counter("adjutant.tasks.completed",
		metric.WithDescription("Number of tasks completed"))
	if err != nil {
		return nil, err
	}

	m.TasksFailed, err = meter.Int64Counter("adjutant.tasks.failed",
		metric.WithDescription("Number of tasks failed"))
	if err != nil {
		return nil, err
	}

	m.BriefingsPublished, err = meter.Int64Counter("adjutant.briefings.published",
		metric.WithDescription("Number of briefings published"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("adjutant.toolcalls",
		metric.WithDescription("Number of tool calls executed"))
	if err != nil {
		return nil, err
	}

	m.SessionDuration, err = meter.Float64Histogram("adjutant.session.duration_seconds",
		metric.WithDescription("Work session duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.SessionTokens, err = meter.Int64Histogram("adjutant.session.tokens",
		metric.WithDescription("Total tokens consumed per work session"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

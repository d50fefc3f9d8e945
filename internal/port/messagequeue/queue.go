// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for NATS subjects used by Adjutant.
const (
	// SubjectAgentWake carries immediate-wake signals from task enqueue
	// to the scheduler. Published as agents.wake.<agent_id>.
	SubjectAgentWake = "agents.wake"
	// SubjectAgentWakeAll is the wildcard the scheduler subscribes on.
	SubjectAgentWakeAll = "agents.wake.>"
	// SubjectBriefingPublished announces a newly published briefing.
	SubjectBriefingPublished = "briefings.published"
)

// WakePayload is the schema for agents.wake messages.
type WakePayload struct {
	AgentID string `json:"agent_id"`
	Reason  string `json:"reason"` // "enqueue" | "delegation"
}

// BriefingPublishedPayload is the schema for briefings.published messages.
type BriefingPublishedPayload struct {
	BriefingID string `json:"briefing_id"`
	AgentID    string `json:"agent_id"`
	UserID     string `json:"user_id"`
	Title      string `json:"title"`
}

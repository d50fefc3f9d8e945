package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventAgentStatus        = "agent.status"
	EventTaskStatus         = "task.status"
	EventBriefingPublished  = "briefing.published"
	EventConversationUpdate = "conversation.message"
)

// AgentStatusEvent is broadcast when an agent's status changes.
type AgentStatusEvent struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
}

// TaskStatusEvent is broadcast when a task's status changes.
type TaskStatusEvent struct {
	TaskID  string `json:"task_id"`
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
}

// BriefingPublishedEvent is broadcast when a lead publishes a briefing.
type BriefingPublishedEvent struct {
	BriefingID string `json:"briefing_id"`
	AgentID    string `json:"agent_id"`
	UserID     string `json:"user_id"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
}

// ConversationUpdateEvent is broadcast when a message lands in a
// foreground conversation.
type ConversationUpdateEvent struct {
	ConversationID string `json:"conversation_id"`
	AgentID        string `json:"agent_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

// Package conversation defines the durable, user-facing foreground
// history. It is append-only and entirely distinct from the disposable
// background thread: during background processing the core only appends
// briefing messages to it and reads nothing back.
package conversation

import "time"

// Conversation is the foreground message history between a user and an
// agent. One per agent.
type Conversation struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one foreground turn.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"` // "user" | "assistant"
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

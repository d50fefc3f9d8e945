// Package thread defines the ephemeral work-session scratchpad: a Thread
// and its ordered ThreadMessages. Threads are created fresh for every
// work session and never reused; they are retained for inspection but
// functionally disposable.
package thread

import (
	"encoding/json"
	"time"
)

// Status represents the lifecycle of a thread.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompacted Status = "compacted"
	StatusCompleted Status = "completed"
)

// Role is the author of a thread message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Thread is one background work session's conversational buffer.
type Thread struct {
	ID          string     `json:"id"`
	AgentID     string     `json:"agent_id"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Message is one turn within a thread. Sequence numbers are gapless and
// strictly increasing within a thread, before and after compaction.
type Message struct {
	ID             string          `json:"id"`
	ThreadID       string          `json:"thread_id"`
	Role           Role            `json:"role"`
	Content        string          `json:"content"`
	ToolCalls      json.RawMessage `json:"tool_calls,omitempty"`
	SequenceNumber int             `json:"sequence_number"`
}

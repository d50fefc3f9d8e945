// Package memory provides the domain model for user-facing memories:
// durable facts about the user loaded into foreground context. Memories
// never enter the background work-session context (see package knowledge
// for the professional counterpart).
package memory

import (
	"errors"
	"slices"
	"time"
)

// Kind categorizes a memory entry.
type Kind string

const (
	KindPreference Kind = "preference"
	KindContext    Kind = "context"
	KindProfile    Kind = "profile"
)

// ValidKinds lists all valid memory kinds.
var ValidKinds = []Kind{KindPreference, KindContext, KindProfile}

// Memory represents a single user-facing memory owned by an agent.
type Memory struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Content   string    `json:"content"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the input for storing a new memory.
type CreateRequest struct {
	AgentID string `json:"agent_id"`
	Content string `json:"content"`
	Kind    Kind   `json:"kind"`
}

// Validate checks that a CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.AgentID == "" {
		return errors.New("agent_id is required")
	}
	if r.Content == "" {
		return errors.New("content is required")
	}
	if !slices.Contains(ValidKinds, r.Kind) {
		return errors.New("invalid kind: must be preference, context, or profile")
	}
	return nil
}

// Package knowledge provides the domain model for durable, cross-session
// agent learnings. Knowledge items feed the background work-session
// context only; they are strictly partitioned from the user-facing
// memories loaded into foreground context.
package knowledge

import (
	"errors"
	"slices"
	"time"
)

// Type categorizes a knowledge item.
type Type string

const (
	TypeFact      Type = "fact"
	TypeTechnique Type = "technique"
	TypePattern   Type = "pattern"
	TypeLesson    Type = "lesson"
)

// ValidTypes lists all valid knowledge item types.
var ValidTypes = []Type{TypeFact, TypeTechnique, TypePattern, TypeLesson}

// Item represents a single durable learning owned by an agent. Items never
// expire automatically; deletion is explicit. SourceThreadID is nullified,
// not cascaded, if the originating thread is removed.
type Item struct {
	ID             string    `json:"id"`
	AgentID        string    `json:"agent_id"`
	Type           Type      `json:"type"`
	Content        string    `json:"content"`
	Confidence     *float64  `json:"confidence,omitempty"`
	SourceThreadID string    `json:"source_thread_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateRequest is the input for persisting a new knowledge item.
type CreateRequest struct {
	AgentID        string   `json:"agent_id"`
	Type           Type     `json:"type"`
	Content        string   `json:"content"`
	Confidence     *float64 `json:"confidence,omitempty"`
	SourceThreadID string   `json:"source_thread_id,omitempty"`
}

// Validate checks that a CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.AgentID == "" {
		return errors.New("agent_id is required")
	}
	if r.Content == "" {
		return errors.New("content is required")
	}
	if !slices.Contains(ValidTypes, r.Type) {
		return errors.New("invalid type: must be fact, technique, pattern, or lesson")
	}
	if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 1) {
		return errors.New("confidence must be between 0 and 1")
	}
	return nil
}

// Package briefing defines the Briefing and InboxItem entities: the
// opt-in, lead-only user notifications summarizing a work session.
package briefing

import (
	"errors"
	"time"
)

// Briefing is the full user-facing report a lead agent publishes after a
// work session it judged brief-worthy.
type Briefing struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Body      string    `json:"body"`
	ThreadID  string    `json:"thread_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InboxItem is the summary-only notification linked to a briefing. It is
// created in the same transaction as its briefing: both or neither.
type InboxItem struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	BriefingID string    `json:"briefing_id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Decision is the structured output of the briefing classifier.
type Decision struct {
	ShouldBrief bool   `json:"should_brief"`
	Title       string `json:"title,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Validate rejects a positive decision that is missing its content.
func (d *Decision) Validate() error {
	if !d.ShouldBrief {
		return nil
	}
	if d.Title == "" || d.Summary == "" || d.Message == "" {
		return errors.New("briefing decision with should_brief=true requires title, summary, and message")
	}
	return nil
}

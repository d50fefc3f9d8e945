// Package task defines the Task domain entity and its status machine.
package task

import (
	"time"

	"github.com/adjutant-ai/adjutant/internal/domain/owner"
)

// Status represents the current state of a task. The only legal
// sequences are pending → in_progress → completed and
// pending → in_progress → failed; no transition is reversible.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Source records how a task entered the queue.
type Source string

const (
	SourceDelegation Source = "delegation"
	SourceUser       Source = "user"
	SourceSystem     Source = "system"
	SourceSelf       Source = "self"
)

// Task represents one unit of queued work for an agent. A task belongs
// to exactly one agent's queue, and at most one task per agent is
// in_progress at any instant.
type Task struct {
	ID           string     `json:"id"`
	Owner        owner.Ref  `json:"owner"`
	AssignedToID string     `json:"assigned_to_id"`
	AssignedByID string     `json:"assigned_by_id"`
	Description  string     `json:"description"`
	Result       string     `json:"result,omitempty"`
	Status       Status     `json:"status"`
	Source       Source     `json:"source"`
	Priority     int        `json:"priority"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// EnqueueRequest holds the fields needed to enqueue a new task.
type EnqueueRequest struct {
	Owner        owner.Ref `json:"owner"`
	AssignedToID string    `json:"assigned_to_id"`
	AssignedByID string    `json:"assigned_by_id"` // self for user/system-sourced tasks
	Description  string    `json:"description"`
	Source       Source    `json:"source"`
	Priority     int       `json:"priority"`
}

// QueueStatus is a read-only snapshot of one agent's queue.
type QueueStatus struct {
	HasPendingWork  bool `json:"has_pending_work"`
	PendingCount    int  `json:"pending_count"`
	InProgressCount int  `json:"in_progress_count"`
}

// Package agent defines the Agent domain entity.
package agent

import (
	"time"

	"github.com/adjutant-ai/adjutant/internal/domain/owner"
)

// Status represents the current state of an agent.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// Agent represents one autonomous worker. A lead has no parent, may
// delegate to subordinates, publishes briefings, and carries a proactive
// next-run schedule. A subordinate has a parent lead and is purely
// reactive.
type Agent struct {
	ID              string     `json:"id"`
	Owner           owner.Ref  `json:"owner"`
	ParentAgentID   string     `json:"parent_agent_id,omitempty"`
	Name            string     `json:"name"`
	RolePrompt      string     `json:"role_prompt"`
	Status          Status     `json:"status"`
	NextRunAt       *time.Time `json:"next_run_at,omitempty"`
	BackoffNextRun  *time.Time `json:"backoff_next_run_at,omitempty"`
	BackoffAttempts int        `json:"backoff_attempts"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsLead reports whether the agent has no parent.
func (a *Agent) IsLead() bool { return a.ParentAgentID == "" }

// InBackoff reports whether failure backoff currently suppresses the agent.
func (a *Agent) InBackoff(now time.Time) bool {
	return a.BackoffNextRun != nil && now.Before(*a.BackoffNextRun)
}

// NextBackoff computes the delay for the given attempt count (1-based)
// with exponential growth capped at max.
func NextBackoff(base, max time.Duration, attempts int) time.Duration {
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/adjutant-ai/adjutant/internal/domain/agent"
	"github.com/adjutant-ai/adjutant/internal/domain/briefing"
	"github.com/adjutant-ai/adjutant/internal/domain/conversation"
	"github.com/adjutant-ai/adjutant/internal/domain/knowledge"
	"github.com/adjutant-ai/adjutant/internal/domain/memory"
	"github.com/adjutant-ai/adjutant/internal/domain/owner"
	"github.com/adjutant-ai/adjutant/internal/domain/roster"
	"github.com/adjutant-ai/adjutant/internal/domain/task"
	"github.com/adjutant-ai/adjutant/internal/domain/thread"
)

// Store is the port interface for all persistence operations. The
// conditional-update methods (ClaimNextTask, TryMarkAgentRunning,
// CompleteTask, FailTask) are the atomic compare-and-swap primitives the
// concurrency model depends on.
type Store interface {
	// Teams and aides
	CreateTeam(ctx context.Context, req roster.CreateTeamRequest) (*roster.Team, error)
	GetTeam(ctx context.Context, id string) (*roster.Team, error)
	CreateAide(ctx context.Context, req roster.CreateAideRequest) (*roster.Aide, error)
	GetAide(ctx context.Context, id string) (*roster.Aide, error)
	DeleteTeam(ctx context.Context, id string) error
	DeleteAide(ctx context.Context, id string) error

	// Agents
	CreateAgent(ctx context.Context, a *agent.Agent) error
	GetAgent(ctx context.Context, id string) (*agent.Agent, error)
	ListAgentsByOwner(ctx context.Context, ref owner.Ref) ([]agent.Agent, error)
	ListChildAgents(ctx context.Context, parentID string) ([]agent.Agent, error)
	UpdateAgentStatus(ctx context.Context, id string, status agent.Status) error
	// TryMarkAgentRunning atomically transitions idle → running. It
	// reports false, without error, when the agent is not idle.
	TryMarkAgentRunning(ctx context.Context, id string) (bool, error)
	// ResetRunningAgents forces every running agent back to idle and
	// reports how many were reset. Crash recovery at startup: a session
	// that died with its agent marked running would otherwise block the
	// idle-to-running gate forever.
	ResetRunningAgents(ctx context.Context) (int64, error)
	UpdateAgentNextRun(ctx context.Context, id string, nextRunAt *time.Time) error
	UpdateAgentBackoff(ctx context.Context, id string, attempts int, nextRunAt *time.Time) error
	// ListDueAgents returns agents with pending work or (for leads of an
	// active owner) next_run_at <= now, excluding paused agents and
	// agents suppressed by backoff.
	ListDueAgents(ctx context.Context, now time.Time) ([]agent.Agent, error)

	// Tasks
	CreateTask(ctx context.Context, req task.EnqueueRequest) (*task.Task, error)
	GetTask(ctx context.Context, id string) (*task.Task, error)
	ListTasksByAgent(ctx context.Context, agentID string) ([]task.Task, error)
	// ClaimNextTask atomically selects the oldest pending task for the
	// agent (priority descending, then creation order) and marks it
	// in_progress. Returns nil, nil when the queue is empty.
	ClaimNextTask(ctx context.Context, agentID string) (*task.Task, error)
	// CompleteTask transitions in_progress → completed; ErrConflict if
	// the task is not in_progress.
	CompleteTask(ctx context.Context, id, result string) error
	// FailTask transitions in_progress → failed; ErrConflict if the task
	// is not in_progress.
	FailTask(ctx context.Context, id, errMsg string) error
	QueueStatus(ctx context.Context, agentID string) (*task.QueueStatus, error)
	// RequeueStaleTasks moves in_progress tasks started before the cutoff
	// whose agent is not running back to pending. Returns the task ids.
	RequeueStaleTasks(ctx context.Context, cutoff time.Time) ([]string, error)

	// Threads
	CreateThread(ctx context.Context, agentID string) (*thread.Thread, error)
	GetThread(ctx context.Context, id string) (*thread.Thread, error)
	AppendThreadMessage(ctx context.Context, msg *thread.Message) error
	ListThreadMessages(ctx context.Context, threadID string) ([]thread.Message, error)
	CountThreadMessages(ctx context.Context, threadID string) (int, error)
	// CompactThread atomically replaces all messages with sequence number
	// <= cutoffSeq by a single system summary message and renumbers the
	// survivors so sequence numbers stay gapless from 1.
	CompactThread(ctx context.Context, threadID string, cutoffSeq int, summary string) error
	CompleteThread(ctx context.Context, id string) error

	// Knowledge (background context)
	CreateKnowledgeItem(ctx context.Context, req knowledge.CreateRequest) (*knowledge.Item, error)
	ListKnowledgeByAgent(ctx context.Context, agentID string) ([]knowledge.Item, error)
	DeleteKnowledgeItem(ctx context.Context, id string) error

	// Conversations (foreground)
	CreateConversation(ctx context.Context, agentID string) (*conversation.Conversation, error)
	GetConversationByAgent(ctx context.Context, agentID string) (*conversation.Conversation, error)
	AppendConversationMessage(ctx context.Context, msg *conversation.Message) error
	ListConversationMessages(ctx context.Context, conversationID string) ([]conversation.Message, error)

	// Memories (foreground context)
	CreateMemory(ctx context.Context, req memory.CreateRequest) (*memory.Memory, error)
	ListMemoriesByAgent(ctx context.Context, agentID string) ([]memory.Memory, error)

	// Briefings and inbox
	// CreateBriefingWithInbox persists the briefing and its linked inbox
	// item in one transaction: both or neither.
	CreateBriefingWithInbox(ctx context.Context, b *briefing.Briefing, item *briefing.InboxItem) error
	ListInboxByUser(ctx context.Context, userID string) ([]briefing.InboxItem, error)
	MarkInboxItemRead(ctx context.Context, id string) error
}

// Package service holds the business logic behind the HTTP and scheduler
// surfaces: queue, thread, knowledge, memory, briefing, agent sessions,
// roster, and the scheduler itself.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	adjotel "github.com/adjutant-ai/adjutant/internal/adapter/otel"
	"github.com/adjutant-ai/adjutant/internal/adapter/ws"
	"github.com/adjutant-ai/adjutant/internal/domain"
	"github.com/adjutant-ai/adjutant/internal/domain/task"
	"github.com/adjutant-ai/adjutant/internal/port/broadcast"
	"github.com/adjutant-ai/adjutant/internal/port/database"
	"github.com/adjutant-ai/adjutant/internal/port/messagequeue"
)

// QueueService owns task state transitions and wake signalling.
type QueueService struct {
	store   database.Store
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *adjotel.Metrics
}

// NewQueueService creates a new QueueService.
func NewQueueService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster, metrics *adjotel.Metrics) *QueueService {
	return &QueueService{store: store, queue: queue, hub: hub, metrics: metrics}
}

// Enqueue inserts a pending task and signals the scheduler that the
// assigned agent has new work. The wake signal is best-effort: the task
// is durable either way and the next poll tick will find it.
func (s *QueueService) Enqueue(ctx context.Context, req task.EnqueueRequest) (*task.Task, error) {
	if err := req.Owner.Validate(); err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	if req.AssignedToID == "" {
		return nil, fmt.Errorf("enqueue: assigned_to_id is required: %w", domain.ErrValidation)
	}
	if req.Description == "" {
		return nil, fmt.Errorf("enqueue: description is required: %w", domain.ErrValidation)
	}
	if req.AssignedByID == "" {
		req.AssignedByID = req.AssignedToID // self-assigned for user/system tasks
	}

	t, err := s.store.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.TasksEnqueued.Add(ctx, 1)
	}

	s.publishWake(ctx, t.AssignedToID, string(req.Source))

	return t, nil
}

// ClaimNext atomically claims the next pending task for the agent.
// Returns nil, nil when the queue is empty.
func (s *QueueService) ClaimNext(ctx context.Context, agentID string) (*task.Task, error) {
	return s.store.ClaimNextTask(ctx, agentID)
}

// Complete finishes an in_progress task with its result.
func (s *QueueService) Complete(ctx context.Context, t *task.Task, result string) error {
	if err := s.store.CompleteTask(ctx, t.ID, result); err != nil {
		return err
	}
	s.broadcastStatus(ctx, t, task.StatusCompleted)
	return nil
}

// Fail finishes an in_progress task with an error message as its result.
func (s *QueueService) Fail(ctx context.Context, t *task.Task, errMsg string) error {
	if err := s.store.FailTask(ctx, t.ID, errMsg); err != nil {
		return err
	}
	s.broadcastStatus(ctx, t, task.StatusFailed)
	return nil
}

// Status returns a read-only snapshot of the agent's queue.
func (s *QueueService) Status(ctx context.Context, agentID string) (*task.QueueStatus, error) {
	return s.store.QueueStatus(ctx, agentID)
}

// ListByAgent returns all tasks assigned to the agent, newest first.
func (s *QueueService) ListByAgent(ctx context.Context, agentID string) ([]task.Task, error) {
	return s.store.ListTasksByAgent(ctx, agentID)
}

// RequeueStale moves in_progress tasks stranded by a crashed session back
// to pending. Called by the scheduler each tick.
func (s *QueueService) RequeueStale(ctx context.Context, olderThan time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-olderThan)
	ids, err := s.store.RequeueStaleTasks(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		slog.Warn("requeued stale in_progress task", "task_id", id, "older_than", olderThan)
	}
	return ids, nil
}

func (s *QueueService) publishWake(ctx context.Context, agentID, reason string) {
	payload, err := json.Marshal(messagequeue.WakePayload{AgentID: agentID, Reason: reason})
	if err != nil {
		slog.Error("marshal wake payload", "agent_id", agentID, "error", err)
		return
	}
	subject := messagequeue.SubjectAgentWake + "." + agentID
	if err := s.queue.Publish(ctx, subject, payload); err != nil {
		slog.Error("publish wake signal failed", "agent_id", agentID, "error", err)
	}
}

func (s *QueueService) broadcastStatus(ctx context.Context, t *task.Task, status task.Status) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, ws.EventTaskStatus, ws.TaskStatusEvent{
		TaskID:  t.ID,
		AgentID: t.AssignedToID,
		Status:  string(status),
	})
}

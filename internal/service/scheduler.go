package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/adjutant-ai/adjutant/internal/config"
	"github.com/adjutant-ai/adjutant/internal/domain/agent"
	"github.com/adjutant-ai/adjutant/internal/domain/task"
	"github.com/adjutant-ai/adjutant/internal/port/database"
	"github.com/adjutant-ai/adjutant/internal/port/messagequeue"
)

const proactiveCheckIn = "Proactive check-in: review the state of your work, your team, and anything the user should hear about."

// Scheduler polls for due agents and dispatches their work sessions.
// Wake messages on the queue shortcut the poll interval so an enqueue
// is picked up on the very next tick instead of whenever the agent's
// row turns up due.
type Scheduler struct {
	id       string
	store    database.Store
	queue    messagequeue.Queue
	agents   *AgentService
	queueSvc *QueueService
	cfg      config.Scheduler

	mu    sync.Mutex
	woken map[string]struct{}
}

// NewScheduler creates a new Scheduler.
func NewScheduler(store database.Store, queue messagequeue.Queue, agents *AgentService, queueSvc *QueueService, cfg config.Scheduler) *Scheduler {
	return &Scheduler{
		id:       uuid.NewString(),
		store:    store,
		queue:    queue,
		agents:   agents,
		queueSvc: queueSvc,
		cfg:      cfg,
		woken:    make(map[string]struct{}),
	}
}

// Run ticks until ctx is canceled. It subscribes to wake messages,
// then on each tick gathers due agents, tops up due leads with a
// check-in task, and fans sessions out under the concurrency limit.
func (s *Scheduler) Run(ctx context.Context) error {
	// A crash mid-session leaves its agent marked running, which blocks
	// the idle-to-running gate and shields its tasks from the janitor.
	if n, err := s.store.ResetRunningAgents(ctx); err != nil {
		slog.Error("resetting running agents failed", "scheduler_id", s.id, "error", err)
	} else if n > 0 {
		slog.Warn("reset agents left running by a previous process", "scheduler_id", s.id, "count", n)
	}

	cancelSub, err := s.queue.Subscribe(ctx, messagequeue.SubjectAgentWakeAll, s.onWake)
	if err != nil {
		// The poll loop alone is sufficient; wakes only reduce latency.
		slog.Warn("wake subscription failed, relying on polling", "scheduler_id", s.id, "error", err)
	} else {
		defer cancelSub()
	}

	slog.Info("scheduler started", "scheduler_id", s.id, "tick_interval", s.cfg.TickInterval)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped", "scheduler_id", s.id)
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) onWake(_ context.Context, _ string, data []byte) error {
	var p messagequeue.WakePayload
	if err := json.Unmarshal(data, &p); err != nil || p.AgentID == "" {
		slog.Warn("discarding malformed wake message", "scheduler_id", s.id, "error", err)
		return nil
	}
	s.mu.Lock()
	s.woken[p.AgentID] = struct{}{}
	s.mu.Unlock()
	return nil
}

// tick runs one scheduling pass. Errors are logged, never returned: a
// bad pass must not kill the loop.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()

	due, err := s.store.ListDueAgents(ctx, now)
	if err != nil {
		slog.Error("listing due agents failed", "scheduler_id", s.id, "error", err)
		return
	}

	due = s.mergeWoken(ctx, due)
	if len(due) == 0 {
		s.janitor(ctx)
		return
	}

	for i := range due {
		s.topUpLead(ctx, &due[i], now)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentSessions)
	for _, a := range due {
		g.Go(func() error {
			if err := s.agents.RunWorkSession(gctx, a.ID); err != nil {
				slog.Error("work session failed", "scheduler_id", s.id, "agent_id", a.ID, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("session dispatch failed", "scheduler_id", s.id, "error", err)
	}

	s.janitor(ctx)
}

// mergeWoken folds explicitly woken agents into the due set and clears
// the wake buffer. Agents already due are deduplicated.
func (s *Scheduler) mergeWoken(ctx context.Context, due []agent.Agent) []agent.Agent {
	s.mu.Lock()
	woken := s.woken
	s.woken = make(map[string]struct{})
	s.mu.Unlock()

	if len(woken) == 0 {
		return due
	}

	seen := make(map[string]struct{}, len(due))
	for _, a := range due {
		seen[a.ID] = struct{}{}
	}
	for id := range woken {
		if _, ok := seen[id]; ok {
			continue
		}
		a, err := s.store.GetAgent(ctx, id)
		if err != nil {
			slog.Warn("woken agent not loadable", "scheduler_id", s.id, "agent_id", id, "error", err)
			continue
		}
		due = append(due, *a)
	}
	return due
}

// topUpLead gives a schedule-due lead a check-in task when its queue is
// empty. Sessions never start on an empty queue, so without this a lead
// whose next_run_at elapsed would be picked up every tick and do
// nothing forever.
func (s *Scheduler) topUpLead(ctx context.Context, a *agent.Agent, now time.Time) {
	if !a.IsLead() || a.NextRunAt == nil || a.NextRunAt.After(now) {
		return
	}
	qs, err := s.queueSvc.Status(ctx, a.ID)
	if err != nil {
		slog.Warn("queue status check failed", "scheduler_id", s.id, "agent_id", a.ID, "error", err)
		return
	}
	if qs.HasPendingWork {
		return
	}
	if _, err := s.queueSvc.Enqueue(ctx, task.EnqueueRequest{
		Owner:        a.Owner,
		AssignedToID: a.ID,
		AssignedByID: a.ID,
		Description:  proactiveCheckIn,
		Source:       task.SourceSystem,
	}); err != nil {
		slog.Warn("enqueueing check-in failed", "scheduler_id", s.id, "agent_id", a.ID, "error", err)
	}
}

// janitor requeues tasks stuck in_progress past the stale timeout,
// typically left behind by a crashed session.
func (s *Scheduler) janitor(ctx context.Context) {
	ids, err := s.queueSvc.RequeueStale(ctx, s.cfg.StaleTaskTimeout)
	if err != nil {
		slog.Error("stale task sweep failed", "scheduler_id", s.id, "error", err)
		return
	}
	if len(ids) > 0 {
		slog.Warn("requeued stale tasks", "scheduler_id", s.id, "count", len(ids))
	}
}

package service

import (
	"context"
	"testing"
	"time"

	adjotel "github.com/adjutant-ai/adjutant/internal/adapter/otel"
	"github.com/adjutant-ai/adjutant/internal/config"
	"github.com/adjutant-ai/adjutant/internal/domain/agent"
	"github.com/adjutant-ai/adjutant/internal/domain/owner"
	"github.com/adjutant-ai/adjutant/internal/domain/roster"
	"github.com/adjutant-ai/adjutant/internal/domain/task"
)

// fixture wires the full service graph over shared mocks.
type fixture struct {
	store *mockStore
	queue *mockQueue
	llm   *mockLLM
	hub   *mockHub
	cache *mockCache
	cfg   *config.Config

	queueSvc  *QueueService
	threads   *ThreadService
	knowledge *KnowledgeService
	memories  *MemoryService
	briefings *BriefingService
	tools     *ToolService
	agents    *AgentService
	roster    *RosterService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Defaults()
	f := &fixture{
		store: newMockStore(),
		queue: &mockQueue{},
		llm:   &mockLLM{},
		hub:   &mockHub{},
		cache: newMockCache(),
		cfg:   &cfg,
	}
	// Real instruments on the global no-op providers, so every test
	// exercises the metric call sites without an SDK.
	metrics, err := adjotel.NewMetrics()
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	f.queueSvc = NewQueueService(f.store, f.queue, f.hub, metrics)
	f.threads = NewThreadService(f.store)
	f.knowledge = NewKnowledgeService(f.store, f.llm, f.cache, cfg.LiteLLM.SessionModel, cfg.Cache.ContextTTL)
	f.memories = NewMemoryService(f.store, f.llm, cfg.LiteLLM.AckModel)
	f.briefings = NewBriefingService(f.store, f.llm, f.queue, f.hub, metrics, cfg.LiteLLM.SessionModel)
	f.tools = NewToolService(f.store, f.queueSvc, f.knowledge, f.briefings)
	f.agents = NewAgentService(f.store, f.queueSvc, f.threads, f.knowledge, f.memories, f.briefings, f.tools, f.llm, f.hub, metrics, &cfg)
	f.roster = NewRosterService(f.store, f.queueSvc)
	return f
}

// seedTeamLead creates a team owner row, a lead agent, and its
// conversation directly in the mock store.
func (f *fixture) seedTeamLead(t *testing.T, userID string) (*agent.Agent, owner.Ref) {
	t.Helper()
	ctx := context.Background()

	team, err := f.store.CreateTeam(ctx, roster.CreateTeamRequest{UserID: userID, Name: "research", Mission: "track the field"})
	if err != nil {
		t.Fatalf("seed team: %v", err)
	}
	ref := owner.ForTeam(team.ID)
	lead := &agent.Agent{Owner: ref, Name: "lead", RolePrompt: "You lead."}
	if err := f.store.CreateAgent(ctx, lead); err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	if _, err := f.store.CreateConversation(ctx, lead.ID); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return lead, ref
}

// seedSubordinate creates a worker agent under the given lead.
func (f *fixture) seedSubordinate(t *testing.T, lead *agent.Agent, name string) *agent.Agent {
	t.Helper()
	sub := &agent.Agent{Owner: lead.Owner, ParentAgentID: lead.ID, Name: name, RolePrompt: "You work."}
	if err := f.store.CreateAgent(context.Background(), sub); err != nil {
		t.Fatalf("seed subordinate: %v", err)
	}
	return sub
}

// enqueue queues a task for the agent and fails the test on error.
func (f *fixture) enqueue(t *testing.T, a *agent.Agent, desc string) *task.Task {
	t.Helper()
	tk, err := f.queueSvc.Enqueue(context.Background(), task.EnqueueRequest{
		Owner:        a.Owner,
		AssignedToID: a.ID,
		Description:  desc,
		Source:       task.SourceUser,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return tk
}

// taskByID reads a task back from the mock store.
func (f *fixture) taskByID(t *testing.T, id string) *task.Task {
	t.Helper()
	tk, err := f.store.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("get task %s: %v", id, err)
	}
	return tk
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adjutant-ai/adjutant/internal/domain"
	"github.com/adjutant-ai/adjutant/internal/domain/agent"
	"github.com/adjutant-ai/adjutant/internal/domain/briefing"
	"github.com/adjutant-ai/adjutant/internal/domain/conversation"
	"github.com/adjutant-ai/adjutant/internal/domain/knowledge"
	"github.com/adjutant-ai/adjutant/internal/domain/memory"
	"github.com/adjutant-ai/adjutant/internal/domain/owner"
	"github.com/adjutant-ai/adjutant/internal/domain/roster"
	"github.com/adjutant-ai/adjutant/internal/domain/task"
	"github.com/adjutant-ai/adjutant/internal/domain/thread"
	"github.com/adjutant-ai/adjutant/internal/port/cache"
	"github.com/adjutant-ai/adjutant/internal/port/database"
	"github.com/adjutant-ai/adjutant/internal/port/llm"
	"github.com/adjutant-ai/adjutant/internal/port/messagequeue"
)

// Compile-time interface checks for the shared mocks.
var (
	_ database.Store     = (*mockStore)(nil)
	_ messagequeue.Queue = (*mockQueue)(nil)
	_ llm.Client         = (*mockLLM)(nil)
	_ cache.Cache        = (*mockCache)(nil)
)

// mockStore is an in-memory database.Store. It is guarded by a mutex so
// concurrency tests can hammer the claim primitives. Error hooks inject
// failures per method.
type mockStore struct {
	mu sync.Mutex

	teams      []roster.Team
	aides      []roster.Aide
	agents     []agent.Agent
	tasks      []task.Task
	threads    []thread.Thread
	threadMsgs map[string][]thread.Message
	knowledge  []knowledge.Item
	convs      []conversation.Conversation
	convMsgs   map[string][]conversation.Message
	memories   []memory.Memory
	briefings  []briefing.Briefing
	inbox      []briefing.InboxItem

	nextID int

	// Error hooks. Set these to inject failures.
	getAgentErr     error
	claimErr        error
	createTaskErr   error
	completeTaskErr error
	createThreadErr error
	appendMsgErr    error
	compactErr      error
	createKnowErr   error
	createBriefErr  error
	queueStatusErr  error
	markRunningErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		threadMsgs: make(map[string][]thread.Message),
		convMsgs:   make(map[string][]conversation.Message),
	}
}

func (m *mockStore) genID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// --- Teams and aides ---

func (m *mockStore) CreateTeam(_ context.Context, req roster.CreateTeamRequest) (*roster.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := roster.Team{ID: m.genID("team"), UserID: req.UserID, Name: req.Name, Mission: req.Mission, Status: roster.StatusActive, CreatedAt: time.Now()}
	m.teams = append(m.teams, t)
	return &t, nil
}

func (m *mockStore) GetTeam(_ context.Context, id string) (*roster.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.teams {
		if m.teams[i].ID == id {
			return &m.teams[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateAide(_ context.Context, req roster.CreateAideRequest) (*roster.Aide, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := roster.Aide{ID: m.genID("aide"), UserID: req.UserID, Name: req.Name, Purpose: req.Purpose, Status: roster.StatusActive, CreatedAt: time.Now()}
	m.aides = append(m.aides, a)
	return &a, nil
}

func (m *mockStore) GetAide(_ context.Context, id string) (*roster.Aide, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.aides {
		if m.aides[i].ID == id {
			return &m.aides[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeleteTeam(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.teams {
		if m.teams[i].ID == id {
			m.teams = append(m.teams[:i], m.teams[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) DeleteAide(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.aides {
		if m.aides[i].ID == id {
			m.aides = append(m.aides[:i], m.aides[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- Agents ---

func (m *mockStore) CreateAgent(_ context.Context, a *agent.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.genID("agent")
	a.Status = agent.StatusIdle
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.agents = append(m.agents, *a)
	return nil
}

func (m *mockStore) GetAgent(_ context.Context, id string) (*agent.Agent, error) {
	if m.getAgentErr != nil {
		return nil, m.getAgentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agents {
		if m.agents[i].ID == id {
			a := m.agents[i]
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListAgentsByOwner(_ context.Context, ref owner.Ref) ([]agent.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []agent.Agent
	for _, a := range m.agents {
		if a.Owner == ref {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) ListChildAgents(_ context.Context, parentID string) ([]agent.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []agent.Agent
	for _, a := range m.agents {
		if a.ParentAgentID == parentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateAgentStatus(ctx context.Context, id string, status agent.Status) error {
	// The real pool refuses queries on a dead context.
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agents {
		if m.agents[i].ID == id {
			m.agents[i].Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) TryMarkAgentRunning(_ context.Context, id string) (bool, error) {
	if m.markRunningErr != nil {
		return false, m.markRunningErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agents {
		if m.agents[i].ID == id {
			if m.agents[i].Status != agent.StatusIdle {
				return false, nil
			}
			m.agents[i].Status = agent.StatusRunning
			return true, nil
		}
	}
	return false, domain.ErrNotFound
}

func (m *mockStore) ResetRunningAgents(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.agents {
		if m.agents[i].Status == agent.StatusRunning {
			m.agents[i].Status = agent.StatusIdle
			n++
		}
	}
	return n, nil
}

func (m *mockStore) UpdateAgentNextRun(_ context.Context, id string, nextRunAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agents {
		if m.agents[i].ID == id {
			m.agents[i].NextRunAt = nextRunAt
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) UpdateAgentBackoff(_ context.Context, id string, attempts int, nextRunAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agents {
		if m.agents[i].ID == id {
			m.agents[i].BackoffAttempts = attempts
			m.agents[i].BackoffNextRun = nextRunAt
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListDueAgents(_ context.Context, now time.Time) ([]agent.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []agent.Agent
	for _, a := range m.agents {
		if a.Status != agent.StatusIdle || a.InBackoff(now) {
			continue
		}
		if !m.ownerActiveLocked(a.Owner) {
			continue
		}
		due := false
		for _, t := range m.tasks {
			if t.AssignedToID == a.ID && t.Status == task.StatusPending {
				due = true
				break
			}
		}
		if !due && a.ParentAgentID == "" && a.NextRunAt != nil && !a.NextRunAt.After(now) {
			due = true
		}
		if due {
			out = append(out, a)
		}
	}
	return out, nil
}

// ownerActiveLocked reports whether the owning team or aide is active.
// Callers must hold m.mu.
func (m *mockStore) ownerActiveLocked(ref owner.Ref) bool {
	switch ref.Kind() {
	case owner.KindTeam:
		for _, t := range m.teams {
			if t.ID == ref.ID() {
				return t.Status == roster.StatusActive
			}
		}
	case owner.KindAide:
		for _, d := range m.aides {
			if d.ID == ref.ID() {
				return d.Status == roster.StatusActive
			}
		}
	}
	return false
}

// --- Tasks ---

func (m *mockStore) CreateTask(_ context.Context, req task.EnqueueRequest) (*task.Task, error) {
	if m.createTaskErr != nil {
		return nil, m.createTaskErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := task.Task{
		ID:           m.genID("task"),
		Owner:        req.Owner,
		AssignedToID: req.AssignedToID,
		AssignedByID: req.AssignedByID,
		Description:  req.Description,
		Status:       task.StatusPending,
		Source:       req.Source,
		Priority:     req.Priority,
		CreatedAt:    time.Now(),
	}
	m.tasks = append(m.tasks, t)
	return &t, nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			t := m.tasks[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListTasksByAgent(_ context.Context, agentID string) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []task.Task
	for _, t := range m.tasks {
		if t.AssignedToID == agentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) ClaimNextTask(_ context.Context, agentID string) (*task.Task, error) {
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	best := -1
	for i := range m.tasks {
		t := &m.tasks[i]
		if t.AssignedToID != agentID || t.Status != task.StatusPending {
			continue
		}
		if best == -1 ||
			t.Priority > m.tasks[best].Priority ||
			(t.Priority == m.tasks[best].Priority && t.CreatedAt.Before(m.tasks[best].CreatedAt)) {
			best = i
		}
	}
	if best == -1 {
		return nil, nil
	}
	now := time.Now()
	m.tasks[best].Status = task.StatusInProgress
	m.tasks[best].StartedAt = &now
	t := m.tasks[best]
	return &t, nil
}

func (m *mockStore) CompleteTask(_ context.Context, id, result string) error {
	if m.completeTaskErr != nil {
		return m.completeTaskErr
	}
	return m.finishTask(id, task.StatusCompleted, result)
}

func (m *mockStore) FailTask(_ context.Context, id, errMsg string) error {
	return m.finishTask(id, task.StatusFailed, errMsg)
}

func (m *mockStore) finishTask(id string, status task.Status, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID != id {
			continue
		}
		if m.tasks[i].Status != task.StatusInProgress {
			return fmt.Errorf("task %s status is %s: %w", id, m.tasks[i].Status, domain.ErrConflict)
		}
		now := time.Now()
		m.tasks[i].Status = status
		m.tasks[i].Result = result
		m.tasks[i].CompletedAt = &now
		return nil
	}
	return domain.ErrNotFound
}

func (m *mockStore) QueueStatus(_ context.Context, agentID string) (*task.QueueStatus, error) {
	if m.queueStatusErr != nil {
		return nil, m.queueStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var qs task.QueueStatus
	for _, t := range m.tasks {
		if t.AssignedToID != agentID {
			continue
		}
		switch t.Status {
		case task.StatusPending:
			qs.PendingCount++
		case task.StatusInProgress:
			qs.InProgressCount++
		}
	}
	// Pending-only, matching the postgres adapter: in_progress tasks are
	// claimable by nobody, so they alone never justify starting a session.
	qs.HasPendingWork = qs.PendingCount > 0
	return &qs, nil
}

func (m *mockStore) RequeueStaleTasks(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	running := make(map[string]bool)
	for _, a := range m.agents {
		if a.Status == agent.StatusRunning {
			running[a.ID] = true
		}
	}
	var ids []string
	for i := range m.tasks {
		t := &m.tasks[i]
		if t.Status == task.StatusInProgress && t.StartedAt != nil && t.StartedAt.Before(cutoff) && !running[t.AssignedToID] {
			t.Status = task.StatusPending
			t.StartedAt = nil
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

// --- Threads ---

func (m *mockStore) CreateThread(_ context.Context, agentID string) (*thread.Thread, error) {
	if m.createThreadErr != nil {
		return nil, m.createThreadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	th := thread.Thread{ID: m.genID("thread"), AgentID: agentID, Status: thread.StatusActive, CreatedAt: time.Now()}
	m.threads = append(m.threads, th)
	return &th, nil
}

func (m *mockStore) GetThread(_ context.Context, id string) (*thread.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.threads {
		if m.threads[i].ID == id {
			th := m.threads[i]
			return &th, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) AppendThreadMessage(_ context.Context, msg *thread.Message) error {
	if m.appendMsgErr != nil {
		return m.appendMsgErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.threadMsgs[msg.ThreadID]
	msg.ID = m.genID("msg")
	msg.SequenceNumber = 1
	if n := len(msgs); n > 0 {
		msg.SequenceNumber = msgs[n-1].SequenceNumber + 1
	}
	m.threadMsgs[msg.ThreadID] = append(msgs, *msg)
	return nil
}

func (m *mockStore) ListThreadMessages(_ context.Context, threadID string) ([]thread.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]thread.Message, len(m.threadMsgs[threadID]))
	copy(out, m.threadMsgs[threadID])
	return out, nil
}

func (m *mockStore) CountThreadMessages(_ context.Context, threadID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.threadMsgs[threadID]), nil
}

func (m *mockStore) CompactThread(_ context.Context, threadID string, cutoffSeq int, summary string) error {
	if m.compactErr != nil {
		return m.compactErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.threads {
		if m.threads[i].ID != threadID {
			continue
		}
		if m.threads[i].Status == thread.StatusCompleted {
			return fmt.Errorf("thread %s is completed: %w", threadID, domain.ErrConflict)
		}
		var kept []thread.Message
		kept = append(kept, thread.Message{ID: m.genID("msg"), ThreadID: threadID, Role: thread.RoleSystem, Content: summary, SequenceNumber: 1})
		seq := 2
		for _, msg := range m.threadMsgs[threadID] {
			if msg.SequenceNumber <= cutoffSeq {
				continue
			}
			msg.SequenceNumber = seq
			seq++
			kept = append(kept, msg)
		}
		m.threadMsgs[threadID] = kept
		m.threads[i].Status = thread.StatusCompacted
		return nil
	}
	return domain.ErrNotFound
}

func (m *mockStore) CompleteThread(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.threads {
		if m.threads[i].ID == id {
			now := time.Now()
			m.threads[i].Status = thread.StatusCompleted
			m.threads[i].CompletedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- Knowledge ---

func (m *mockStore) CreateKnowledgeItem(_ context.Context, req knowledge.CreateRequest) (*knowledge.Item, error) {
	if m.createKnowErr != nil {
		return nil, m.createKnowErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item := knowledge.Item{
		ID: m.genID("know"), AgentID: req.AgentID, Type: req.Type,
		Content: req.Content, Confidence: req.Confidence,
		SourceThreadID: req.SourceThreadID, CreatedAt: time.Now(),
	}
	m.knowledge = append(m.knowledge, item)
	return &item, nil
}

func (m *mockStore) ListKnowledgeByAgent(_ context.Context, agentID string) ([]knowledge.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []knowledge.Item
	for _, item := range m.knowledge {
		if item.AgentID == agentID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteKnowledgeItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.knowledge {
		if m.knowledge[i].ID == id {
			m.knowledge = append(m.knowledge[:i], m.knowledge[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- Conversations and memories ---

func (m *mockStore) CreateConversation(_ context.Context, agentID string) (*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := conversation.Conversation{ID: m.genID("conv"), AgentID: agentID, CreatedAt: time.Now()}
	m.convs = append(m.convs, c)
	return &c, nil
}

func (m *mockStore) GetConversationByAgent(_ context.Context, agentID string) (*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.convs {
		if m.convs[i].AgentID == agentID {
			c := m.convs[i]
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) AppendConversationMessage(_ context.Context, msg *conversation.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.genID("cmsg")
	msg.CreatedAt = time.Now()
	m.convMsgs[msg.ConversationID] = append(m.convMsgs[msg.ConversationID], *msg)
	return nil
}

func (m *mockStore) ListConversationMessages(_ context.Context, conversationID string) ([]conversation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]conversation.Message, len(m.convMsgs[conversationID]))
	copy(out, m.convMsgs[conversationID])
	return out, nil
}

func (m *mockStore) CreateMemory(_ context.Context, req memory.CreateRequest) (*memory.Memory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := memory.Memory{ID: m.genID("mem"), AgentID: req.AgentID, Content: req.Content, Kind: req.Kind, CreatedAt: time.Now()}
	m.memories = append(m.memories, mem)
	return &mem, nil
}

func (m *mockStore) ListMemoriesByAgent(_ context.Context, agentID string) ([]memory.Memory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []memory.Memory
	for _, mem := range m.memories {
		if mem.AgentID == agentID {
			out = append(out, mem)
		}
	}
	return out, nil
}

// --- Briefings ---

func (m *mockStore) CreateBriefingWithInbox(_ context.Context, b *briefing.Briefing, item *briefing.InboxItem) error {
	if m.createBriefErr != nil {
		return m.createBriefErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.genID("brief")
	b.CreatedAt = time.Now()
	item.ID = m.genID("inbox")
	item.BriefingID = b.ID
	item.CreatedAt = b.CreatedAt
	m.briefings = append(m.briefings, *b)
	m.inbox = append(m.inbox, *item)
	return nil
}

func (m *mockStore) ListInboxByUser(_ context.Context, userID string) ([]briefing.InboxItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []briefing.InboxItem
	for _, item := range m.inbox {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockStore) MarkInboxItemRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.inbox {
		if m.inbox[i].ID == id {
			m.inbox[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- Queue mock ---

type mockQueue struct {
	mu        sync.Mutex
	published []struct {
		subject string
		data    []byte
	}
	publishErr error
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, struct {
		subject string
		data    []byte
	}{subject, data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Drain() error      { return nil }
func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

// --- LLM mock ---

// mockLLM drives model behavior from test-provided functions. A nil
// generateFn returns a canned text response.
type mockLLM struct {
	mu          sync.Mutex
	generateFn  func(req llm.GenerateRequest) (*llm.GenerateResult, error)
	objectFn    func(req llm.GenerateRequest, out any) error
	calls       []llm.GenerateRequest
	objectCalls []llm.GenerateRequest
}

func (c *mockLLM) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	fn := c.generateFn
	c.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &llm.GenerateResult{Text: "done"}, nil
}

func (c *mockLLM) GenerateObject(_ context.Context, req llm.GenerateRequest, out any) error {
	c.mu.Lock()
	c.objectCalls = append(c.objectCalls, req)
	fn := c.objectFn
	c.mu.Unlock()
	if fn != nil {
		return fn(req, out)
	}
	return nil
}

// --- Broadcast mock ---

type broadcastRecord struct {
	eventType string
	payload   any
}

type mockHub struct {
	mu     sync.Mutex
	events []broadcastRecord
}

func (h *mockHub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, broadcastRecord{eventType, payload})
}

func (h *mockHub) eventTypes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.eventType
	}
	return out
}

// --- Cache mock ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

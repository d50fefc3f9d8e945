package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	adjotel "github.com/adjutant-ai/adjutant/internal/adapter/otel"
	"github.com/adjutant-ai/adjutant/internal/adapter/ws"
	"github.com/adjutant-ai/adjutant/internal/config"
	"github.com/adjutant-ai/adjutant/internal/domain"
	"github.com/adjutant-ai/adjutant/internal/domain/agent"
	"github.com/adjutant-ai/adjutant/internal/domain/conversation"
	"github.com/adjutant-ai/adjutant/internal/domain/memory"
	"github.com/adjutant-ai/adjutant/internal/domain/task"
	"github.com/adjutant-ai/adjutant/internal/domain/thread"
	"github.com/adjutant-ai/adjutant/internal/port/broadcast"
	"github.com/adjutant-ai/adjutant/internal/port/database"
	"github.com/adjutant-ai/adjutant/internal/port/llm"
)

const summarizationPrompt = `Summarize this agent work session transcript into a compact context block.
Preserve task outcomes, key findings, and open items. Be terse.`

// AgentService orchestrates an agent's two lifecycles: foreground user
// message handling and background work sessions.
type AgentService struct {
	store     database.Store
	queueSvc  *QueueService
	threads   *ThreadService
	knowledge *KnowledgeService
	memories  *MemoryService
	briefings *BriefingService
	tools     *ToolService
	llm       llm.Client
	hub       broadcast.Broadcaster
	metrics   *adjotel.Metrics

	sessionCfg      config.Session
	llmCfg          config.LiteLLM
	leadRunInterval time.Duration
	backoffBase     time.Duration
	backoffMax      time.Duration
}

// NewAgentService creates a new AgentService.
func NewAgentService(
	store database.Store,
	queueSvc *QueueService,
	threadSvc *ThreadService,
	knowledgeSvc *KnowledgeService,
	memorySvc *MemoryService,
	briefingSvc *BriefingService,
	toolSvc *ToolService,
	llmClient llm.Client,
	hub broadcast.Broadcaster,
	metrics *adjotel.Metrics,
	cfg *config.Config,
) *AgentService {
	return &AgentService{
		store:           store,
		queueSvc:        queueSvc,
		threads:         threadSvc,
		knowledge:       knowledgeSvc,
		memories:        memorySvc,
		briefings:       briefingSvc,
		tools:           toolSvc,
		llm:             llmClient,
		hub:             hub,
		metrics:         metrics,
		sessionCfg:      cfg.Session,
		llmCfg:          cfg.LiteLLM,
		leadRunInterval: cfg.Scheduler.LeadRunInterval,
		backoffBase:     cfg.Scheduler.BackoffBase,
		backoffMax:      cfg.Scheduler.BackoffMax,
	}
}

// Get returns an agent by id.
func (s *AgentService) Get(ctx context.Context, id string) (*agent.Agent, error) {
	return s.store.GetAgent(ctx, id)
}

// ConversationHistory returns the agent's foreground conversation in
// chronological order.
func (s *AgentService) ConversationHistory(ctx context.Context, agentID string) ([]conversation.Message, error) {
	conv, err := s.store.GetConversationByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return s.store.ListConversationMessages(ctx, conv.ID)
}

// HandleUserMessage is the foreground path: persist the user's message,
// produce and persist a short acknowledgment, queue the real work for the
// next background session, and kick off memory extraction without waiting
// on it. The ack is fully persisted before it is returned, so streaming
// it to the client can be replayed safely.
func (s *AgentService) HandleUserMessage(ctx context.Context, agentID, content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("handle user message: content is required: %w", domain.ErrValidation)
	}

	a, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return "", err
	}
	if !a.IsLead() {
		return "", fmt.Errorf("handle user message: agent %s is a subordinate: %w", agentID, domain.ErrValidation)
	}

	conv, err := s.store.GetConversationByAgent(ctx, agentID)
	if err != nil {
		return "", err
	}

	userMsg := &conversation.Message{ConversationID: conv.ID, Role: "user", Content: content}
	if err := s.store.AppendConversationMessage(ctx, userMsg); err != nil {
		return "", err
	}
	s.broadcastConversation(ctx, conv.ID, agentID, userMsg)

	mems, err := s.memories.ListByAgent(ctx, agentID)
	if err != nil {
		slog.Warn("loading memories failed, acknowledging without them", "agent_id", agentID, "error", err)
	}

	ack := s.acknowledge(ctx, a, mems, content)

	ackMsg := &conversation.Message{ConversationID: conv.ID, Role: "assistant", Content: ack}
	if err := s.store.AppendConversationMessage(ctx, ackMsg); err != nil {
		return "", err
	}
	s.broadcastConversation(ctx, conv.ID, agentID, ackMsg)

	if _, err := s.queueSvc.Enqueue(ctx, task.EnqueueRequest{
		Owner:        a.Owner,
		AssignedToID: a.ID,
		AssignedByID: a.ID,
		Description:  content,
		Source:       task.SourceUser,
	}); err != nil {
		return "", err
	}

	s.memories.ExtractAsync(agentID, content, ack)

	return ack, nil
}

// acknowledge produces a 1-2 sentence contextual ack with the small model
// and a tight token budget. On model failure it falls back to a canned
// line: the user must never be blocked on the LLM.
func (s *AgentService) acknowledge(ctx context.Context, a *agent.Agent, mems []memory.Memory, content string) string {
	var sys strings.Builder
	sys.WriteString("You are " + a.Name + ". Acknowledge the user's message in one or two sentences and say you will look into it. Do not attempt the work now.")
	if len(mems) > 0 {
		sys.WriteString("\nWhat you know about the user:\n")
		for _, m := range mems {
			sys.WriteString("- " + m.Content + "\n")
		}
	}

	res, err := s.llm.Generate(ctx, llm.GenerateRequest{
		Model:        s.llmCfg.AckModel,
		SystemPrompt: sys.String(),
		Messages:     []llm.Message{{Role: "user", Content: content}},
		MaxTokens:    s.llmCfg.AckMaxTokens,
	})
	if err != nil || res.Text == "" {
		slog.Warn("acknowledgment generation failed, using fallback", "agent_id", a.ID, "error", err)
		return "Got it. I'll look into this and report back."
	}
	return res.Text
}

// RunWorkSession drains the agent's task queue inside one fresh thread.
// An empty queue is a cheap no-op: no thread, no status change. Exactly
// one session per agent can run at a time, enforced by the conditional
// idle-to-running transition in storage.
func (s *AgentService) RunWorkSession(ctx context.Context, agentID string) error {
	qs, err := s.queueSvc.Status(ctx, agentID)
	if err != nil {
		return err
	}
	if !qs.HasPendingWork {
		return nil
	}

	a, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}
	if a.Status == agent.StatusPaused {
		return nil
	}

	claimed, err := s.store.TryMarkAgentRunning(ctx, agentID)
	if err != nil {
		return err
	}
	if !claimed {
		// Another session holds the agent; the scheduler's call was speculative.
		return nil
	}
	s.broadcastAgentStatus(ctx, agentID, agent.StatusRunning)

	start := time.Now()
	if s.metrics != nil {
		s.metrics.SessionsStarted.Add(ctx, 1)
	}

	// The agent must come back to idle on every exit path. The restore
	// runs on a context detached from the session's: shutdown cancels
	// ctx mid-session, and a restore issued on the canceled context
	// would be refused, stranding the agent in running.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.store.UpdateAgentStatus(cleanupCtx, agentID, agent.StatusIdle); err != nil {
			slog.Error("restoring agent to idle failed", "agent_id", agentID, "error", err)
		}
		s.broadcastAgentStatus(cleanupCtx, agentID, agent.StatusIdle)
	}()

	sessionErr := s.runSession(ctx, a)

	if s.metrics != nil {
		s.metrics.SessionDuration.Record(ctx, time.Since(start).Seconds())
		if sessionErr != nil {
			s.metrics.SessionsFailed.Add(ctx, 1)
		} else {
			s.metrics.SessionsCompleted.Add(ctx, 1)
		}
	}
	return sessionErr
}

func (s *AgentService) runSession(ctx context.Context, a *agent.Agent) error {
	th, err := s.threads.StartSession(ctx, a.ID)
	if err != nil {
		return err
	}
	ctx, span := adjotel.StartSessionSpan(ctx, a.ID, th.ID)
	defer span.End()

	knowledgeBlock, err := s.knowledge.ContextBlock(ctx, a.ID)
	if err != nil {
		slog.Warn("loading knowledge context failed, running without it", "agent_id", a.ID, "error", err)
		knowledgeBlock = ""
	}

	var completed, failed int
	var tokens int64
	for {
		t, err := s.queueSvc.ClaimNext(ctx, a.ID)
		if err != nil {
			return err
		}
		if t == nil {
			break
		}

		result, used, taskErr := s.processTaskInThread(ctx, a, th.ID, t, knowledgeBlock)
		tokens += used
		if taskErr != nil {
			// One task's failure never aborts the session.
			slog.Warn("task processing failed", "agent_id", a.ID, "task_id", t.ID, "error", taskErr)
			if err := s.queueSvc.Fail(ctx, t, taskErr.Error()); err != nil && !errors.Is(err, domain.ErrConflict) {
				return err
			}
			failed++
			continue
		}

		// ErrConflict here means a tool (report_to_lead) already finalized it.
		if err := s.queueSvc.Complete(ctx, t, result); err != nil && !errors.Is(err, domain.ErrConflict) {
			return err
		}
		completed++
	}

	// Queue is drained: distill learnings, close the thread, and let the
	// lead decide on a briefing and its next proactive run.
	msgs, err := s.threads.BuildContext(ctx, th.ID)
	if err != nil {
		slog.Warn("reading session transcript failed, skipping knowledge extraction", "thread_id", th.ID, "error", err)
	} else {
		s.knowledge.ExtractFromThread(ctx, a.ID, th.ID, msgs)
	}

	if err := s.threads.EndSession(ctx, th.ID); err != nil {
		return err
	}

	if a.IsLead() {
		if _, err := s.briefings.DecideAndPublish(ctx, a, th.ID); err != nil {
			slog.Warn("briefing decision failed", "agent_id", a.ID, "error", err)
		}
		next := time.Now().Add(s.leadRunInterval)
		if err := s.store.UpdateAgentNextRun(ctx, a.ID, &next); err != nil {
			return err
		}
	}

	s.applyBackoff(ctx, a, completed, failed)

	if s.metrics != nil {
		s.metrics.TasksCompleted.Add(ctx, int64(completed))
		s.metrics.TasksFailed.Add(ctx, int64(failed))
		s.metrics.SessionTokens.Record(ctx, tokens)
	}

	slog.Info("work session finished",
		"agent_id", a.ID, "thread_id", th.ID, "completed", completed, "failed", failed)
	return nil
}

// applyBackoff accrues exponential backoff for a session where every task
// failed, and clears any backoff after a session with a success.
func (s *AgentService) applyBackoff(ctx context.Context, a *agent.Agent, completed, failed int) {
	switch {
	case failed > 0 && completed == 0:
		attempts := a.BackoffAttempts + 1
		next := time.Now().Add(agent.NextBackoff(s.backoffBase, s.backoffMax, attempts))
		if err := s.store.UpdateAgentBackoff(ctx, a.ID, attempts, &next); err != nil {
			slog.Error("recording backoff failed", "agent_id", a.ID, "error", err)
		} else {
			slog.Warn("agent entering failure backoff", "agent_id", a.ID, "attempts", attempts, "until", next)
		}
	case completed > 0 && a.BackoffAttempts > 0:
		if err := s.store.UpdateAgentBackoff(ctx, a.ID, 0, nil); err != nil {
			slog.Error("clearing backoff failed", "agent_id", a.ID, "error", err)
		}
	}
}

// processTaskInThread feeds one task through the thread: task description
// in, bounded tool rounds, assistant's final text out as the result. The
// second return is the token count consumed by the model calls.
func (s *AgentService) processTaskInThread(ctx context.Context, a *agent.Agent, threadID string, t *task.Task, knowledgeBlock string) (string, int64, error) {
	ctx, span := adjotel.StartTaskSpan(ctx, t.ID, a.ID)
	defer span.End()

	var tokens int64
	if _, err := s.threads.Append(ctx, threadID, thread.RoleUser, t.Description, nil); err != nil {
		return "", tokens, err
	}

	sysPrompt := a.RolePrompt
	if knowledgeBlock != "" {
		sysPrompt += "\n\n" + knowledgeBlock
	}
	toolDefs := s.tools.Defs(a.IsLead())

	for step := 0; step < s.sessionCfg.MaxToolSteps; step++ {
		msgs, err := s.threads.BuildContext(ctx, threadID)
		if err != nil {
			return "", tokens, err
		}

		res, err := s.llm.Generate(ctx, llm.GenerateRequest{
			Model:        s.llmCfg.SessionModel,
			SystemPrompt: sysPrompt,
			Messages:     toLLMMessages(msgs),
			Tools:        toolDefs,
		})
		if err != nil {
			return "", tokens, fmt.Errorf("task %s: llm: %w", t.ID, err)
		}
		tokens += int64(res.TokensIn + res.TokensOut)

		if len(res.ToolCalls) == 0 {
			if _, err := s.threads.Append(ctx, threadID, thread.RoleAssistant, res.Text, nil); err != nil {
				return "", tokens, err
			}
			if err := s.maybeCompact(ctx, threadID); err != nil {
				slog.Warn("compaction failed, continuing uncompacted", "thread_id", threadID, "error", err)
			}
			return res.Text, tokens, nil
		}

		if err := s.appendToolRound(ctx, a, threadID, t, res); err != nil {
			return "", tokens, err
		}
		if err := s.maybeCompact(ctx, threadID); err != nil {
			slog.Warn("compaction failed, continuing uncompacted", "thread_id", threadID, "error", err)
		}
	}

	// Step budget exhausted. The work done so far stands; record the cutoff.
	const capped = "Stopped: tool step limit reached before a final answer."
	if _, err := s.threads.Append(ctx, threadID, thread.RoleAssistant, capped, nil); err != nil {
		return "", tokens, err
	}
	return capped, tokens, nil
}

// appendToolRound records the assistant's tool-call turn and executes
// each call, appending results as system messages the model sees next
// round. Tool validation errors are reported back to the model, not
// raised: the model may recover by calling differently.
func (s *AgentService) appendToolRound(ctx context.Context, a *agent.Agent, threadID string, t *task.Task, res *llm.GenerateResult) error {
	callsJSON, err := json.Marshal(res.ToolCalls)
	if err != nil {
		return fmt.Errorf("marshal tool calls: %w", err)
	}
	if _, err := s.threads.Append(ctx, threadID, thread.RoleAssistant, res.Text, callsJSON); err != nil {
		return err
	}

	for _, call := range res.ToolCalls {
		callCtx, span := adjotel.StartToolCallSpan(ctx, call.ID, call.Name)
		out, dispatchErr := s.tools.Dispatch(callCtx, a, threadID, t, call)
		span.End()

		if s.metrics != nil {
			s.metrics.ToolCalls.Add(ctx, 1)
		}

		content := fmt.Sprintf("tool %s: %s", call.Name, out)
		if dispatchErr != nil {
			content = fmt.Sprintf("tool %s error: %v", call.Name, dispatchErr)
		}
		if _, err := s.threads.Append(ctx, threadID, thread.RoleSystem, content, nil); err != nil {
			return err
		}
	}
	return nil
}

// maybeCompact folds the thread prefix into a summary once the message
// count crosses the threshold. Directly after compaction the count is
// back under the threshold, so back-to-back compactions do not happen.
func (s *AgentService) maybeCompact(ctx context.Context, threadID string) error {
	should, err := s.threads.ShouldCompact(ctx, threadID, s.sessionCfg.CompactThreshold)
	if err != nil || !should {
		return err
	}

	msgs, err := s.threads.BuildContext(ctx, threadID)
	if err != nil {
		return err
	}
	cut := len(msgs) - s.sessionCfg.CompactKeepRecent
	if cut < 1 {
		return nil
	}

	summary, err := s.summarize(ctx, msgs[:cut])
	if err != nil {
		return err
	}
	return s.threads.CompactWithSummary(ctx, threadID, summary, s.sessionCfg.CompactKeepRecent)
}

func (s *AgentService) summarize(ctx context.Context, msgs []thread.Message) (string, error) {
	res, err := s.llm.Generate(ctx, llm.GenerateRequest{
		Model:        s.llmCfg.SessionModel,
		SystemPrompt: summarizationPrompt,
		Messages:     []llm.Message{{Role: "user", Content: renderTranscript(msgs)}},
	})
	if err != nil {
		return "", fmt.Errorf("summarize thread: %w", err)
	}
	return "[Session summary] " + res.Text, nil
}

func (s *AgentService) broadcastAgentStatus(ctx context.Context, agentID string, status agent.Status) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, ws.EventAgentStatus, ws.AgentStatusEvent{
		AgentID: agentID,
		Status:  string(status),
	})
}

func (s *AgentService) broadcastConversation(ctx context.Context, convID, agentID string, msg *conversation.Message) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, ws.EventConversationUpdate, ws.ConversationUpdateEvent{
		ConversationID: convID,
		AgentID:        agentID,
		Role:           msg.Role,
		Content:        msg.Content,
	})
}

// toLLMMessages maps thread roles onto chat roles. Tool results are
// stored as system messages and cross over unchanged.
func toLLMMessages(msgs []thread.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

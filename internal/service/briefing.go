package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	adjotel "github.com/adjutant-ai/adjutant/internal/adapter/otel"
	"github.com/adjutant-ai/adjutant/internal/adapter/ws"
	"github.com/adjutant-ai/adjutant/internal/domain/agent"
	"github.com/adjutant-ai/adjutant/internal/domain/briefing"
	"github.com/adjutant-ai/adjutant/internal/domain/conversation"
	"github.com/adjutant-ai/adjutant/internal/domain/owner"
	"github.com/adjutant-ai/adjutant/internal/domain/thread"
	"github.com/adjutant-ai/adjutant/internal/port/broadcast"
	"github.com/adjutant-ai/adjutant/internal/port/database"
	"github.com/adjutant-ai/adjutant/internal/port/llm"
	"github.com/adjutant-ai/adjutant/internal/port/messagequeue"
)

const briefingDecisionPrompt = `You review what an autonomous agent accomplished in a background work session and decide whether the user should be notified.
Most sessions do NOT deserve a briefing. Brief only for genuinely noteworthy findings or finished deliverables.
Return JSON: {"should_brief": bool, "title": "...", "summary": "...", "message": "..."}.
When should_brief is false, omit the other fields.`

// BriefingService decides and publishes lead-only user briefings.
type BriefingService struct {
	store   database.Store
	llm     llm.Client
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *adjotel.Metrics
	model   string
}

// NewBriefingService creates a new BriefingService.
func NewBriefingService(store database.Store, llmClient llm.Client, queue messagequeue.Queue, hub broadcast.Broadcaster, metrics *adjotel.Metrics, model string) *BriefingService {
	return &BriefingService{store: store, llm: llmClient, queue: queue, hub: hub, metrics: metrics, model: model}
}

// DecideAndPublish reviews a finished session's thread and, if the
// classifier judges it brief-worthy, publishes a briefing with its inbox
// notification and appends the full message to the foreground
// conversation. Subordinates and empty threads are clean no-ops.
func (s *BriefingService) DecideAndPublish(ctx context.Context, a *agent.Agent, threadID string) (*briefing.Briefing, error) {
	if !a.IsLead() {
		return nil, nil
	}
	ctx, span := adjotel.StartBriefingSpan(ctx, a.ID)
	defer span.End()

	msgs, err := s.store.ListThreadMessages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("decide briefing: %w", err)
	}
	findings := assistantFindings(msgs)
	if findings == "" {
		return nil, nil
	}

	var decision briefing.Decision
	err = s.llm.GenerateObject(ctx, llm.GenerateRequest{
		Model:        s.model,
		SystemPrompt: briefingDecisionPrompt,
		Messages:     []llm.Message{{Role: "user", Content: findings}},
	}, &decision)
	if err != nil {
		return nil, fmt.Errorf("briefing decision: %w", err)
	}
	if !decision.ShouldBrief {
		return nil, nil
	}
	if err := decision.Validate(); err != nil {
		return nil, fmt.Errorf("briefing decision: %w", err)
	}

	return s.Publish(ctx, a, threadID, decision)
}

// Publish persists a briefing with its inbox item, appends the message to
// the foreground conversation, and announces it. Used by the session-end
// classifier path and by the lead's explicit publish tool.
func (s *BriefingService) Publish(ctx context.Context, a *agent.Agent, threadID string, decision briefing.Decision) (*briefing.Briefing, error) {
	userID, err := s.resolveUser(ctx, a.Owner)
	if err != nil {
		return nil, fmt.Errorf("resolve briefing user: %w", err)
	}

	b := &briefing.Briefing{
		AgentID:  a.ID,
		UserID:   userID,
		Title:    decision.Title,
		Summary:  decision.Summary,
		Body:     decision.Message,
		ThreadID: threadID,
	}
	item := &briefing.InboxItem{
		UserID:  userID,
		Title:   decision.Title,
		Summary: decision.Summary,
	}
	if err := s.store.CreateBriefingWithInbox(ctx, b, item); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.BriefingsPublished.Add(ctx, 1)
	}

	s.appendToConversation(ctx, a.ID, decision.Message)
	s.announce(ctx, b)

	slog.Info("briefing published", "agent_id", a.ID, "briefing_id", b.ID, "title", b.Title)
	return b, nil
}

// ListInbox returns a user's inbox items, newest first.
func (s *BriefingService) ListInbox(ctx context.Context, userID string) ([]briefing.InboxItem, error) {
	return s.store.ListInboxByUser(ctx, userID)
}

// MarkRead marks one inbox item read.
func (s *BriefingService) MarkRead(ctx context.Context, id string) error {
	return s.store.MarkInboxItemRead(ctx, id)
}

func (s *BriefingService) resolveUser(ctx context.Context, ref owner.Ref) (string, error) {
	switch ref.Kind() {
	case owner.KindTeam:
		t, err := s.store.GetTeam(ctx, ref.ID())
		if err != nil {
			return "", err
		}
		return t.UserID, nil
	case owner.KindAide:
		a, err := s.store.GetAide(ctx, ref.ID())
		if err != nil {
			return "", err
		}
		return a.UserID, nil
	}
	return "", fmt.Errorf("owner %s has no user", ref)
}

// appendToConversation is best-effort: the briefing row is authoritative.
func (s *BriefingService) appendToConversation(ctx context.Context, agentID, body string) {
	conv, err := s.store.GetConversationByAgent(ctx, agentID)
	if err != nil {
		slog.Warn("briefing conversation lookup failed", "agent_id", agentID, "error", err)
		return
	}
	msg := &conversation.Message{ConversationID: conv.ID, Role: "assistant", Content: body}
	if err := s.store.AppendConversationMessage(ctx, msg); err != nil {
		slog.Warn("briefing conversation append failed", "agent_id", agentID, "error", err)
	}
}

func (s *BriefingService) announce(ctx context.Context, b *briefing.Briefing) {
	if s.queue != nil {
		payload, err := json.Marshal(messagequeue.BriefingPublishedPayload{
			BriefingID: b.ID,
			AgentID:    b.AgentID,
			UserID:     b.UserID,
			Title:      b.Title,
		})
		if err == nil {
			if err := s.queue.Publish(ctx, messagequeue.SubjectBriefingPublished, payload); err != nil {
				slog.Error("publish briefing event failed", "briefing_id", b.ID, "error", err)
			}
		}
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventBriefingPublished, ws.BriefingPublishedEvent{
			BriefingID: b.ID,
			AgentID:    b.AgentID,
			UserID:     b.UserID,
			Title:      b.Title,
			Summary:    b.Summary,
		})
	}
}

// assistantFindings concatenates the assistant-authored thread content.
func assistantFindings(msgs []thread.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.Role != thread.RoleAssistant || m.Content == "" {
			continue
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

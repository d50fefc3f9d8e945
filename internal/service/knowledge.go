package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adjutant-ai/adjutant/internal/domain"
	"github.com/adjutant-ai/adjutant/internal/domain/knowledge"
	"github.com/adjutant-ai/adjutant/internal/domain/thread"
	"github.com/adjutant-ai/adjutant/internal/port/cache"
	"github.com/adjutant-ai/adjutant/internal/port/database"
	"github.com/adjutant-ai/adjutant/internal/port/llm"
)

const knowledgeExtractionPrompt = `You distill durable professional learnings from an agent work session transcript.
Return JSON: {"items": [{"type": "fact|technique|pattern|lesson", "content": "...", "confidence": 0.0-1.0}]}.
Only include learnings worth keeping across sessions. Return {"items": []} if there are none.`

// KnowledgeService manages the durable cross-session learnings that feed
// background session context. A ristretto L1 cache fronts the per-agent
// context block and is invalidated on every write.
type KnowledgeService struct {
	store      database.Store
	llm        llm.Client
	cache      cache.Cache
	model      string
	contextTTL time.Duration
}

// NewKnowledgeService creates a new KnowledgeService.
func NewKnowledgeService(store database.Store, llmClient llm.Client, c cache.Cache, model string, contextTTL time.Duration) *KnowledgeService {
	return &KnowledgeService{store: store, llm: llmClient, cache: c, model: model, contextTTL: contextTTL}
}

// Record validates and persists one knowledge item, invalidating the
// agent's cached context block.
func (s *KnowledgeService) Record(ctx context.Context, req knowledge.CreateRequest) (*knowledge.Item, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("record knowledge: %w: %w", err, domain.ErrValidation)
	}
	item, err := s.store.CreateKnowledgeItem(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, req.AgentID)
	return item, nil
}

// ListByAgent returns all knowledge items for an agent, newest first.
func (s *KnowledgeService) ListByAgent(ctx context.Context, agentID string) ([]knowledge.Item, error) {
	return s.store.ListKnowledgeByAgent(ctx, agentID)
}

// Delete removes one knowledge item.
func (s *KnowledgeService) Delete(ctx context.Context, id, agentID string) error {
	if err := s.store.DeleteKnowledgeItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, agentID)
	return nil
}

// ContextBlock renders the agent's knowledge as a text block for the
// background system prompt. Served from cache when warm.
func (s *KnowledgeService) ContextBlock(ctx context.Context, agentID string) (string, error) {
	key := contextCacheKey(agentID)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return string(data), nil
		}
	}

	items, err := s.store.ListKnowledgeByAgent(ctx, agentID)
	if err != nil {
		return "", err
	}

	block := renderKnowledgeBlock(items)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(block), s.contextTTL); err != nil {
			slog.Debug("knowledge context cache set failed", "agent_id", agentID, "error", err)
		}
	}
	return block, nil
}

// ExtractFromThread asks the model to distill durable learnings from the
// session transcript and persists each valid one. Extraction failures are
// logged, never fatal: the session's task results are already durable.
func (s *KnowledgeService) ExtractFromThread(ctx context.Context, agentID, threadID string, msgs []thread.Message) {
	transcript := renderTranscript(msgs)
	if transcript == "" {
		return
	}

	var out struct {
		Items []struct {
			Type       string   `json:"type"`
			Content    string   `json:"content"`
			Confidence *float64 `json:"confidence"`
		} `json:"items"`
	}
	err := s.llm.GenerateObject(ctx, llm.GenerateRequest{
		Model:        s.model,
		SystemPrompt: knowledgeExtractionPrompt,
		Messages:     []llm.Message{{Role: "user", Content: transcript}},
	}, &out)
	if err != nil {
		slog.Warn("knowledge extraction failed", "agent_id", agentID, "thread_id", threadID, "error", err)
		return
	}

	for _, it := range out.Items {
		req := knowledge.CreateRequest{
			AgentID:        agentID,
			Type:           knowledge.Type(it.Type),
			Content:        it.Content,
			Confidence:     it.Confidence,
			SourceThreadID: threadID,
		}
		if _, err := s.Record(ctx, req); err != nil {
			slog.Warn("skipping extracted knowledge item", "agent_id", agentID, "error", err)
		}
	}
}

func (s *KnowledgeService) invalidate(ctx context.Context, agentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, contextCacheKey(agentID)); err != nil {
		slog.Debug("knowledge context cache invalidate failed", "agent_id", agentID, "error", err)
	}
}

func contextCacheKey(agentID string) string {
	return "knowledge:context:" + agentID
}

func renderKnowledgeBlock(items []knowledge.Item) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Accumulated knowledge:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- [%s] %s\n", it.Type, it.Content)
	}
	return b.String()
}

func renderTranscript(msgs []thread.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
		if len(m.ToolCalls) > 0 {
			var calls []struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(m.ToolCalls, &calls); err == nil {
				for _, c := range calls {
					fmt.Fprintf(&b, "[tool] %s\n", c.Name)
				}
			}
		}
	}
	return strings.TrimSpace(b.String())
}

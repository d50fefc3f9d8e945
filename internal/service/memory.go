package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/adjutant-ai/adjutant/internal/domain/memory"
	"github.com/adjutant-ai/adjutant/internal/port/database"
	"github.com/adjutant-ai/adjutant/internal/port/llm"
)

const memoryExtractionPrompt = `You extract durable facts about the user from a short exchange.
Return JSON: {"memories": [{"kind": "preference|context|profile", "content": "..."}]}.
Only extract facts worth remembering across conversations. Return {"memories": []} if there are none.`

// MemoryService manages user-facing memories: foreground context only,
// strictly partitioned from the background knowledge store.
type MemoryService struct {
	store database.Store
	llm   llm.Client
	model string
}

// NewMemoryService creates a new MemoryService.
func NewMemoryService(store database.Store, llmClient llm.Client, model string) *MemoryService {
	return &MemoryService{store: store, llm: llmClient, model: model}
}

// ListByAgent returns the memories loaded into foreground context.
func (s *MemoryService) ListByAgent(ctx context.Context, agentID string) ([]memory.Memory, error) {
	return s.store.ListMemoriesByAgent(ctx, agentID)
}

// ExtractAsync extracts memories from a (user message, acknowledgment)
// pair in a detached goroutine. The caller never waits on it and its
// failure is only logged. A fresh context bounds the work so the parent
// request's cancellation does not cut it short.
func (s *MemoryService) ExtractAsync(agentID, userMessage, ack string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.extract(ctx, agentID, userMessage, ack)
	}()
}

func (s *MemoryService) extract(ctx context.Context, agentID, userMessage, ack string) {
	var out struct {
		Memories []struct {
			Kind    string `json:"kind"`
			Content string `json:"content"`
		} `json:"memories"`
	}
	err := s.llm.GenerateObject(ctx, llm.GenerateRequest{
		Model:        s.model,
		SystemPrompt: memoryExtractionPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: userMessage},
			{Role: "assistant", Content: ack},
		},
	}, &out)
	if err != nil {
		slog.Warn("memory extraction failed", "agent_id", agentID, "error", err)
		return
	}

	for _, m := range out.Memories {
		req := memory.CreateRequest{AgentID: agentID, Content: m.Content, Kind: memory.Kind(m.Kind)}
		if err := req.Validate(); err != nil {
			slog.Warn("skipping extracted memory", "agent_id", agentID, "error", err)
			continue
		}
		if _, err := s.store.CreateMemory(ctx, req); err != nil {
			slog.Warn("store extracted memory failed", "agent_id", agentID, "error", err)
		}
	}
}

package service

import (
	"context"
	"encoding/json"

	"github.com/adjutant-ai/adjutant/internal/domain/thread"
	"github.com/adjutant-ai/adjutant/internal/port/database"
)

// ThreadService manages the per-session conversational scratchpad.
type ThreadService struct {
	store database.Store
}

// NewThreadService creates a new ThreadService.
func NewThreadService(store database.Store) *ThreadService {
	return &ThreadService{store: store}
}

// StartSession creates a fresh active thread. Prior threads are never
// resumed, even after an abnormal session end.
func (s *ThreadService) StartSession(ctx context.Context, agentID string) (*thread.Thread, error) {
	return s.store.CreateThread(ctx, agentID)
}

// Append adds a message with the next sequence number.
func (s *ThreadService) Append(ctx context.Context, threadID string, role thread.Role, content string, toolCalls json.RawMessage) (*thread.Message, error) {
	msg := &thread.Message{
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		ToolCalls: toolCalls,
	}
	if err := s.store.AppendThreadMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// BuildContext returns the ordered message history for LLM consumption.
// After compaction this is the synthetic summary plus everything newer.
func (s *ThreadService) BuildContext(ctx context.Context, threadID string) ([]thread.Message, error) {
	return s.store.ListThreadMessages(ctx, threadID)
}

// ShouldCompact reports whether the thread has grown past the threshold.
func (s *ThreadService) ShouldCompact(ctx context.Context, threadID string, threshold int) (bool, error) {
	n, err := s.store.CountThreadMessages(ctx, threadID)
	if err != nil {
		return false, err
	}
	return n > threshold, nil
}

// CompactWithSummary replaces all messages except the most recent
// keepRecent with a single system summary, keeping sequence numbers
// gapless. Compaction does not end the session; appending continues.
func (s *ThreadService) CompactWithSummary(ctx context.Context, threadID, summary string, keepRecent int) error {
	n, err := s.store.CountThreadMessages(ctx, threadID)
	if err != nil {
		return err
	}
	cutoff := n - keepRecent
	if cutoff < 1 {
		return nil // nothing old enough to fold away
	}
	return s.store.CompactThread(ctx, threadID, cutoff, summary)
}

// EndSession marks the thread completed.
func (s *ThreadService) EndSession(ctx context.Context, threadID string) error {
	return s.store.CompleteThread(ctx, threadID)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/adjutant-ai/adjutant/internal/domain/knowledge"
)

// --- Knowledge items ---

func (s *Store) CreateKnowledgeItem(ctx context.Context, req knowledge.CreateRequest) (*knowledge.Item, error) {
	var (
		item     knowledge.Item
		threadID *string
	)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO knowledge_items (agent_id, type, content, confidence, source_thread_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, agent_id, type, content, confidence, source_thread_id, created_at`,
		req.AgentID, req.Type, req.Content, req.Confidence, nullIfEmpty(req.SourceThreadID),
	).Scan(&item.ID, &item.AgentID, &item.Type, &item.Content, &item.Confidence, &threadID, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create knowledge item: %w", err)
	}
	item.SourceThreadID = strOrEmpty(threadID)
	return &item, nil
}

func (s *Store) ListKnowledgeByAgent(ctx context.Context, agentID string) ([]knowledge.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, agent_id, type, content, confidence, source_thread_id, created_at
		 FROM knowledge_items WHERE agent_id = $1 ORDER BY created_at DESC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("list knowledge for agent %s: %w", agentID, err)
	}
	defer rows.Close()

	var items []knowledge.Item
	for rows.Next() {
		var (
			item     knowledge.Item
			threadID *string
		)
		if err := rows.Scan(&item.ID, &item.AgentID, &item.Type, &item.Content,
			&item.Confidence, &threadID, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.SourceThreadID = strOrEmpty(threadID)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) DeleteKnowledgeItem(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM knowledge_items WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete knowledge item %s", id)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/adjutant-ai/adjutant/internal/domain/briefing"
)

// --- Briefings and inbox ---

// CreateBriefingWithInbox persists the briefing and its inbox item in one
// transaction. On success both structs carry their generated ids.
func (s *Store) CreateBriefingWithInbox(ctx context.Context, b *briefing.Briefing, item *briefing.InboxItem) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create briefing: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	err = tx.QueryRow(ctx,
		`INSERT INTO briefings (agent_id, user_id, title, summary, body, thread_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		b.AgentID, b.UserID, b.Title, b.Summary, b.Body, nullIfEmpty(b.ThreadID),
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create briefing: %w", err)
	}

	item.BriefingID = b.ID
	err = tx.QueryRow(ctx,
		`INSERT INTO inbox_items (user_id, briefing_id, title, summary)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, read, created_at`,
		item.UserID, item.BriefingID, item.Title, item.Summary,
	).Scan(&item.ID, &item.Read, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("create inbox item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("create briefing: commit: %w", err)
	}
	return nil
}

func (s *Store) ListInboxByUser(ctx context.Context, userID string) ([]briefing.InboxItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, briefing_id, title, summary, read, created_at
		 FROM inbox_items WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list inbox for user %s: %w", userID, err)
	}
	defer rows.Close()

	var items []briefing.InboxItem
	for rows.Next() {
		var item briefing.InboxItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.BriefingID, &item.Title,
			&item.Summary, &item.Read, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) MarkInboxItemRead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE inbox_items SET read = TRUE WHERE id = $1`, id)
	return execExpectOne(tag, err, "mark inbox item %s read", id)
}

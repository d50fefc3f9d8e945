package postgres

import (
	"context"
	"fmt"

	"github.com/adjutant-ai/adjutant/internal/domain"
	"github.com/adjutant-ai/adjutant/internal/domain/thread"
)

// --- Threads ---

func (s *Store) CreateThread(ctx context.Context, agentID string) (*thread.Thread, error) {
	var t thread.Thread
	err := s.pool.QueryRow(ctx,
		`INSERT INTO threads (agent_id)
		 VALUES ($1)
		 RETURNING id, agent_id, status, created_at, completed_at`,
		agentID,
	).Scan(&t.ID, &t.AgentID, &t.Status, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return &t, nil
}

func (s *Store) GetThread(ctx context.Context, id string) (*thread.Thread, error) {
	var t thread.Thread
	err := s.pool.QueryRow(ctx,
		`SELECT id, agent_id, status, created_at, completed_at
		 FROM threads WHERE id = $1`, id,
	).Scan(&t.ID, &t.AgentID, &t.Status, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get thread %s", id)
	}
	return &t, nil
}

// AppendThreadMessage inserts the message at the next sequence number.
// Threads are written by at most one work session, so the MAX+1
// subquery does not race.
func (s *Store) AppendThreadMessage(ctx context.Context, msg *thread.Message) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO thread_messages (thread_id, role, content, tool_calls, sequence_number)
		 SELECT $1, $2, $3, $4, COALESCE(MAX(sequence_number), 0) + 1
		 FROM thread_messages WHERE thread_id = $1
		 RETURNING id, sequence_number`,
		msg.ThreadID, msg.Role, msg.Content, msg.ToolCalls,
	).Scan(&msg.ID, &msg.SequenceNumber)
	if err != nil {
		return fmt.Errorf("append message to thread %s: %w", msg.ThreadID, err)
	}
	return nil
}

func (s *Store) ListThreadMessages(ctx context.Context, threadID string) ([]thread.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, thread_id, role, content, tool_calls, sequence_number
		 FROM thread_messages WHERE thread_id = $1 ORDER BY sequence_number`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages for thread %s: %w", threadID, err)
	}
	defer rows.Close()

	var msgs []thread.Message
	for rows.Next() {
		var m thread.Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Content, &m.ToolCalls, &m.SequenceNumber); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *Store) CountThreadMessages(ctx context.Context, threadID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM thread_messages WHERE thread_id = $1`, threadID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages for thread %s: %w", threadID, err)
	}
	return n, nil
}

// CompactThread replaces the message prefix up to cutoffSeq with a single
// system summary and renumbers the survivors so sequence numbers remain
// gapless from 1. The whole operation is one transaction.
//
// Renumbering happens in two steps to respect the unique constraint on
// (thread_id, sequence_number): surviving sequence numbers are first
// negated (negatives collide with nothing), then rewritten to their
// final positions starting at 2, leaving 1 for the summary.
func (s *Store) CompactThread(ctx context.Context, threadID string, cutoffSeq int, summary string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("compact thread %s: begin: %w", threadID, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var status thread.Status
	err = tx.QueryRow(ctx,
		`SELECT status FROM threads WHERE id = $1 FOR UPDATE`, threadID).Scan(&status)
	if err != nil {
		return notFoundWrap(err, "compact thread %s", threadID)
	}
	if status == thread.StatusCompleted {
		return fmt.Errorf("compact thread %s: thread is completed: %w", threadID, domain.ErrConflict)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM thread_messages WHERE thread_id = $1 AND sequence_number <= $2`,
		threadID, cutoffSeq); err != nil {
		return fmt.Errorf("compact thread %s: delete prefix: %w", threadID, err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE thread_messages SET sequence_number = -sequence_number WHERE thread_id = $1`,
		threadID); err != nil {
		return fmt.Errorf("compact thread %s: negate: %w", threadID, err)
	}

	// Negated values in descending order recover the original ascending order.
	if _, err := tx.Exec(ctx,
		`UPDATE thread_messages m SET sequence_number = r.rn + 1
		 FROM (
		   SELECT id, ROW_NUMBER() OVER (ORDER BY sequence_number DESC) AS rn
		   FROM thread_messages WHERE thread_id = $1
		 ) r
		 WHERE m.id = r.id`, threadID); err != nil {
		return fmt.Errorf("compact thread %s: renumber: %w", threadID, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO thread_messages (thread_id, role, content, sequence_number)
		 VALUES ($1, $2, $3, 1)`,
		threadID, thread.RoleSystem, summary); err != nil {
		return fmt.Errorf("compact thread %s: insert summary: %w", threadID, err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE threads SET status = $2 WHERE id = $1`,
		threadID, thread.StatusCompacted); err != nil {
		return fmt.Errorf("compact thread %s: mark compacted: %w", threadID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("compact thread %s: commit: %w", threadID, err)
	}
	return nil
}

func (s *Store) CompleteThread(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE threads SET status = $2, completed_at = now() WHERE id = $1`,
		id, thread.StatusCompleted)
	return execExpectOne(tag, err, "complete thread %s", id)
}

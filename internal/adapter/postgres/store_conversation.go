package postgres

import (
	"context"
	"fmt"

	"github.com/adjutant-ai/adjutant/internal/domain/conversation"
	"github.com/adjutant-ai/adjutant/internal/domain/memory"
)

// --- Conversations ---

func (s *Store) CreateConversation(ctx context.Context, agentID string) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (agent_id)
		 VALUES ($1)
		 RETURNING id, agent_id, created_at`,
		agentID,
	).Scan(&c.ID, &c.AgentID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &c, nil
}

func (s *Store) GetConversationByAgent(ctx context.Context, agentID string) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, agent_id, created_at
		 FROM conversations WHERE agent_id = $1`, agentID,
	).Scan(&c.ID, &c.AgentID, &c.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get conversation for agent %s", agentID)
	}
	return &c, nil
}

func (s *Store) AppendConversationMessage(ctx context.Context, msg *conversation.Message) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversation_messages (conversation_id, role, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		msg.ConversationID, msg.Role, msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("append message to conversation %s: %w", msg.ConversationID, err)
	}
	return nil
}

func (s *Store) ListConversationMessages(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, created_at
		 FROM conversation_messages
		 WHERE conversation_id = $1 ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var msgs []conversation.Message
	for rows.Next() {
		var m conversation.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// --- Memories ---

func (s *Store) CreateMemory(ctx context.Context, req memory.CreateRequest) (*memory.Memory, error) {
	var m memory.Memory
	err := s.pool.QueryRow(ctx,
		`INSERT INTO user_memories (agent_id, content, kind)
		 VALUES ($1, $2, $3)
		 RETURNING id, agent_id, content, kind, created_at`,
		req.AgentID, req.Content, req.Kind,
	).Scan(&m.ID, &m.AgentID, &m.Content, &m.Kind, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}
	return &m, nil
}

func (s *Store) ListMemoriesByAgent(ctx context.Context, agentID string) ([]memory.Memory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, agent_id, content, kind, created_at
		 FROM user_memories WHERE agent_id = $1 ORDER BY created_at DESC`, agentID)
	if err != nil {
		return nil, fmt.Errorf("list memories for agent %s: %w", agentID, err)
	}
	defer rows.Close()

	var memories []memory.Memory
	for rows.Next() {
		var m memory.Memory
		if err := rows.Scan(&m.ID, &m.AgentID, &m.Content, &m.Kind, &m.CreatedAt); err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

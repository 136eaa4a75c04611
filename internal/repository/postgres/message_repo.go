package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freeeve/hexciv/internal/model"
)

// MessageRepo handles chat message database operations.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo creates a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create inserts a new message.
func (r *MessageRepo) Create(ctx context.Context, sessionID, playerID, content string) (*model.ChatMessage, error) {
	var m model.ChatMessage
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (session_id, player_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, session_id, player_id, content, created_at`,
		sessionID, playerID, content,
	).StructScan(&m)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &m, nil
}

// ListBySession returns the latest messages of a session, oldest first.
func (r *MessageRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var messages []model.ChatMessage
	err := r.db.SelectContext(ctx, &messages,
		`SELECT id, session_id, player_id, content, created_at FROM (
		   SELECT id, session_id, player_id, content, created_at
		   FROM messages WHERE session_id = $1
		   ORDER BY created_at DESC LIMIT $2
		 ) recent ORDER BY created_at`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

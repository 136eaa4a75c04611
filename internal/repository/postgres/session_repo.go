package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freeeve/hexciv/internal/model"
)

const sessionColumns = `id, name, map_type, speed, width, height, seed, difficulty,
	current_turn, current_player, status, map_hash, created_at, updated_at`

// SessionRepo handles session database operations.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo creates a SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// FindByID returns a session by ID, or nil when it does not exist.
func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	err := r.db.GetContext(ctx, &s, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

// List returns the most recently updated sessions.
func (r *SessionRepo) List(ctx context.Context) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.SelectContext(ctx, &sessions,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY updated_at DESC LIMIT 50`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// SetFinished marks a session as finished.
func (r *SessionRepo) SetFinished(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'finished', updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("set session finished: %w", err)
	}
	return nil
}

func insertSession(ctx context.Context, tx *sqlx.Tx, s *model.Session) error {
	err := tx.QueryRowxContext(ctx,
		`INSERT INTO sessions (id, name, map_type, speed, width, height, seed, difficulty, current_turn, current_player, status, map_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at, updated_at`,
		s.ID, s.Name, s.MapType, s.Speed, s.Width, s.Height, s.Seed, s.Difficulty,
		s.CurrentTurn, s.CurrentPlayer, s.Status, s.MapHash,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/freeeve/hexciv/internal/model"
)

// TurnLogRepo stores resolved turn summaries.
type TurnLogRepo struct {
	db *sqlx.DB
}

// NewTurnLogRepo creates a TurnLogRepo.
func NewTurnLogRepo(db *sqlx.DB) *TurnLogRepo {
	return &TurnLogRepo{db: db}
}

// Append records the result of a resolved turn. A turn logged twice keeps
// the first result.
func (r *TurnLogRepo) Append(ctx context.Context, sessionID, playerID string, turn int, result json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO turn_logs (session_id, player_id, turn, result) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id, turn) DO NOTHING`,
		sessionID, playerID, turn, string(result))
	if err != nil {
		return fmt.Errorf("append turn log: %w", err)
	}
	return nil
}

// ListBySession returns all turn logs of a session in turn order.
func (r *TurnLogRepo) ListBySession(ctx context.Context, sessionID string) ([]model.TurnLog, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT id, session_id, turn, player_id, result, resolved_at
		 FROM turn_logs WHERE session_id = $1 ORDER BY turn`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turn logs: %w", err)
	}
	defer rows.Close()

	var logs []model.TurnLog
	for rows.Next() {
		var l model.TurnLog
		var raw []byte
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Turn, &l.PlayerID, &raw, &l.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan turn log: %w", err)
		}
		l.Result = json.RawMessage(raw)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

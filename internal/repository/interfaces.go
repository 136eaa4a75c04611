package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/freeeve/hexciv/internal/model"
	"github.com/freeeve/hexciv/pkg/civ"
)

// ErrStaleTurn is returned by SaveWorld and CommitTurn when the session turn
// moved on since the world was loaded.
var ErrStaleTurn = errors.New("session turn changed since load")

// SessionRepository defines session data operations.
type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	List(ctx context.Context) ([]model.Session, error)
	SetFinished(ctx context.Context, id string) error
}

// WorldRepository persists the full world of a session. CreateWorld and
// CommitTurn are each one transaction.
type WorldRepository interface {
	CreateWorld(ctx context.Context, s *model.Session, w *civ.World) error
	LoadWorld(ctx context.Context, sessionID string) (*civ.World, error)
	// SaveWorld writes dirty tiles, players, cities and units without
	// touching the turn counter. It returns ErrStaleTurn when w.Turn is not
	// the stored turn.
	SaveWorld(ctx context.Context, w *civ.World) error
	// CommitTurn saves w and moves the session from expectedTurn to w.Turn.
	// It returns ErrStaleTurn when the stored turn is not expectedTurn.
	CommitTurn(ctx context.Context, w *civ.World, expectedTurn int, finished bool) error
}

// MessageRepository defines chat message data operations.
type MessageRepository interface {
	Create(ctx context.Context, sessionID, playerID, content string) (*model.ChatMessage, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error)
}

// TurnLogRepository stores resolved turn summaries.
type TurnLogRepository interface {
	Append(ctx context.Context, sessionID, playerID string, turn int, result json.RawMessage) error
	ListBySession(ctx context.Context, sessionID string) ([]model.TurnLog, error)
}

// WorldCache holds live world snapshots and the last turn result (Redis).
type WorldCache interface {
	SetWorld(ctx context.Context, w *civ.World) error
	GetWorld(ctx context.Context, sessionID string) (*civ.World, error)
	InvalidateWorld(ctx context.Context, sessionID string) error
	SetTurnResult(ctx context.Context, sessionID string, result json.RawMessage) error
	GetTurnResult(ctx context.Context, sessionID string) (json.RawMessage, error)
}

// TurnLock is a cross-process mutex around turn resolution of one session.
type TurnLock interface {
	// AcquireTurnLock returns a token and true when the lock was taken.
	AcquireTurnLock(ctx context.Context, sessionID string, ttl time.Duration) (string, bool, error)
	ReleaseTurnLock(ctx context.Context, sessionID, token string) error
}

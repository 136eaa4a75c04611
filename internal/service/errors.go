package service

import (
	"errors"
	"fmt"

	"github.com/freeeve/hexciv/pkg/civ"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFinished = errors.New("session is finished")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrNotHumanPlayer  = errors.New("player is controlled by the AI")
	ErrCityNotFound    = errors.New("city not found")
	ErrUnitNotFound    = errors.New("unit not found")
	ErrInvalidSetup    = errors.New("invalid session setup")
	ErrEmptyMessage    = errors.New("message content is empty")
	ErrMessageTooLong  = errors.New("message content is too long")

	// ErrTurnInProgress is returned when another EndTurn holds the session.
	ErrTurnInProgress = fmt.Errorf("session %w", civ.ErrConcurrency)
)

// IsNotFound reports whether err means a missing session, player, city,
// unit or catalog entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrCityNotFound) ||
		errors.Is(err, ErrUnitNotFound) ||
		civ.IsNotFound(err)
}

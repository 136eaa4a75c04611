package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexciv/internal/repository"
	"github.com/freeeve/hexciv/pkg/civ"
)

// WorldStore loads and saves session worlds, reading through the cache.
// Every mutation of a session world runs under that session's mutex.
type WorldStore struct {
	worlds repository.WorldRepository
	cache  repository.WorldCache // optional

	sessionMu sync.Map
}

// NewWorldStore creates a WorldStore. cache may be nil.
func NewWorldStore(worlds repository.WorldRepository, cache repository.WorldCache) *WorldStore {
	return &WorldStore{worlds: worlds, cache: cache}
}

func (s *WorldStore) mutex(sessionID string) *sync.Mutex {
	v, _ := s.sessionMu.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Load returns the world of a session. A cached snapshot is preferred; a
// cache miss is filled from the repository.
func (s *WorldStore) Load(ctx context.Context, sessionID string) (*civ.World, error) {
	if s.cache != nil {
		w, err := s.cache.GetWorld(ctx, sessionID)
		if err != nil {
			log.Warn().Err(err).Str("sessionId", sessionID).Msg("World cache read failed, loading from store")
		} else if w != nil {
			return w, nil
		}
	}
	w, err := s.worlds.LoadWorld(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	if w == nil {
		return nil, ErrSessionNotFound
	}
	s.cacheWorld(ctx, w)
	return w, nil
}

// Update loads the world under the session mutex, applies fn and saves the
// result. Nothing is saved when fn fails. When another process committed a
// turn since the load, the cached world is dropped and ErrTurnInProgress is
// returned.
func (s *WorldStore) Update(ctx context.Context, sessionID string, fn func(w *civ.World) error) error {
	mu := s.mutex(sessionID)
	mu.Lock()
	defer mu.Unlock()

	w, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	if err := s.worlds.SaveWorld(ctx, w); err != nil {
		s.invalidate(ctx, sessionID)
		if errors.Is(err, repository.ErrStaleTurn) {
			return ErrTurnInProgress
		}
		return fmt.Errorf("save world: %w", err)
	}
	s.cacheWorld(ctx, w)
	return nil
}

func (s *WorldStore) cacheWorld(ctx context.Context, w *civ.World) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetWorld(ctx, w); err != nil {
		log.Warn().Err(err).Str("sessionId", w.SessionID).Msg("Failed to cache world")
		s.invalidate(ctx, w.SessionID)
	}
}

func (s *WorldStore) invalidate(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateWorld(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("Failed to invalidate cached world")
	}
}

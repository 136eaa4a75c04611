package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexciv/internal/bot"
	"github.com/freeeve/hexciv/internal/logger"
	"github.com/freeeve/hexciv/internal/model"
	"github.com/freeeve/hexciv/internal/repository"
	"github.com/freeeve/hexciv/pkg/civ"
)

// DefaultTurnLockTTL bounds how long a crashed resolver can hold the
// cross-process turn lock.
const DefaultTurnLockTTL = 30 * time.Second

// TurnStatus summarizes the current turn of a session.
type TurnStatus struct {
	SessionID  string          `json:"session_id"`
	Turn       int             `json:"turn"`
	Year       int             `json:"year"`
	YearLabel  string          `json:"year_label"`
	Status     string          `json:"status"`
	PhaseInfo  civ.PhaseInfo   `json:"phase_info"`
	LastResult json.RawMessage `json:"last_result,omitempty"`
}

// TurnService resolves turns: it locks the session, runs the engine for the
// ending player and every AI, commits atomically and broadcasts the result.
type TurnService struct {
	sessions    repository.SessionRepository
	store       *WorldStore
	turnLogs    repository.TurnLogRepository // optional
	results     repository.WorldCache        // optional
	lock        repository.TurnLock          // optional
	broadcaster Broadcaster
	catalog     *civ.Catalog
	lockTTL     time.Duration

	// sessionLocks rejects a second EndTurn for a session while one is
	// running in this process.
	sessionLocks sync.Map

	strategyMu sync.Mutex
	strategies map[string]civ.Decider
	// StrategyFor picks the AI decision function for a difficulty.
	StrategyFor func(difficulty string) civ.Decider
}

// NewTurnService creates a TurnService. turnLogs, results and lock may be nil.
func NewTurnService(
	sessions repository.SessionRepository,
	store *WorldStore,
	turnLogs repository.TurnLogRepository,
	results repository.WorldCache,
	lock repository.TurnLock,
	broadcaster Broadcaster,
	cat *civ.Catalog,
) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	s := &TurnService{
		sessions:    sessions,
		store:       store,
		turnLogs:    turnLogs,
		results:     results,
		lock:        lock,
		broadcaster: broadcaster,
		catalog:     cat,
		lockTTL:     DefaultTurnLockTTL,
		strategies:  make(map[string]civ.Decider),
	}
	s.StrategyFor = func(difficulty string) civ.Decider {
		return bot.StrategyForDifficulty(difficulty, cat)
	}
	return s
}

// SetLockTTL overrides the cross-process turn lock TTL.
func (s *TurnService) SetLockTTL(ttl time.Duration) {
	if ttl > 0 {
		s.lockTTL = ttl
	}
}

func (s *TurnService) sessionLock(sessionID string) *sync.Mutex {
	v, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *TurnService) decider(difficulty string) civ.Decider {
	s.strategyMu.Lock()
	defer s.strategyMu.Unlock()
	if d, ok := s.strategies[difficulty]; ok {
		return d
	}
	d := s.StrategyFor(difficulty)
	s.strategies[difficulty] = d
	return d
}

// turnSeed derives the per-turn random seed so a replay of the same turn
// draws the same AI choices and events.
func turnSeed(sessionSeed int64, turn int) int64 {
	return sessionSeed*1_000_003 + int64(turn)
}

// EndTurn ends the current turn of playerID. It returns ErrTurnInProgress
// when another resolution of the same session is running, here or in
// another process, and persists nothing unless the whole turn resolves.
func (s *TurnService) EndTurn(ctx context.Context, sessionID, playerID string) (*civ.TurnResult, error) {
	mu := s.sessionLock(sessionID)
	if !mu.TryLock() {
		return nil, ErrTurnInProgress
	}
	defer mu.Unlock()

	if s.lock != nil {
		token, ok, err := s.lock.AcquireTurnLock(ctx, sessionID, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire turn lock: %w", err)
		}
		if !ok {
			return nil, ErrTurnInProgress
		}
		defer func() {
			if err := s.lock.ReleaseTurnLock(context.WithoutCancel(ctx), sessionID, token); err != nil {
				l := logger.ForSession(ctx, sessionID)
				l.Warn().Err(err).Msg("Failed to release turn lock")
			}
		}()
	}

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.Status == model.StatusFinished {
		return nil, ErrSessionFinished
	}

	storeMu := s.store.mutex(sessionID)
	storeMu.Lock()
	defer storeMu.Unlock()

	w, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p := w.Player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if p.IsAI {
		return nil, ErrNotHumanPlayer
	}

	tlog := logger.Component("turn").With().
		Str("requestId", logger.RequestIDFromContext(ctx)).
		Str("sessionId", sessionID).Int("turn", w.Turn).Logger()
	start := time.Now()
	expected := w.Turn
	res, err := civ.ResolveTurn(w, civ.TurnInput{
		PlayerID: playerID,
		Speed:    civ.ParseSpeed(sess.Speed),
		Rng:      rand.New(rand.NewSource(turnSeed(sess.Seed, expected))),
		AI:       s.decider(sess.Difficulty),
		OnStage: func(stage civ.TurnStage) {
			tlog.Debug().Str("stage", string(stage)).Msg("Turn stage complete")
		},
	}, s.catalog)
	if err != nil {
		s.store.invalidate(ctx, sessionID)
		return nil, fmt.Errorf("resolve turn: %w", err)
	}
	for _, warn := range res.Warnings {
		tlog.Warn().Str("subject", warn.Subject).Str("reason", warn.Message).Msg("Turn step skipped")
	}

	if err := s.store.worlds.CommitTurn(ctx, w, expected, res.GameOver); err != nil {
		s.store.invalidate(ctx, sessionID)
		if errors.Is(err, repository.ErrStaleTurn) {
			return nil, ErrTurnInProgress
		}
		return nil, fmt.Errorf("commit turn: %w", err)
	}
	s.store.cacheWorld(ctx, w)
	s.record(ctx, sessionID, playerID, res)

	tlog.Info().Int("nextTurn", res.NextTurn).Int("aiActions", len(res.AIActions)).
		Int("events", len(res.Events)).Int("warnings", len(res.Warnings)).
		Bool("gameOver", res.GameOver).Dur("elapsed", time.Since(start)).
		Msg("Turn resolved")

	s.broadcaster.BroadcastSessionEvent(sessionID, EventTurnResolved, res)
	return res, nil
}

// record stores the turn log and caches the result. Failures are logged;
// the turn itself is already committed.
func (s *TurnService) record(ctx context.Context, sessionID, playerID string, res *civ.TurnResult) {
	l := logger.ForSession(ctx, sessionID)
	data, err := json.Marshal(res)
	if err != nil {
		l.Error().Err(err).Msg("Failed to encode turn result")
		return
	}
	if s.turnLogs != nil {
		if err := s.turnLogs.Append(ctx, sessionID, playerID, res.Turn, data); err != nil {
			l.Warn().Err(err).Msg("Failed to append turn log")
		}
	}
	if s.results != nil {
		if err := s.results.SetTurnResult(ctx, sessionID, data); err != nil {
			l.Warn().Err(err).Msg("Failed to cache turn result")
		}
	}
}

// Status returns the current turn, phase and the last turn result.
func (s *TurnService) Status(ctx context.Context, sessionID string) (*TurnStatus, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	speed := civ.ParseSpeed(sess.Speed)
	rng := rand.New(rand.NewSource(turnSeed(sess.Seed, sess.CurrentTurn)))
	st := &TurnStatus{
		SessionID: sess.ID,
		Turn:      sess.CurrentTurn,
		Year:      civ.Year(sess.CurrentTurn, speed),
		YearLabel: civ.FormatYear(civ.Year(sess.CurrentTurn, speed)),
		Status:    sess.Status,
		PhaseInfo: civ.TurnInfo(speed, sess.CurrentTurn, rng, s.catalog),
	}
	if s.results != nil {
		last, err := s.results.GetTurnResult(ctx, sessionID)
		if err != nil {
			log.Warn().Err(err).Str("sessionId", sessionID).Msg("Failed to read cached turn result")
		}
		st.LastResult = last
	}
	if st.LastResult == nil && s.turnLogs != nil {
		logs, err := s.turnLogs.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if len(logs) > 0 {
			st.LastResult = logs[len(logs)-1].Result
		}
	}
	return st, nil
}

package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexciv/internal/model"
	"github.com/freeeve/hexciv/internal/repository"
	"github.com/freeeve/hexciv/pkg/civ"
)

// Map size bounds accepted for new sessions.
const (
	MinMapSize = 10
	MaxMapSize = 128
)

// CreateSessionInput describes a new session. Zero values take defaults.
type CreateSessionInput struct {
	Name           string
	MapType        string
	Speed          string
	Width          int
	Height         int
	Seed           *int64
	Difficulty     string
	PlayerName     string
	Civilization   string
	AICivs         []string
	PlayerQuadrant string
}

// CreatedSession is the result of CreateSession.
type CreatedSession struct {
	Session  *model.Session `json:"session"`
	PlayerID string         `json:"player_id"`
	World    *civ.World     `json:"-"`
}

// SessionService handles session lifecycle operations.
type SessionService struct {
	sessions          repository.SessionRepository
	worlds            repository.WorldRepository
	store             *WorldStore
	catalog           *civ.Catalog
	defaultDifficulty string
}

// NewSessionService creates a SessionService.
func NewSessionService(sessions repository.SessionRepository, worlds repository.WorldRepository, store *WorldStore, cat *civ.Catalog, defaultDifficulty string) *SessionService {
	if defaultDifficulty == "" {
		defaultDifficulty = "easy"
	}
	return &SessionService{
		sessions:          sessions,
		worlds:            worlds,
		store:             store,
		catalog:           cat,
		defaultDifficulty: defaultDifficulty,
	}
}

// CreateSession generates the map, places the civilizations and stores the
// new world with the human player in seat 0.
func (s *SessionService) CreateSession(ctx context.Context, in CreateSessionInput) (*CreatedSession, error) {
	if err := validateSetup(&in); err != nil {
		return nil, err
	}
	seed := time.Now().UnixNano()
	if in.Seed != nil {
		seed = *in.Seed
	}
	if in.Difficulty == "" {
		in.Difficulty = s.defaultDifficulty
	}

	id := civ.NewID()
	w, m, err := civ.SetupWorld(civ.SetupOptions{
		SessionID:      id,
		Width:          in.Width,
		Height:         in.Height,
		MapType:        civ.MapType(in.MapType),
		Seed:           seed,
		PlayerName:     in.PlayerName,
		Civilization:   in.Civilization,
		AICivs:         in.AICivs,
		PlayerQuadrant: civ.Quadrant(in.PlayerQuadrant),
	}, s.catalog)
	if err != nil {
		return nil, err
	}

	name := in.Name
	if name == "" {
		name = fmt.Sprintf("%s game %d", w.Players[0].Civilization, rand.Intn(10000))
	}
	sess := &model.Session{
		ID:            id,
		Name:          name,
		MapType:       string(m.MapType),
		Speed:         string(civ.ParseSpeed(in.Speed)),
		Width:         m.Width,
		Height:        m.Height,
		Seed:          seed,
		Difficulty:    in.Difficulty,
		CurrentTurn:   w.Turn,
		CurrentPlayer: w.Players[0].ID,
		Status:        model.StatusOngoing,
		MapHash:       m.Hash,
	}
	if err := s.worlds.CreateWorld(ctx, sess, w); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.store.cacheWorld(ctx, w)

	log.Info().Str("sessionId", id).Str("mapType", sess.MapType).
		Int("width", sess.Width).Int("height", sess.Height).Int64("seed", seed).
		Int("players", len(w.Players)).Str("mapHash", m.Hash).
		Msg("Session created")
	return &CreatedSession{Session: sess, PlayerID: sess.CurrentPlayer, World: w}, nil
}

func validateSetup(in *CreateSessionInput) error {
	if in.Width == 0 {
		in.Width = civ.DefaultWidth
	}
	if in.Height == 0 {
		in.Height = civ.DefaultHeight
	}
	if in.Width < MinMapSize || in.Width > MaxMapSize || in.Height < MinMapSize || in.Height > MaxMapSize {
		return fmt.Errorf("%w: map size must be between %d and %d", ErrInvalidSetup, MinMapSize, MaxMapSize)
	}
	if in.MapType == "" {
		in.MapType = string(civ.MapContinents)
	}
	switch civ.MapType(in.MapType) {
	case civ.MapContinents, civ.MapPangaea, civ.MapArchipelago, civ.MapSmallContinents:
	default:
		return fmt.Errorf("%w: unknown map type %q", ErrInvalidSetup, in.MapType)
	}
	switch civ.Quadrant(in.PlayerQuadrant) {
	case civ.QuadrantAny, civ.QuadrantNorthWest, civ.QuadrantNorthEast, civ.QuadrantSouthWest, civ.QuadrantSouthEast:
	default:
		return fmt.Errorf("%w: unknown quadrant %q", ErrInvalidSetup, in.PlayerQuadrant)
	}
	if len(in.AICivs) > civ.MaxAICivilizations {
		return fmt.Errorf("%w: at most %d AI civilizations", ErrInvalidSetup, civ.MaxAICivilizations)
	}
	return nil
}

// GetSession returns a session by ID.
func (s *SessionService) GetSession(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// ListSessions returns recent sessions.
func (s *SessionService) ListSessions(ctx context.Context) ([]model.Session, error) {
	return s.sessions.List(ctx)
}

// World returns the current world of a session.
func (s *SessionService) World(ctx context.Context, id string) (*civ.World, error) {
	return s.store.Load(ctx, id)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/freeeve/hexciv/internal/model"
	"github.com/freeeve/hexciv/internal/repository"
	"github.com/freeeve/hexciv/pkg/civ"
)

type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *mockSessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) List(_ context.Context) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Session
	for _, s := range m.sessions {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSessionRepo) SetFinished(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Status = model.StatusFinished
	}
	return nil
}

// mockWorldRepo keeps cloned worlds so callers never share state with the
// store, like a real database.
type mockWorldRepo struct {
	sessions *mockSessionRepo

	mu     sync.Mutex
	worlds map[string]*civ.World
	saves  int
	// commitGate, when set, blocks CommitTurn until it is closed.
	commitGate chan struct{}
	failCommit error
	// beforeSave, when set, runs once at the start of the next SaveWorld.
	beforeSave func()
}

func newMockWorldRepo(sessions *mockSessionRepo) *mockWorldRepo {
	return &mockWorldRepo{sessions: sessions, worlds: make(map[string]*civ.World)}
}

func (m *mockWorldRepo) CreateWorld(_ context.Context, s *model.Session, w *civ.World) error {
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.sessions.mu.Lock()
	cp := *s
	m.sessions.sessions[s.ID] = &cp
	m.sessions.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[w.SessionID] = w.Clone()
	return nil
}

func (m *mockWorldRepo) LoadWorld(_ context.Context, sessionID string) (*civ.World, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.worlds[sessionID]
	if !ok {
		return nil, nil
	}
	return w.Clone(), nil
}

func (m *mockWorldRepo) SaveWorld(_ context.Context, w *civ.World) error {
	if m.beforeSave != nil {
		hook := m.beforeSave
		m.beforeSave = nil
		hook()
	}
	m.sessions.mu.Lock()
	defer m.sessions.mu.Unlock()
	if s, ok := m.sessions.sessions[w.SessionID]; ok && s.CurrentTurn != w.Turn {
		return repository.ErrStaleTurn
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[w.SessionID] = w.Clone()
	m.saves++
	return nil
}

func (m *mockWorldRepo) CommitTurn(_ context.Context, w *civ.World, expectedTurn int, finished bool) error {
	if m.commitGate != nil {
		<-m.commitGate
	}
	if m.failCommit != nil {
		return m.failCommit
	}
	m.sessions.mu.Lock()
	defer m.sessions.mu.Unlock()
	s, ok := m.sessions.sessions[w.SessionID]
	if !ok || s.CurrentTurn != expectedTurn {
		return repository.ErrStaleTurn
	}
	s.CurrentTurn = w.Turn
	if finished {
		s.Status = model.StatusFinished
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[w.SessionID] = w.Clone()
	return nil
}

func (m *mockWorldRepo) stored(sessionID string) *civ.World {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.worlds[sessionID]
}

type mockMessageRepo struct {
	mu       sync.Mutex
	messages []model.ChatMessage
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{}
}

func (m *mockMessageRepo) Create(_ context.Context, sessionID, playerID, content string) (*model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := model.ChatMessage{
		ID:        fmt.Sprintf("msg-%d", len(m.messages)+1),
		SessionID: sessionID,
		PlayerID:  playerID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *mockMessageRepo) ListBySession(_ context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ChatMessage
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			result = append(result, msg)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

type mockTurnLogRepo struct {
	mu   sync.Mutex
	logs []model.TurnLog
}

func newMockTurnLogRepo() *mockTurnLogRepo {
	return &mockTurnLogRepo{}
}

func (m *mockTurnLogRepo) Append(_ context.Context, sessionID, playerID string, turn int, result json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.SessionID == sessionID && l.Turn == turn {
			return nil
		}
	}
	m.logs = append(m.logs, model.TurnLog{
		ID:         fmt.Sprintf("log-%d", len(m.logs)+1),
		SessionID:  sessionID,
		Turn:       turn,
		PlayerID:   playerID,
		Result:     result,
		ResolvedAt: time.Now(),
	})
	return nil
}

func (m *mockTurnLogRepo) ListBySession(_ context.Context, sessionID string) ([]model.TurnLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.TurnLog
	for _, l := range m.logs {
		if l.SessionID == sessionID {
			result = append(result, l)
		}
	}
	return result, nil
}

type mockCache struct {
	mu      sync.Mutex
	worlds  map[string]*civ.World
	results map[string]json.RawMessage
	locks   map[string]string
	tokens  int
}

func newMockCache() *mockCache {
	return &mockCache{
		worlds:  make(map[string]*civ.World),
		results: make(map[string]json.RawMessage),
		locks:   make(map[string]string),
	}
}

func (m *mockCache) SetWorld(_ context.Context, w *civ.World) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[w.SessionID] = w.Clone()
	return nil
}

func (m *mockCache) GetWorld(_ context.Context, sessionID string) (*civ.World, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.worlds[sessionID]
	if !ok {
		return nil, nil
	}
	return w.Clone(), nil
}

func (m *mockCache) InvalidateWorld(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.worlds, sessionID)
	return nil
}

func (m *mockCache) SetTurnResult(_ context.Context, sessionID string, result json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[sessionID] = result
	return nil
}

func (m *mockCache) GetTurnResult(_ context.Context, sessionID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[sessionID], nil
}

func (m *mockCache) AcquireTurnLock(_ context.Context, sessionID string, _ time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[sessionID]; held {
		return "", false, nil
	}
	m.tokens++
	token := fmt.Sprintf("token-%d", m.tokens)
	m.locks[sessionID] = token
	return token, true, nil
}

func (m *mockCache) ReleaseTurnLock(_ context.Context, sessionID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[sessionID] == token {
		delete(m.locks, sessionID)
	}
	return nil
}

type broadcastEvent struct {
	SessionID string
	Type      string
	Data      any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *recordingBroadcaster) BroadcastSessionEvent(sessionID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{SessionID: sessionID, Type: eventType, Data: data})
}

func (b *recordingBroadcaster) count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// testEnv wires every service against the in-memory mocks.
type testEnv struct {
	sessions    *mockSessionRepo
	worlds      *mockWorldRepo
	messages    *mockMessageRepo
	turnLogs    *mockTurnLogRepo
	cache       *mockCache
	broadcaster *recordingBroadcaster
	catalog     *civ.Catalog

	store    *WorldStore
	session  *SessionService
	turn     *TurnService
	city     *CityService
	unit     *UnitService
	research *ResearchService
	chat     *MessageService
}

func newTestEnv() *testEnv {
	e := &testEnv{
		sessions:    newMockSessionRepo(),
		messages:    newMockMessageRepo(),
		turnLogs:    newMockTurnLogRepo(),
		cache:       newMockCache(),
		broadcaster: &recordingBroadcaster{},
		catalog:     civ.DefaultCatalog(),
	}
	e.worlds = newMockWorldRepo(e.sessions)
	e.store = NewWorldStore(e.worlds, e.cache)
	e.session = NewSessionService(e.sessions, e.worlds, e.store, e.catalog, "easy")
	e.turn = NewTurnService(e.sessions, e.store, e.turnLogs, e.cache, e.cache, e.broadcaster, e.catalog)
	e.city = NewCityService(e.store, e.broadcaster, e.catalog)
	e.unit = NewUnitService(e.store, e.broadcaster, e.catalog)
	e.research = NewResearchService(e.store, e.catalog)
	e.chat = NewMessageService(e.messages, e.sessions, e.broadcaster)
	return e
}

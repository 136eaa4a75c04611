package handler

import (
	"net/http"

	"github.com/freeeve/hexciv/internal/service"
	"github.com/freeeve/hexciv/pkg/civ"
)

// playerID identifies the acting player. Sessions have no accounts, so the
// client passes the player ID it got at creation.
func playerID(r *http.Request) string {
	if id := r.Header.Get("X-Player-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("player")
}

// SessionHandler handles session lifecycle and turn endpoints.
type SessionHandler struct {
	sessionSvc *service.SessionService
	turnSvc    *service.TurnService
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessionSvc *service.SessionService, turnSvc *service.TurnService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, turnSvc: turnSvc}
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string   `json:"name"`
		MapType        string   `json:"map_type"`
		Speed          string   `json:"speed"`
		Width          int      `json:"width"`
		Height         int      `json:"height"`
		Seed           *int64   `json:"seed"`
		Difficulty     string   `json:"difficulty"`
		PlayerName     string   `json:"player_name"`
		Civilization   string   `json:"civilization"`
		AICivs         []string `json:"ai_civilizations"`
		PlayerQuadrant string   `json:"player_quadrant"`
	}
	if err := decodeValid(r, schemaCreateSession, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.sessionSvc.CreateSession(r.Context(), service.CreateSessionInput{
		Name:           req.Name,
		MapType:        req.MapType,
		Speed:          req.Speed,
		Width:          req.Width,
		Height:         req.Height,
		Seed:           req.Seed,
		Difficulty:     req.Difficulty,
		PlayerName:     req.PlayerName,
		Civilization:   req.Civilization,
		AICivs:         req.AICivs,
		PlayerQuadrant: req.PlayerQuadrant,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionSvc.ListSessions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if sessions == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionSvc.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// mapResponse is the full world as seen by clients.
type mapResponse struct {
	SessionID string        `json:"session_id"`
	Turn      int           `json:"turn"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Tiles     []*civ.Tile   `json:"tiles"`
	Players   []*civ.Player `json:"players"`
	Cities    []*civ.City   `json:"cities"`
	Units     []*civ.Unit   `json:"units"`
}

// GetMap handles GET /api/v1/sessions/{id}/map
func (h *SessionHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	world, err := h.sessionSvc.World(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapResponse{
		SessionID: world.SessionID,
		Turn:      world.Turn,
		Width:     world.Width,
		Height:    world.Height,
		Tiles:     world.Tiles,
		Players:   world.Players,
		Cities:    world.Cities,
		Units:     world.Units,
	})
}

// GetTurn handles GET /api/v1/sessions/{id}/turn
func (h *SessionHandler) GetTurn(w http.ResponseWriter, r *http.Request) {
	st, err := h.turnSvc.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// EndTurn handles POST /api/v1/sessions/{id}/end-turn
func (h *SessionHandler) EndTurn(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		writeError(w, http.StatusBadRequest, "player is required")
		return
	}
	res, err := h.turnSvc.EndTurn(r.Context(), r.PathValue("id"), pid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

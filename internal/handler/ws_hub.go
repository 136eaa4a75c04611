package handler

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Events the hub itself sends, next to the service events.
const (
	EventConnected    = "connected"
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventError        = "error"
)

// maxSubscriptions bounds how many sessions one connection may follow.
const maxSubscriptions = 8

var (
	errTooManySubscriptions = errors.New("too many session subscriptions")
	errConnClosed           = errors.New("connection closed")
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Data      any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action    string `json:"action"` // "subscribe" or "unsubscribe"
	SessionID string `json:"session_id"`
}

// WSConn is one client of the session feed. subs is guarded by the hub.
type WSConn struct {
	conn     *websocket.Conn
	playerID string
	send     chan []byte
	subs     map[string]bool
}

// Hub fans session events out to subscribed connections. A session entry
// exists only while it has subscribers.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*WSConn]bool
	sessions map[string]map[*WSConn]bool
}

func NewHub() *Hub {
	return &Hub{
		conns:    make(map[*WSConn]bool),
		sessions: make(map[string]map[*WSConn]bool),
	}
}

func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = true
}

// Unregister drops c with its subscriptions and closes its send channel.
// Calling it twice is harmless.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.conns[c] {
		return
	}
	delete(h.conns, c)
	for sessionID := range c.subs {
		h.detach(c, sessionID)
	}
	close(c.send)
}

// Subscribe starts delivering sessionID's events to c.
func (h *Hub) Subscribe(c *WSConn, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.conns[c] {
		return errConnClosed
	}
	if c.subs == nil {
		c.subs = make(map[string]bool)
	}
	if c.subs[sessionID] {
		return nil
	}
	if len(c.subs) >= maxSubscriptions {
		return errTooManySubscriptions
	}
	c.subs[sessionID] = true
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*WSConn]bool)
	}
	h.sessions[sessionID][c] = true
	return nil
}

func (h *Hub) Unsubscribe(c *WSConn, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detach(c, sessionID)
}

// detach requires h.mu.
func (h *Hub) detach(c *WSConn, sessionID string) {
	delete(c.subs, sessionID)
	if conns, ok := h.sessions[sessionID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.sessions, sessionID)
		}
	}
}

// Notify queues one event for c alone, dropping it when c is gone or its
// buffer is full.
func (h *Hub) Notify(c *WSConn, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Str("type", event.Type).Msg("Failed to encode feed event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.conns[c] {
		h.enqueue(c, event.SessionID, data)
	}
}

// enqueue requires h.mu held for reading.
func (h *Hub) enqueue(c *WSConn, sessionID string, data []byte) {
	select {
	case c.send <- data:
	default:
		log.Warn().Str("playerId", c.playerID).Str("sessionId", sessionID).Msg("Feed buffer full, event dropped")
	}
}

// BroadcastToSession queues event for every subscriber of sessionID. A slow
// subscriber loses the event; the others still get it.
func (h *Hub) BroadcastToSession(sessionID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Str("type", event.Type).Msg("Failed to encode feed event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.sessions[sessionID] {
		h.enqueue(c, sessionID, data)
	}
}

// BroadcastSessionEvent implements service.Broadcaster.
func (h *Hub) BroadcastSessionEvent(sessionID string, eventType string, data any) {
	h.BroadcastToSession(sessionID, WSEvent{Type: eventType, SessionID: sessionID, Data: data})
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// SessionCount returns the number of sessions with at least one subscriber.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) SessionSubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

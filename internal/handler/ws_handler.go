package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexciv/internal/service"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	maxMsgSize  = 4096
	sendBufSize = 256
	// lookupTimeout bounds the session check behind a subscribe request.
	lookupTimeout = 5 * time.Second
)

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub        *Hub
	sessionSvc *service.SessionService
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a WSHandler. allowedOrigin is a comma-separated list
// of accepted Origin headers; empty or "*" accepts any origin.
func NewWSHandler(hub *Hub, sessionSvc *service.SessionService, allowedOrigin string) *WSHandler {
	return &WSHandler{
		hub:        hub,
		sessionSvc: sessionSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if strings.TrimSpace(allowedOrigin) == "" {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, o := range strings.Split(allowedOrigin, ",") {
					o = strings.TrimSpace(o)
					if o == "*" || (o != "" && o == origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

// ServeWS handles GET /api/v1/ws?session=...&player=... and subscribes the
// connection to the session. The client may follow more sessions with
// {"action":"subscribe","session_id":...}.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session parameter")
		return
	}
	if _, err := h.sessionSvc.GetSession(r.Context(), sessionID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("Session feed upgrade failed")
		return
	}

	client := &WSConn{
		conn:     conn,
		playerID: r.URL.Query().Get("player"),
		send:     make(chan []byte, sendBufSize),
	}
	h.hub.Register(client)
	h.hub.Notify(client, WSEvent{Type: EventConnected, SessionID: sessionID, Data: map[string]any{}})
	h.hub.Subscribe(client, sessionID)

	go h.writeEvents(client)
	go h.readClientMessages(client)

	log.Info().Str("sessionId", sessionID).Str("playerId", client.playerID).
		Int("feeds", h.hub.ConnectionCount()).Msg("Session feed opened")
}

// handleClientMessage applies one subscribe or unsubscribe request and
// answers with an ack or an error event.
func (h *WSHandler) handleClientMessage(ctx context.Context, c *WSConn, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.SessionID == "" {
		h.hub.Notify(c, WSEvent{Type: EventError, Data: map[string]string{"error": "expected {action, session_id}"}})
		return
	}
	switch msg.Action {
	case "subscribe":
		if _, err := h.sessionSvc.GetSession(ctx, msg.SessionID); err != nil {
			h.hub.Notify(c, WSEvent{Type: EventError, SessionID: msg.SessionID, Data: map[string]string{"error": err.Error()}})
			return
		}
		if err := h.hub.Subscribe(c, msg.SessionID); err != nil {
			h.hub.Notify(c, WSEvent{Type: EventError, SessionID: msg.SessionID, Data: map[string]string{"error": err.Error()}})
			return
		}
		h.hub.Notify(c, WSEvent{Type: EventSubscribed, SessionID: msg.SessionID})
	case "unsubscribe":
		h.hub.Unsubscribe(c, msg.SessionID)
		h.hub.Notify(c, WSEvent{Type: EventUnsubscribed, SessionID: msg.SessionID})
	default:
		h.hub.Notify(c, WSEvent{Type: EventError, SessionID: msg.SessionID, Data: map[string]string{"error": "unknown action " + msg.Action}})
	}
}

// readClientMessages owns the read side until the client goes away, then
// unregisters the connection.
func (h *WSHandler) readClientMessages(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("playerId", c.playerID).Msg("Session feed closed")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("playerId", c.playerID).Msg("Session feed dropped")
			}
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		h.handleClientMessage(ctx, c, raw)
		cancel()
	}
}

// writeEvents sends each queued event as its own text frame and pings the
// client every pingPeriod. It returns when the send channel is closed or a
// write fails.
func (h *WSHandler) writeEvents(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				log.Debug().Err(err).Str("playerId", c.playerID).Msg("Session feed write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

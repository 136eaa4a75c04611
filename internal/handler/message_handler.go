package handler

import (
	"net/http"
	"strconv"

	"github.com/freeeve/hexciv/internal/service"
)

const defaultMessageLimit = 100

// MessageHandler handles session chat endpoints.
type MessageHandler struct {
	messageSvc *service.MessageService
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messageSvc *service.MessageService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc}
}

// ListMessages handles GET /api/v1/sessions/{id}/messages
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := defaultMessageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, defaultMessageLimit)
	}
	messages, err := h.messageSvc.ListMessages(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if messages == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendMessage handles POST /api/v1/sessions/{id}/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeValid(r, schemaMessage, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pid := playerID(r)
	if pid == "" {
		writeError(w, http.StatusBadRequest, "player is required")
		return
	}
	msg, err := h.messageSvc.SendMessage(r.Context(), r.PathValue("id"), pid, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

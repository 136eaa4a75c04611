package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexciv/internal/advisor"
	"github.com/freeeve/hexciv/internal/service"
	"github.com/freeeve/hexciv/pkg/civ"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a service or engine error to its HTTP status.
func statusFor(err error) int {
	var (
		invalidResearch *civ.InvalidResearchRequest
		actionErr       *civ.ActionError
		configErr       *civ.ConfigurationError
	)
	switch {
	case service.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, civ.ErrConcurrency):
		return http.StatusConflict
	case errors.Is(err, service.ErrSessionFinished):
		return http.StatusConflict
	case errors.As(err, &configErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &invalidResearch),
		errors.As(err, &actionErr),
		errors.Is(err, service.ErrInvalidSetup),
		errors.Is(err, service.ErrNotHumanPlayer),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrMessageTooLong),
		errors.Is(err, advisor.ErrEmptyQuery):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with its mapped status. Internal errors are
// logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

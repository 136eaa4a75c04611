package handler

import (
	"net/http"

	"github.com/freeeve/hexciv/internal/service"
)

// ResearchHandler handles research endpoints.
type ResearchHandler struct {
	researchSvc *service.ResearchService
}

// NewResearchHandler creates a ResearchHandler.
func NewResearchHandler(researchSvc *service.ResearchService) *ResearchHandler {
	return &ResearchHandler{researchSvc: researchSvc}
}

// GetResearch handles GET /api/v1/sessions/{id}/research
func (h *ResearchHandler) GetResearch(w http.ResponseWriter, r *http.Request) {
	st, err := h.researchSvc.Status(r.Context(), r.PathValue("id"), playerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// StartResearch handles POST /api/v1/sessions/{id}/research
func (h *ResearchHandler) StartResearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TechID string `json:"tech_id"`
	}
	if err := decodeValid(r, schemaResearch, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.researchSvc.Start(r.Context(), r.PathValue("id"), playerID(r), req.TechID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// CancelResearch handles DELETE /api/v1/sessions/{id}/research
func (h *ResearchHandler) CancelResearch(w http.ResponseWriter, r *http.Request) {
	st, err := h.researchSvc.Cancel(r.Context(), r.PathValue("id"), playerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

package handler

import (
	"net/http"

	"github.com/freeeve/hexciv/internal/service"
	"github.com/freeeve/hexciv/pkg/civ"
)

// CityHandler handles city and production queue endpoints.
type CityHandler struct {
	citySvc *service.CityService
}

// NewCityHandler creates a CityHandler.
func NewCityHandler(citySvc *service.CityService) *CityHandler {
	return &CityHandler{citySvc: citySvc}
}

// GetCity handles GET /api/v1/sessions/{id}/cities/{cityId}
func (h *CityHandler) GetCity(w http.ResponseWriter, r *http.Request) {
	city, err := h.citySvc.GetCity(r.Context(), r.PathValue("id"), r.PathValue("cityId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, city)
}

// Enqueue handles POST /api/v1/sessions/{id}/cities/{cityId}/queue
func (h *CityHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemType string `json:"item_type"`
		ItemID   string `json:"item_id"`
		Position *int   `json:"position"`
	}
	if err := decodeValid(r, schemaEnqueue, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pos := -1
	if req.Position != nil {
		pos = *req.Position
	}
	city, err := h.citySvc.Enqueue(r.Context(), r.PathValue("id"), playerID(r), r.PathValue("cityId"),
		civ.ItemType(req.ItemType), req.ItemID, pos)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, city)
}

// Reorder handles PATCH /api/v1/sessions/{id}/cities/{cityId}/queue/{itemId}
func (h *CityHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position int `json:"position"`
	}
	if err := decodeValid(r, schemaReorder, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	city, err := h.citySvc.Reorder(r.Context(), r.PathValue("id"), playerID(r), r.PathValue("cityId"),
		r.PathValue("itemId"), req.Position)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, city)
}

// Cancel handles DELETE /api/v1/sessions/{id}/cities/{cityId}/queue/{itemId}
func (h *CityHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	city, err := h.citySvc.Cancel(r.Context(), r.PathValue("id"), playerID(r), r.PathValue("cityId"), r.PathValue("itemId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, city)
}

// FoundingSites handles GET /api/v1/sessions/{id}/founding-sites
func (h *CityHandler) FoundingSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.citySvc.FoundingSites(r.Context(), r.PathValue("id"), playerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if sites == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

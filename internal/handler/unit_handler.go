package handler

import (
	"net/http"

	"github.com/freeeve/hexciv/internal/service"
	"github.com/freeeve/hexciv/pkg/civ"
	"github.com/freeeve/hexciv/pkg/hex"
)

// UnitHandler handles unit movement and command endpoints.
type UnitHandler struct {
	unitSvc *service.UnitService
}

// NewUnitHandler creates a UnitHandler.
func NewUnitHandler(unitSvc *service.UnitService) *UnitHandler {
	return &UnitHandler{unitSvc: unitSvc}
}

// Move handles POST /api/v1/sessions/{id}/units/{unitId}/move
func (h *UnitHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Q int  `json:"q"`
		R int  `json:"r"`
		S *int `json:"s"`
	}
	if err := decodeValid(r, schemaMove, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to := hex.New(req.Q, req.R)
	if req.S != nil && *req.S != to.S {
		writeError(w, http.StatusBadRequest, "q + r + s must be 0")
		return
	}
	res, err := h.unitSvc.Move(r.Context(), r.PathValue("id"), playerID(r), r.PathValue("unitId"), to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Command handles POST /api/v1/sessions/{id}/units/{unitId}/command
func (h *UnitHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command  string `json:"command"`
		CityName string `json:"city_name"`
	}
	if err := decodeValid(r, schemaCommand, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.unitSvc.Command(r.Context(), r.PathValue("id"), playerID(r), r.PathValue("unitId"),
		civ.Command(req.Command), req.CityName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/freeeve/hexciv/internal/advisor"
)

// AdvisorHandler answers game knowledge questions.
type AdvisorHandler struct {
	index *advisor.Index
}

// NewAdvisorHandler creates an AdvisorHandler.
func NewAdvisorHandler(index *advisor.Index) *AdvisorHandler {
	return &AdvisorHandler{index: index}
}

// Search handles GET /api/v1/advisor/search?q=...&k=3
func (h *AdvisorHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	k := advisor.DefaultK
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = n
	}
	results, err := h.index.Search(q, k)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": results})
}

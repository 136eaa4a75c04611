package handler

import "net/http"

// Handlers groups the endpoint handlers mounted by NewRouter. Advisor and WS
// may be nil.
type Handlers struct {
	Session  *SessionHandler
	City     *CityHandler
	Unit     *UnitHandler
	Research *ResearchHandler
	Message  *MessageHandler
	Advisor  *AdvisorHandler
	WS       *WSHandler
}

// NewRouter registers every route on a new ServeMux.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	api := http.NewServeMux()
	api.HandleFunc("POST /sessions", h.Session.CreateSession)
	api.HandleFunc("GET /sessions", h.Session.ListSessions)
	api.HandleFunc("GET /sessions/{id}", h.Session.GetSession)
	api.HandleFunc("GET /sessions/{id}/map", h.Session.GetMap)
	api.HandleFunc("GET /sessions/{id}/turn", h.Session.GetTurn)
	api.HandleFunc("POST /sessions/{id}/end-turn", h.Session.EndTurn)

	api.HandleFunc("GET /sessions/{id}/founding-sites", h.City.FoundingSites)
	api.HandleFunc("GET /sessions/{id}/cities/{cityId}", h.City.GetCity)
	api.HandleFunc("POST /sessions/{id}/cities/{cityId}/queue", h.City.Enqueue)
	api.HandleFunc("PATCH /sessions/{id}/cities/{cityId}/queue/{itemId}", h.City.Reorder)
	api.HandleFunc("DELETE /sessions/{id}/cities/{cityId}/queue/{itemId}", h.City.Cancel)

	api.HandleFunc("POST /sessions/{id}/units/{unitId}/move", h.Unit.Move)
	api.HandleFunc("POST /sessions/{id}/units/{unitId}/command", h.Unit.Command)

	api.HandleFunc("GET /sessions/{id}/research", h.Research.GetResearch)
	api.HandleFunc("POST /sessions/{id}/research", h.Research.StartResearch)
	api.HandleFunc("DELETE /sessions/{id}/research", h.Research.CancelResearch)

	api.HandleFunc("GET /sessions/{id}/messages", h.Message.ListMessages)
	api.HandleFunc("POST /sessions/{id}/messages", h.Message.SendMessage)

	if h.Advisor != nil {
		api.HandleFunc("GET /advisor/search", h.Advisor.Search)
	}

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", api))
	if h.WS != nil {
		mux.HandleFunc("GET /api/v1/ws", h.WS.ServeWS)
	}
	return mux
}

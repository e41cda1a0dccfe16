package http

import (
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := ParseDashboardQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	dash, err := s.dashboard.Dashboard(r.Context(), caller(r).ID, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(dash).Write(w)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.activity.Recent(r.Context(), caller(r).ID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(entries)).Write(w)
}

package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in core.RegisterInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	id, session, err := s.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, session, session.CreatedAt, s.cookieSecure)
	NewJSONResponse().Status(http.StatusCreated).Body(id).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in core.LoginInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	id, session, err := s.auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, session, session.CreatedAt, s.cookieSecure)
	NewJSONResponse().Body(id).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(caller(r)).Write(w)
}

// handleLogout clears the cookie even when the session row could not be deleted.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), auth.SessionID(r)); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to delete session",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeDatabase)
	}

	auth.ClearSessionCookie(w, s.cookieSecure)
	SuccessResponse().Write(w)
}

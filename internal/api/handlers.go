package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/verte-zerg/focusflow/internal/auth"
	"github.com/verte-zerg/focusflow/internal/chat"
	"github.com/verte-zerg/focusflow/internal/model"
	"github.com/verte-zerg/focusflow/internal/stats"
	"github.com/verte-zerg/focusflow/internal/store"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

type userBody struct {
	User auth.User `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionBody struct {
	Topic     string `json:"topic"`
	Duration  int    `json:"duration"`
	Timestamp int64  `json:"timestamp"`
}

// writeJSON writes payload with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Debug("response write failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorBody{Error: msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func scopeFrom(r *http.Request) string {
	return model.UserScope(strings.TrimSpace(r.URL.Query().Get("user")))
}

// chatHandler always answers 200; a malformed body is treated as an empty message.
func (s *Server) chatHandler(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chat.Request
		if err := decodeBody(r, &req); err != nil {
			s.logger.Warn("chat body rejected", "error", err)
			req = chat.Request{}
		}
		if provider != "" {
			req.Provider = provider
		}
		s.writeJSON(w, http.StatusOK, s.relay.Ask(r.Context(), req))
	}
}

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.auth.Signup(body.Email, body.Password, body.Name)
	if err != nil {
		s.authError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, userBody{User: user})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.auth.Login(body.Email, body.Password)
	if err != nil {
		s.authError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, userBody{User: user})
}

func (s *Server) authError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.writeError(w, http.StatusUnauthorized, err.Error())
	default:
		s.logger.Error("auth failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.LoadAll(r.Context(), scopeFrom(r))
	if err != nil {
		s.logger.Error("load sessions", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) appendSessionHandler(w http.ResponseWriter, r *http.Request) {
	var body sessionBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rec := model.Session{Topic: strings.TrimSpace(body.Topic), Duration: body.Duration, Timestamp: body.Timestamp}
	if rec.Timestamp <= 0 {
		rec.Timestamp = s.now().UnixMilli()
	}
	if err := s.sessions.Append(r.Context(), scopeFrom(r), rec); err != nil {
		if errors.Is(err, store.ErrInvalidSession) {
			s.writeError(w, http.StatusBadRequest, "topic and a positive duration are required")
			return
		}
		s.logger.Error("append session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) clearSessionsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.sessions.ClearAll(r.Context(), scopeFrom(r))
	if err != nil {
		s.logger.Error("clear sessions", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to clear sessions")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	report, err := stats.BuildReport(r.Context(), s.sessions, scopeFrom(r), s.now())
	if err != nil {
		s.logger.Error("build report", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

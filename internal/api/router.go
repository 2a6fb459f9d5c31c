// Package api serves the chat relay, auth and session endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"

	"github.com/verte-zerg/focusflow/internal/auth"
	"github.com/verte-zerg/focusflow/internal/chat"
	"github.com/verte-zerg/focusflow/internal/model"
)

// SessionStore is the session log used by the API.
type SessionStore interface {
	Append(ctx context.Context, scope string, rec model.Session) error
	LoadAll(ctx context.Context, scope string) ([]model.Session, error)
	ClearAll(ctx context.Context, scope string) (int64, error)
}

// Config wires the server dependencies.
type Config struct {
	Relay      *chat.Relay
	Auth       *auth.Service
	Sessions   SessionStore
	Logger     hclog.Logger
	CORSOrigin string
	Now        func() time.Time
}

// Server holds handler dependencies.
type Server struct {
	relay      *chat.Relay
	auth       *auth.Service
	sessions   SessionStore
	logger     hclog.Logger
	corsOrigin string
	now        func() time.Time
}

// NewServer fills defaults for unset dependencies.
func NewServer(cfg Config) *Server {
	s := &Server{
		relay:      cfg.Relay,
		auth:       cfg.Auth,
		sessions:   cfg.Sessions,
		logger:     cfg.Logger,
		corsOrigin: cfg.CORSOrigin,
		now:        cfg.Now,
	}
	if s.logger == nil {
		s.logger = hclog.NewNullLogger()
	}
	if s.corsOrigin == "" {
		s.corsOrigin = "*"
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.relay == nil {
		s.relay = chat.NewRelay(chat.Config{Logger: s.logger.Named("chat")})
	}
	return s
}

// Handler returns the routed handler wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	return s.withCORS(s.withLogging(s.NewRouter()))
}

// NewRouter registers every route.
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "OK"); err != nil {
			s.logger.Debug("health write failed", "error", err)
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/openai-chat", s.chatHandler(chat.ProviderOpenAI)).Methods(http.MethodPost)
	r.HandleFunc("/api/groq-chat", s.chatHandler(chat.ProviderGroq)).Methods(http.MethodPost)
	r.HandleFunc("/api/chat", s.chatHandler("")).Methods(http.MethodPost)

	r.HandleFunc("/api/signup", s.signupHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.loginHandler).Methods(http.MethodPost)

	r.HandleFunc("/api/sessions", s.listSessionsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions", s.appendSessionHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions", s.clearSessionsHandler).Methods(http.MethodDelete)
	r.HandleFunc("/api/stats", s.statsHandler).Methods(http.MethodGet)
	return r
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger hclog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

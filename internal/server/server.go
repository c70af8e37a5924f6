package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"makeupexam/internal/automation"
	"makeupexam/internal/browser"
	"makeupexam/internal/config"
	"makeupexam/internal/history"
	"makeupexam/internal/logging"
)

// Runner runs automations on behalf of the API.
type Runner interface {
	Run(ctx context.Context, req automation.Request) (*automation.Result, error)
	Status() automation.Status
}

// RunStore is the slice of the history ledger the API reads.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]history.Run, error)
	GetRun(ctx context.Context, id string) (*history.Run, error)
	Clear(ctx context.Context) (int64, error)
}

// LoginFunc opens the portal in a browser the user can sign in with.
type LoginFunc func(ctx context.Context, opts browser.Options, url string) (*browser.LoginResult, error)

// Option customizes a Server.
type Option func(*Server)

// WithHistory serves run history from store.
func WithHistory(store RunStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLoginLauncher replaces the login browser launcher.
func WithLoginLauncher(fn LoginFunc) Option {
	return func(s *Server) {
		if fn != nil {
			s.login = fn
		}
	}
}

// Server is the makeup exam HTTP API.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	runner Runner
	store  RunStore
	login  LoginFunc

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New constructs the API server. Call Start to listen on server.bind.
func New(cfg *config.Config, runner Runner, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server requires configuration")
	}
	if runner == nil {
		return nil, errors.New("server requires a runner")
	}
	s := &Server{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "api-server"),
		runner: runner,
		login:  browser.LaunchForLogin,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/makeup/login", s.handleLogin)
	mux.HandleFunc("POST /api/makeup/load-csv", s.handleLoadRoster)
	mux.HandleFunc("POST /api/makeup/start-automation", s.handleStartAutomation)
	mux.HandleFunc("POST /api/makeup/clear", s.handleClear)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleRun)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	s.handler = authMiddleware(cfg.Server.APIToken, mux)

	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed, authenticated handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Server.Bind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the listening address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for open requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Success: false, Error: message})
}

// Package server provides the HTTP server for the pose session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/edorun/internal/server/api"
	"github.com/ayusman/edorun/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Session   api.Session
	Logger    *slog.Logger

	// StateInterval is the WebSocket broadcast period. Defaults to 66ms.
	StateInterval time.Duration
	// StreamInterval is the MJPEG frame period. Defaults to 66ms.
	StreamInterval time.Duration
}

// Server represents the HTTP server for the application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	state  *StateHandler
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Evaluation is pure and only reads thresholds from the session when present
	s.mux.Handle("/api/evaluate", api.NewEvaluateHandler(s.config.Session))

	if s.config.Store != nil {
		s.mux.Handle("/api/images", api.NewImagesHandler(s.config.Store))
	}

	if s.config.Session != nil {
		sessionHandler := api.NewSessionHandler(s.config.Session)
		s.mux.HandleFunc("/api/snapshot", sessionHandler.Snapshot)
		s.mux.HandleFunc("/api/source", sessionHandler.Source)
		s.mux.HandleFunc("/api/enabled", sessionHandler.Enabled)
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Session, s.config.Store, s.config.Logger))

		s.state = NewStateHandler(s.config.Session, s.config.StateInterval, s.config.Logger)
		s.mux.Handle("/api/state", s.state)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Session, s.config.StreamInterval))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]any{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
// It returns nil after Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.config.Logger.Info("http server listening", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the broadcaster and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.state != nil {
		s.state.Close()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

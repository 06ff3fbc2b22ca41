// Package server provides the HTTP server for the mudra settings editor and
// live status.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Controller is the running application as seen by the HTTP API.
type Controller interface {
	api.ConfigController
	api.EngineController
	SubscribeStatus(fn func(string)) (cancel func())
}

// FrameSource provides encoded preview frames.
type FrameSource interface {
	LatestFrame() ([]byte, uint64)
	WatchFrames() (release func())
}

// Config holds the server configuration. Routes whose collaborator is nil
// are not registered.
type Config struct {
	StaticDir  string
	Controller Controller
	Frames     FrameSource
	Store      *store.Store
	Logger     *zap.Logger
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	router *chi.Mux
	hub    *StatusHub
	logger *zap.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config: config,
		router: chi.NewRouter(),
		logger: logger.Named("server"),
		start:  time.Now(),
	}

	s.router.Use(chiMiddleware.RequestID)
	s.router.Use(chiMiddleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(chiMiddleware.Recoverer)

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/actions/suggestions", api.Suggestions)

	if ctrl := s.config.Controller; ctrl != nil {
		configHandler := api.NewConfigHandler(ctrl, s.logger)
		engineHandler := api.NewEngineHandler(ctrl)

		s.router.Route("/api/config", func(r chi.Router) {
			r.Get("/", configHandler.Get)
			r.Put("/", configHandler.Put)
			r.Post("/reset", configHandler.Reset)
			r.Post("/reload", configHandler.Reload)
		})
		s.router.Get("/api/status", engineHandler.Status)
		s.router.Post("/api/engine/start", engineHandler.Start)
		s.router.Post("/api/engine/stop", engineHandler.Stop)

		s.hub = NewStatusHub(ctrl, s.logger)
		s.router.Get("/api/ws/status", s.hub.ServeHTTP)
	}

	if s.config.Store != nil {
		eventHandler := api.NewEventHandler(s.config.Store)
		s.router.Get("/api/events", eventHandler.List)
	}

	if s.config.Frames != nil {
		s.router.Get("/api/stream", NewStreamHandler(s.config.Frames).ServeHTTP)
	}

	if s.config.StaticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down web server")
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Close disconnects websocket clients and stops following status changes.
func (s *Server) Close() {
	if s.hub != nil {
		s.hub.Close()
	}
}

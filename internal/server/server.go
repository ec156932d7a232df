package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/voyagen/m3uforge/internal/cache"
	"github.com/voyagen/m3uforge/internal/config"
	"github.com/voyagen/m3uforge/internal/service"
	"go.uber.org/zap"
)

// defaultMaxUpload caps uploaded playlist bodies.
const defaultMaxUpload = 32 << 20

// Server holds dependencies for the HTTP API.
type Server struct {
	editor *service.Editor
	cfg    *config.Config
	rds    *cache.Redis // nil when REDIS_URL is not set; imports then run inline
	log    *zap.Logger
	mux    *http.ServeMux

	maxUpload int64
}

// New creates a Server and registers routes. rds may be nil.
func New(ed *service.Editor, cfg *config.Config, rds *cache.Redis, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &Server{editor: ed, cfg: cfg, rds: rds, log: log, mux: http.NewServeMux(), maxUpload: defaultMaxUpload}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Playlists
	s.mux.HandleFunc("GET /api/playlists", s.handleListPlaylists)
	s.mux.HandleFunc("POST /api/playlists", s.handleCreatePlaylist)
	s.mux.HandleFunc("GET /api/playlists/{id}", s.handleGetPlaylist)
	s.mux.HandleFunc("PATCH /api/playlists/{id}", s.handleUpdatePlaylist)
	s.mux.HandleFunc("DELETE /api/playlists/{id}", s.handleDeletePlaylist)
	s.mux.HandleFunc("GET /api/playlists/{id}/download", s.handleDownloadPlaylist)
	s.mux.HandleFunc("POST /api/playlists/{id}/refresh", s.handleRefreshPlaylist)

	// Entries
	s.mux.HandleFunc("POST /api/playlists/{id}/entries", s.handleAddEntry)
	s.mux.HandleFunc("PUT /api/playlists/{id}/entries/{index}", s.handleUpdateEntry)
	s.mux.HandleFunc("DELETE /api/playlists/{id}/entries/{index}", s.handleRemoveEntry)

	// Metrics and docs
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in its middleware chain.
func (s *Server) Handler() http.Handler {
	return withCORS(withLogging(s.log, withMetrics(s)))
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("server shutdown", zap.Error(err))
		}
	}()

	s.log.Info("listening", zap.String("addr", addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

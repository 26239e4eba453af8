// Package server exposes the search store to the presentation layer over
// HTTP: state snapshots in, operations out. Handlers are thin; all
// coordination lives in the store.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gugamistri/meetingmind-search/internal/config"
	"github.com/gugamistri/meetingmind-search/internal/store"
	"go.uber.org/zap"
)

// Server is the HTTP façade over the search coordination store.
type Server struct {
	store  *store.Store
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server over the given store.
func NewServer(st *store.Store, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		store:  st,
		config: cfg,
		logger: logger,
	}
}

// Routes builds the router. Exposed separately so tests can drive handlers
// without a listening socket.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/search/state", s.handleState)
	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/search/clear", s.handleClear)
	r.Get("/api/v1/search/suggestions", s.handleSuggestions)
	r.Get("/api/v1/search/saved", s.handleSavedList)
	r.Post("/api/v1/search/saved", s.handleSavedCreate)
	r.Delete("/api/v1/search/saved/{id}", s.handleSavedDelete)
	r.Post("/api/v1/search/saved/{id}/use", s.handleSavedUse)
	r.Get("/api/v1/search/history", s.handleHistory)
	r.Delete("/api/v1/search/history", s.handleHistoryClear)
	r.Post("/api/v1/search/export", s.handleExport)
	r.Post("/api/v1/meetings/{id}/search", s.handleWithinMeeting)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

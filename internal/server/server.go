// Package server provides the HTTP API for Kioku.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/prompt"
	"github.com/hyperjump/kioku/internal/rag"
	"github.com/hyperjump/kioku/internal/retrieval"
	"github.com/hyperjump/kioku/internal/storage"
	"github.com/hyperjump/kioku/internal/vector"
)

const pingTimeout = 3 * time.Second

// Deps are the components the API serves.
type Deps struct {
	Indexer   *indexer.Indexer
	Embedder  embedding.Embedder
	Index     vector.Reader
	Retriever *retrieval.Retriever
	Pipeline  *rag.Pipeline
	Store     storage.ConversationStore
	Assembler *prompt.Assembler
}

// Server is the HTTP server for the Kioku API.
type Server struct {
	deps    Deps
	config  *config.Config
	logger  *zap.Logger
	handler http.Handler
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Assembler == nil {
		deps.Assembler = prompt.NewAssembler(cfg.Retrieval.LogTag)
	}
	s := &Server{deps: deps, config: cfg, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		// Reindexing a large corpus may outlast the request timeout.
		r.Post("/reindex", s.handleReindex)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/status", s.handleStatus)
			r.Post("/search", s.handleSearch)
			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions", s.handleCreateSession)
			r.Get("/sessions/{id}/messages", s.handleListMessages)
			r.Post("/sessions/{id}/messages", s.handleAppendMessage)
			r.Post("/sessions/{id}/prompt", s.handlePrompt)
		})
	})
	return r
}

// Handler returns the router, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
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

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

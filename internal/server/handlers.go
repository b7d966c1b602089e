package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/prompt"
	"github.com/hyperjump/kioku/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"index":    s.deps.Index.Current().Stats(),
		"indexing": s.deps.Indexer.IsIndexing(),
	}
	if report := s.deps.Indexer.LastReport(); report != nil {
		resp["last_report"] = report
	}
	cfg := s.config
	resp["config"] = map[string]interface{}{
		"notes_root":              cfg.Notes.Root,
		"embedding_provider":      cfg.Embedding.Provider,
		"embedding_dimensions":    cfg.Embedding.Dimensions,
		"semantic_search_enabled": cfg.Retrieval.SemanticSearchOrDefault(),
		"similarity_threshold":    cfg.Retrieval.ThresholdOrDefault(),
		"top_k":                   cfg.Retrieval.TopK,
		"context_window_size":     cfg.Budget.ContextWindowSize,
		"advanced_budget":         cfg.Budget.AdvancedStrategyOrDefault(),
		"database_path":           cfg.Storage.DatabasePath,
	}
	resp["database_size_bytes"] = storage.DatabaseSize(cfg.Storage.DatabasePath)
	if s.deps.Embedder != nil {
		resp["embedder"] = s.embedderStatus(r.Context())
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type embedderStatus struct {
	Model     string `json:"model"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) embedderStatus(ctx context.Context) embedderStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	st := embedderStatus{Model: s.deps.Embedder.Model(), Reachable: true}
	if err := embedding.Ping(ctx, s.deps.Embedder); err != nil {
		s.logger.Warn("embedder unreachable", zap.Error(err))
		st.Reachable = false
		st.Error = err.Error()
	}
	return st
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("reindex request")
	report, err := s.deps.Indexer.Reindex(r.Context(), s.config.Notes.Root)
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, report)
	case errors.Is(err, indexer.ErrIndexingInProgress):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, indexer.ErrProviderUnavailable):
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(s.config.Retrieval.TopK, s.config.Retrieval.MaxTopK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))

	start := time.Now()
	results, err := s.deps.Retriever.Search(r.Context(), query.Query, query.Limit)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, embedding.ErrProviderFailed) {
			status = http.StatusBadGateway
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Query:     query.Query,
		Results:   results,
		Context:   s.deps.Assembler.Assemble(results),
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

type createSessionRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	sess, err := s.deps.Store.CreateSession(r.Context(), req.Title)
	if err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.deps.Store.ListSessions(r.Context(), 100)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.deps.Store.Messages(r.Context(), chi.URLParam(r, "id"), 0)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

type appendMessageRequest struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var req appendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Role.Valid() {
		s.respondError(w, http.StatusBadRequest, "invalid role")
		return
	}
	msg := &models.Message{SessionID: chi.URLParam(r, "id"), Role: req.Role, Content: req.Content}
	if err := s.deps.Store.AppendMessage(r.Context(), msg); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, msg)
}

type promptRequest struct {
	Input string `json:"input"`
	// Record appends the input to the session as a user message after building the prompt.
	Record bool `json:"record,omitempty"`
}

type promptResponse struct {
	Prompt         string               `json:"prompt"`
	SystemPrompt   string               `json:"system_prompt,omitempty"`
	Context        string               `json:"context"`
	Chunks         []models.ScoredChunk `json:"chunks"`
	Budget         prompt.Result        `json:"budget"`
	RetrievalError string               `json:"retrieval_error,omitempty"`
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		s.respondError(w, http.StatusBadRequest, "input cannot be empty")
		return
	}
	sessionID := chi.URLParam(r, "id")
	turn, err := s.deps.Pipeline.BuildPrompt(r.Context(), sessionID, req.Input)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if req.Record {
		msg := &models.Message{SessionID: sessionID, Role: models.RoleUser, Content: req.Input}
		if err := s.deps.Store.AppendMessage(r.Context(), msg); err != nil {
			s.logger.Warn("failed to record prompt input", zap.Error(err))
		}
	}
	resp := promptResponse{
		Prompt:       turn.Prompt,
		SystemPrompt: turn.SystemPrompt,
		Context:      turn.Context,
		Chunks:       turn.Chunks,
		Budget:       turn.Budget,
	}
	if turn.RetrievalErr != nil {
		resp.RetrievalError = turn.RetrievalErr.Error()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrSessionNotFound) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.logger.Error("conversation store failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/extract"
	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/notes"
	"github.com/hyperjump/kioku/internal/prompt"
	"github.com/hyperjump/kioku/internal/rag"
	"github.com/hyperjump/kioku/internal/retrieval"
	"github.com/hyperjump/kioku/internal/storage"
	"github.com/hyperjump/kioku/internal/vector"
	"github.com/hyperjump/kioku/pkg/utils"
)

// Components holds initialized services.
type Components struct {
	Embedder  embedding.Embedder
	Index     *vector.Holder
	Indexer   *indexer.Indexer
	Retriever *retrieval.Retriever
	Assembler *prompt.Assembler
	Pipeline  *rag.Pipeline
	// Store is nil unless requested; index and search never touch conversations.
	Store *storage.SQLiteStore
}

// Close releases the embedder and the conversation store.
func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	if cfg.Log.File == "" {
		return utils.NewLogger(debug)
	}
	return utils.NewFileLogger(debug, utils.LogFileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}

func embeddingConfig(cfg *config.Config) embedding.Config {
	e := cfg.Embedding
	return embedding.Config{
		Provider:          e.Provider,
		Model:             e.Model,
		ModelPath:         e.ModelPath,
		BaseURL:           e.BaseURL,
		APIKey:            e.APIKey,
		Dimensions:        e.Dimensions,
		MaxTokens:         e.MaxTokens,
		CacheSize:         e.CacheSize,
		Timeout:           time.Duration(e.TimeoutSeconds) * time.Second,
		RequestsPerSecond: e.RequestsPerSecond,
		MaxRetries:        e.MaxRetries,
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, withStore bool) (*Components, error) {
	embedder, err := embedding.New(embeddingConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c := &Components{Embedder: embedder, Index: vector.NewHolder()}

	rc := cfg.Retrieval
	repo := notes.NewFileRepository(cfg.Notes.Extensions, extract.NewExtractor())
	idxOpts := []indexer.IndexerOption{
		indexer.WithLogger(logger.Named("indexer")),
		indexer.WithPersonalFocusTag(rc.PersonalFocusTag),
		indexer.WithChunker(indexer.NewChunker(rc.ChunkMaxChars, rc.ChunkMinChars)),
	}
	if rc.Workers > 0 {
		idxOpts = append(idxOpts, indexer.WithWorkers(rc.Workers))
	}
	c.Indexer = indexer.NewIndexer(repo, embedder, c.Index, idxOpts...)

	c.Retriever = retrieval.NewRetriever(c.Index, embedder, retrieval.Options{
		Enabled:   rc.SemanticSearchOrDefault(),
		Threshold: rc.ThresholdOrDefault(),
	}, retrieval.WithLogger(logger.Named("retrieval")))
	c.Assembler = prompt.NewAssembler(rc.LogTag)

	var history rag.HistoryStore
	if withStore {
		store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize conversation store: %w", err)
		}
		c.Store = store
		history = store
	}

	counter := prompt.NewCounter(cfg.Budget.AdvancedStrategyOrDefault(), logger.Named("budget"))
	c.Pipeline = rag.NewPipeline(c.Retriever, history, prompt.NewBudgeter(counter), rag.Options{
		TopK:           rc.TopK,
		ContextWindow:  cfg.Budget.ContextWindowSize,
		ResponseBuffer: cfg.Budget.ResponseBuffer,
		MinBudget:      cfg.Budget.MinBudget,
		SystemPrompt:   cfg.Budget.SystemPrompt,
		HistoryLimit:   cfg.Budget.HistoryLimit,
	}, rag.WithLogger(logger.Named("rag")), rag.WithAssembler(c.Assembler))
	return c, nil
}

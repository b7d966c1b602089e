// Package retrieval ranks indexed chunks against a query by cosine similarity.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
)

// Options controls retrieval behaviour.
type Options struct {
	Enabled   bool
	Threshold float64
}

// Retriever embeds a query and returns the best matching chunks from the published index.
type Retriever struct {
	index    vector.Reader
	embedder embedding.Embedder
	opts     Options
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for query diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever reading whatever snapshot index currently publishes.
func NewRetriever(index vector.Reader, embedder embedding.Embedder, opts Options, options ...Option) *Retriever {
	r := &Retriever{index: index, embedder: embedder, opts: opts, logger: zap.NewNop()}
	for _, o := range options {
		o(r)
	}
	return r
}

// Threshold returns the minimum similarity a chunk needs to be returned.
func (r *Retriever) Threshold() float64 {
	return r.opts.Threshold
}

// Search returns at most topK chunks scoring at least the threshold, best first.
// Equal scores keep index order. It returns an empty result and nil error when
// retrieval is disabled, the index is empty, the query is blank, or topK is not
// positive. A failed query embedding yields an empty result and an error wrapping
// embedding.ErrProviderFailed and the provider error, which callers may treat as
// "no context".
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]models.ScoredChunk, error) {
	if !r.opts.Enabled || topK <= 0 || strings.TrimSpace(query) == "" {
		return []models.ScoredChunk{}, nil
	}
	snap := r.index.Current()
	if snap.Size() == 0 {
		return []models.ScoredChunk{}, nil
	}

	qvec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed", zap.Error(err))
		return []models.ScoredChunk{}, fmt.Errorf("%w: query embedding: %w", embedding.ErrProviderFailed, err)
	}

	hits, err := snap.Search(ctx, qvec, r.opts.Threshold)
	if err != nil {
		r.logger.Warn("index scan failed", zap.Error(err))
		return []models.ScoredChunk{}, fmt.Errorf("search index: %w", err)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]models.ScoredChunk, len(hits))
	for i, h := range hits {
		out[i] = models.ScoredChunk{EmbeddedChunk: snap.Chunk(h.Position), Score: h.Score, Position: h.Position}
	}
	r.logger.Debug("retrieval finished", zap.Int("candidates", snap.Size()), zap.Int("returned", len(out)))
	return out, nil
}

// Package indexer chunks and embeds the note corpus and publishes the chunk index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/fileid"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/notes"
	"github.com/hyperjump/kioku/internal/vector"
)

// Indexer rebuilds the chunk index from the corpus. At most one rebuild runs at a time.
type Indexer struct {
	repo     notes.Repository
	embedder embedding.Embedder
	index    *vector.Holder
	chunker  *Chunker
	lock     indexLock
	workers  int
	focusTag string
	logger   *zap.Logger

	mu   sync.RWMutex
	last *Report
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for run and per-document events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithWorkers bounds the number of documents embedded concurrently.
func WithWorkers(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// WithPersonalFocusTag sets the front-matter key that marks a note as personal focus.
func WithPersonalFocusTag(tag string) IndexerOption {
	return func(idx *Indexer) {
		if tag != "" {
			idx.focusTag = tag
		}
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *Chunker) IndexerOption {
	return func(idx *Indexer) {
		if c != nil {
			idx.chunker = c
		}
	}
}

// NewIndexer creates an indexer that publishes into index.
func NewIndexer(repo notes.Repository, embedder embedding.Embedder, index *vector.Holder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		repo:     repo,
		embedder: embedder,
		index:    index,
		chunker:  NewChunker(512, 15),
		workers:  runtime.NumCPU(),
		focusTag: "personal-focus",
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IsIndexing reports whether a rebuild is running.
func (idx *Indexer) IsIndexing() bool {
	return idx.lock.held()
}

// LastReport returns the report of the most recent successful run, or nil.
func (idx *Indexer) LastReport() *Report {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.last == nil {
		return nil
	}
	r := *idx.last
	r.Errors = append([]DocumentError(nil), idx.last.Errors...)
	return &r
}

type docResult struct {
	chunks []models.EmbeddedChunk
	err    *DocumentError
}

// Reindex rebuilds the index from every document under root and swaps it in.
// A call made while another run is active returns ErrIndexingInProgress at once.
// Documents that fail are skipped and listed in the report; the previous index
// stays published when the listing fails, the context is cancelled, or the
// provider fails for every document.
func (idx *Indexer) Reindex(ctx context.Context, root string) (*Report, error) {
	if !idx.lock.tryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.release()

	report := &Report{RunID: uuid.New().String(), Root: root, StartedAt: time.Now()}
	log := idx.logger.With(zap.String("run_id", report.RunID))
	log.Info("reindex started", zap.String("root", root))

	listing, err := idx.repo.List(ctx, root)
	if err != nil {
		log.Error("reindex failed to list documents", zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	report.Files = len(listing.Documents) + len(listing.Failures)
	for _, f := range listing.Failures {
		log.Warn("skipping unreadable document", zap.String("path", f.Path), zap.Error(f.Err))
		report.Errors = append(report.Errors, DocumentError{Path: f.Path, Stage: StageRead, Err: f.Err})
	}

	results := make([]docResult, len(listing.Documents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)
	for i, doc := range listing.Documents {
		i, doc := i, doc
		g.Go(func() error {
			results[i] = idx.processDocument(gctx, doc)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		log.Warn("reindex cancelled", zap.Error(err))
		return nil, fmt.Errorf("reindex cancelled: %w", err)
	}

	var (
		chunks           []models.EmbeddedChunk
		dim              int
		attempted        int
		providerFailures int
	)
	for i, res := range results {
		doc := listing.Documents[i]
		if res.err == nil && len(res.chunks) > 0 {
			if dim == 0 {
				dim = len(res.chunks[0].Vector)
			} else if n := len(res.chunks[0].Vector); n != dim {
				res.err = &DocumentError{Path: doc.Path, Stage: StageValidate,
					Err: fmt.Errorf("vector dimension %d does not match index dimension %d", n, dim)}
			}
		}
		if res.err != nil || len(res.chunks) > 0 {
			attempted++
		}
		if res.err != nil {
			if res.err.Stage == StageEmbed && errors.Is(res.err.Err, embedding.ErrProviderFailed) {
				providerFailures++
			}
			log.Warn("skipping document", zap.String("path", doc.Path), zap.String("stage", res.err.Stage), zap.Error(res.err.Err))
			report.Errors = append(report.Errors, *res.err)
			continue
		}
		if len(res.chunks) == 0 {
			report.EmptyFiles++
		}
		report.IndexedFiles++
		chunks = append(chunks, res.chunks...)
	}
	report.SkippedFiles = len(report.Errors)

	if attempted > 0 && providerFailures == attempted {
		log.Error("reindex aborted: embedding provider failed for every document", zap.Int("documents", attempted))
		return nil, fmt.Errorf("%w: %d of %d documents failed", ErrProviderUnavailable, providerFailures, attempted)
	}

	snapshot, err := vector.NewSnapshot(chunks, report.IndexedFiles, idx.embedder.Model())
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	idx.index.Swap(snapshot)

	report.Chunks = len(chunks)
	report.Duration = time.Since(report.StartedAt)
	idx.mu.Lock()
	idx.last = report
	idx.mu.Unlock()

	log.Info("reindex finished",
		zap.Int("files", report.Files),
		zap.Int("indexed", report.IndexedFiles),
		zap.Int("skipped", report.SkippedFiles),
		zap.Int("chunks", report.Chunks),
		zap.Duration("duration", report.Duration))
	return idx.LastReport(), nil
}

// processDocument chunks one document and embeds all of its chunks in a single batch.
func (idx *Indexer) processDocument(ctx context.Context, doc *models.Document) docResult {
	texts := idx.chunker.Split(doc.Body)
	if len(texts) == 0 {
		idx.logger.Debug("document produced no chunks", zap.String("path", doc.Path))
		return docResult{}
	}

	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return docResult{err: &DocumentError{Path: doc.Path, Stage: StageEmbed, Err: err}}
	}
	if len(vectors) != len(texts) {
		return docResult{err: &DocumentError{Path: doc.Path, Stage: StageEmbed,
			Err: fmt.Errorf("%w: got %d vectors for %d chunks", embedding.ErrCountMismatch, len(vectors), len(texts))}}
	}
	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return docResult{err: &DocumentError{Path: doc.Path, Stage: StageValidate,
				Err: fmt.Errorf("inconsistent vector lengths within document")}}
		}
	}

	focus := models.Truthy(doc.FrontMatter[idx.focusTag])
	out := make([]models.EmbeddedChunk, len(texts))
	for i, text := range texts {
		out[i] = models.EmbeddedChunk{
			Chunk: models.Chunk{
				ID:            fileid.ChunkID(doc.ID, i),
				DocumentID:    doc.ID,
				Path:          doc.Path,
				Title:         doc.Title,
				Text:          text,
				Ordinal:       i,
				PersonalFocus: focus,
				Metadata:      models.CloneMetadata(doc.FrontMatter),
			},
			Vector: vectors[i],
		}
	}
	idx.logger.Debug("document embedded", zap.String("path", doc.Path), zap.Int("chunks", len(out)))
	return docResult{chunks: out}
}

package vector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hyperjump/kioku/internal/models"
)

// Snapshot is an immutable in-memory chunk index searched by brute-force cosine scan.
// It is built once per reindex run and never mutated after construction.
type Snapshot struct {
	chunks     []models.EmbeddedChunk
	dimensions int
	documents  int
	model      string
	builtAt    time.Time
}

// Hit is a single scan result. Position is the chunk's index in the snapshot.
type Hit struct {
	Position int
	Score    float64
}

func emptySnapshot() *Snapshot {
	return &Snapshot{}
}

// NewSnapshot builds a snapshot over chunks. All vectors must share one dimension.
// The slice is owned by the snapshot afterwards.
func NewSnapshot(chunks []models.EmbeddedChunk, documents int, model string) (*Snapshot, error) {
	dim := 0
	for i := range chunks {
		n := len(chunks[i].Vector)
		if n == 0 {
			return nil, fmt.Errorf("chunk %s has an empty vector", chunks[i].ID)
		}
		if dim == 0 {
			dim = n
		} else if n != dim {
			return nil, fmt.Errorf("vector dimension mismatch: chunk %s has %d, expected %d", chunks[i].ID, n, dim)
		}
	}
	return &Snapshot{
		chunks:     chunks,
		dimensions: dim,
		documents:  documents,
		model:      model,
		builtAt:    time.Now(),
	}, nil
}

// Size returns the number of chunks.
func (s *Snapshot) Size() int {
	return len(s.chunks)
}

// Dimensions returns the shared vector length, or 0 for an empty snapshot.
func (s *Snapshot) Dimensions() int {
	return s.dimensions
}

// Chunk returns the chunk at position i.
func (s *Snapshot) Chunk(i int) models.EmbeddedChunk {
	return s.chunks[i]
}

// Stats returns a summary of the snapshot.
func (s *Snapshot) Stats() Stats {
	return Stats{
		Chunks:     len(s.chunks),
		Documents:  s.documents,
		Dimensions: s.dimensions,
		Model:      s.model,
		BuiltAt:    s.builtAt,
	}
}

// Search scores every chunk against query, drops hits below threshold, and returns
// the rest by descending score. Equal scores keep snapshot order.
func (s *Snapshot) Search(ctx context.Context, query []float32, threshold float64) ([]Hit, error) {
	if len(s.chunks) == 0 {
		return nil, nil
	}
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), s.dimensions)
	}
	hits := make([]Hit, 0, len(s.chunks))
	for i := range s.chunks {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		score := Cosine(query, s.chunks[i].Vector)
		if score < threshold {
			continue
		}
		hits = append(hits, Hit{Position: i, Score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

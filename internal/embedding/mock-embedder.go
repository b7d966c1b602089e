package embedding

import (
	"context"
	"math"
	"strings"

	"github.com/hyperjump/kioku/pkg/utils"
)

// MockEmbedder is a deterministic, offline embedder. Each lowercased word contributes
// a fixed pseudo-random direction derived from its hash, so texts sharing words score
// higher than unrelated texts and the same text always gets the same embedding.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding based on word hashes.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)
	for _, word := range SplitWords(strings.ToLower(text)) {
		h := HashString(strings.Trim(word, ".,;:!?\"'()[]{}"))
		for i := 0; i < e.dimensions; i++ {
			emb[i] += float32(math.Sin(float64(h * (i + 1))))
		}
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the fixed model identifier "mock".
func (e *MockEmbedder) Model() string {
	return ProviderMock
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}

package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// countingEmbedder records every batch it receives.
type countingEmbedder struct {
	mu      sync.Mutex
	batches [][]string
	short   bool
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.batches = append(c.batches, append([]string(nil), texts...))
	c.mu.Unlock()
	n := len(texts)
	if c.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int { return 2 }
func (c *countingEmbedder) Model() string   { return "counting" }
func (c *countingEmbedder) Close() error    { return nil }

func TestCachedEmbedder_EmbedHitsCache(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, 10)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	a, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	a[0] = 99 // mutating the returned slice must not poison the cache
	b, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(inner.batches) != 1 {
		t.Errorf("expected one inner call, got %d", len(inner.batches))
	}
	if b[0] != 5 {
		t.Errorf("cached vector was mutated: %v", b)
	}
}

func TestCachedEmbedder_BatchSendsOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	c, _ := NewCachedEmbedder(inner, 10)
	ctx := context.Background()
	if _, err := c.Embed(ctx, "bb"); err != nil {
		t.Fatal(err)
	}
	out, err := c.EmbedBatch(ctx, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || out[0][0] != 1 || out[1][0] != 2 || out[2][0] != 3 {
		t.Errorf("unexpected vectors %v", out)
	}
	last := inner.batches[len(inner.batches)-1]
	if len(last) != 2 || last[0] != "a" || last[1] != "ccc" {
		t.Errorf("expected only misses in batch, got %v", last)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestCachedEmbedder_Eviction(t *testing.T) {
	inner := &countingEmbedder{}
	c, _ := NewCachedEmbedder(inner, 2)
	ctx := context.Background()
	for _, s := range []string{"a", "b", "c"} {
		if _, err := c.Embed(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if _, err := c.Embed(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if len(inner.batches) != 4 {
		t.Errorf("evicted entry should be recomputed; calls = %d", len(inner.batches))
	}
}

func TestCachedEmbedder_CountMismatch(t *testing.T) {
	c, _ := NewCachedEmbedder(&countingEmbedder{short: true}, 10)
	_, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrCountMismatch) {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}
}

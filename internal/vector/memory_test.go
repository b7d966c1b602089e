package vector

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/kioku/internal/models"
)

func embedded(id string, vec ...float32) models.EmbeddedChunk {
	return models.EmbeddedChunk{Chunk: models.Chunk{ID: id}, Vector: vec}
}

func TestSnapshot_Search(t *testing.T) {
	snap, err := NewSnapshot([]models.EmbeddedChunk{
		embedded("a", 1, 0, 0),
		embedded("b", 0.9, 0.1, 0),
		embedded("c", 0, 1, 0),
	}, 1, "test")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Size() != 3 || snap.Dimensions() != 3 {
		t.Fatalf("size=%d dims=%d", snap.Size(), snap.Dimensions())
	}

	hits, err := snap.Search(context.Background(), []float32{1, 0, 0}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits above threshold, got %d", len(hits))
	}
	if snap.Chunk(hits[0].Position).ID != "a" || snap.Chunk(hits[1].Position).ID != "b" {
		t.Errorf("unexpected order: %+v", hits)
	}
}

func TestSnapshot_SearchTiesKeepOrder(t *testing.T) {
	chunks := make([]models.EmbeddedChunk, 5)
	for i := range chunks {
		chunks[i] = embedded(fmt.Sprintf("c%d", i), 1, 1)
	}
	snap, err := NewSnapshot(chunks, 1, "test")
	if err != nil {
		t.Fatal(err)
	}
	hits, err := snap.Search(context.Background(), []float32{2, 2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, h := range hits {
		if h.Position != i {
			t.Errorf("tie at rank %d has position %d", i, h.Position)
		}
	}
}

func TestSnapshot_DimensionMismatch(t *testing.T) {
	_, err := NewSnapshot([]models.EmbeddedChunk{embedded("a", 1, 0), embedded("b", 1, 0, 0)}, 1, "test")
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	snap, _ := NewSnapshot([]models.EmbeddedChunk{embedded("a", 1, 0)}, 1, "test")
	if _, err := snap.Search(context.Background(), []float32{1, 0, 0}, 0); err == nil {
		t.Error("expected query dimension error")
	}
}

func TestSnapshot_Empty(t *testing.T) {
	snap, err := NewSnapshot(nil, 0, "test")
	if err != nil {
		t.Fatal(err)
	}
	hits, err := snap.Search(context.Background(), []float32{1}, 0)
	if err != nil || hits != nil {
		t.Errorf("empty snapshot should return nil, nil; got %v, %v", hits, err)
	}
}

func TestHolder_Swap(t *testing.T) {
	h := NewHolder()
	if h.Current() == nil || h.Current().Size() != 0 {
		t.Fatal("new holder should publish an empty snapshot")
	}
	next, _ := NewSnapshot([]models.EmbeddedChunk{embedded("a", 1)}, 1, "m")
	prev := h.Swap(next)
	if prev.Size() != 0 {
		t.Error("previous snapshot should be the empty one")
	}
	if h.Current() != next {
		t.Error("Current should return the swapped snapshot")
	}
	if st := h.Current().Stats(); st.Chunks != 1 || st.Model != "m" || st.Documents != 1 {
		t.Errorf("stats = %+v", st)
	}
}

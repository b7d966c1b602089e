package models

import "testing"

func chunkAt(chunks []EmbeddedChunk, i int) EmbeddedChunk {
	return chunks[i]
}

func TestChunk_FlagAndDisplayNameOnValues(t *testing.T) {
	chunks := []EmbeddedChunk{
		{Chunk: Chunk{Path: "a.md", Title: "Standup", Metadata: map[string]interface{}{"log": true}}},
		{Chunk: Chunk{Path: "b.md", Metadata: map[string]interface{}{"log": "Yes"}}},
		{Chunk: Chunk{Path: "c.md", Metadata: map[string]interface{}{"log": "no"}}},
		{Chunk: Chunk{Path: "d.md"}},
	}
	tests := []struct {
		i        int
		wantFlag bool
		wantName string
	}{
		{0, true, "Standup"},
		{1, true, "b.md"},
		{2, false, "c.md"},
		{3, false, "d.md"},
	}
	for _, tt := range tests {
		if got := chunkAt(chunks, tt.i).Flag("log"); got != tt.wantFlag {
			t.Errorf("chunk %d: Flag = %v, want %v", tt.i, got, tt.wantFlag)
		}
		if got := chunkAt(chunks, tt.i).DisplayName(); got != tt.wantName {
			t.Errorf("chunk %d: DisplayName = %q, want %q", tt.i, got, tt.wantName)
		}
	}
}

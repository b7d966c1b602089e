// Package models defines core data structures for notes, chunks, retrieval results, and conversations.
package models

import "time"

// Document is one note read from the corpus.
type Document struct {
	ID          string                 `json:"id"`
	Path        string                 `json:"path"`
	Title       string                 `json:"title"`
	Content     string                 `json:"content"`
	Body        string                 `json:"body"`
	FrontMatter map[string]interface{} `json:"front_matter,omitempty"`
	ModifiedAt  time.Time              `json:"modified_at"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Chunk is a bounded span of a document's body.
type Chunk struct {
	ID            string                 `json:"id"`
	DocumentID    string                 `json:"document_id"`
	Path          string                 `json:"path"`
	Title         string                 `json:"title"`
	Text          string                 `json:"text"`
	Ordinal       int                    `json:"ordinal"`
	PersonalFocus bool                   `json:"personal_focus"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// DisplayName returns the title when set, otherwise the path.
func (c Chunk) DisplayName() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Path
}

// Flag reports whether the metadata key holds a truthy value.
// Accepts booleans and the strings "true" and "yes" (case-insensitive).
func (c Chunk) Flag(key string) bool {
	return Truthy(c.Metadata[key])
}

// EmbeddedChunk is a chunk paired with its embedding vector.
type EmbeddedChunk struct {
	Chunk
	Vector []float32 `json:"-"`
}

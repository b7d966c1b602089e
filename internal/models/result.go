package models

import "math"

// ScoredChunk is a retrieval hit. Position is the chunk's index in the searched
// snapshot and orders ties deterministically.
type ScoredChunk struct {
	EmbeddedChunk
	Score    float64 `json:"score"`
	Position int     `json:"position"`
}

// HasScore reports whether Score is a finite number.
func (s *ScoredChunk) HasScore() bool {
	return !math.IsNaN(s.Score) && !math.IsInf(s.Score, 0)
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query     string        `json:"query"`
	Results   []ScoredChunk `json:"results"`
	Context   string        `json:"context"`
	Total     int           `json:"total"`
	QueryTime int64         `json:"query_time_ms"`
}

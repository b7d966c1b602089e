package models

import (
	"fmt"
	"strings"
)

// SearchQuery is a retrieval request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Validate ensures the query is non-empty and normalizes the limit.
// A zero limit takes defaultLimit; limits above maxLimit are capped.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

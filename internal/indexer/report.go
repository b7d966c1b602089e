package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrIndexingInProgress is returned when Reindex is called while a run is active.
	ErrIndexingInProgress = errors.New("indexing already in progress")
	// ErrProviderUnavailable is returned when every document that needed embeddings
	// failed at the provider, which indicates the provider itself is down.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
)

// Stages at which a single document can fail.
const (
	StageRead     = "read"
	StageEmbed    = "embed"
	StageValidate = "validate"
)

// DocumentError is a per-document failure. The document is skipped and the run continues.
type DocumentError struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Err   error  `json:"-"`
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// MarshalJSON includes the underlying error message.
func (e DocumentError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Path  string `json:"path"`
		Stage string `json:"stage"`
		Error string `json:"error"`
	}{e.Path, e.Stage, msg})
}

// Report summarises one completed reindex run.
type Report struct {
	RunID        string          `json:"run_id"`
	Root         string          `json:"root"`
	StartedAt    time.Time       `json:"started_at"`
	Duration     time.Duration   `json:"duration"`
	Files        int             `json:"files"`
	IndexedFiles int             `json:"indexed_files"`
	EmptyFiles   int             `json:"empty_files"`
	SkippedFiles int             `json:"skipped_files"`
	Chunks       int             `json:"chunks"`
	Errors       []DocumentError `json:"errors,omitempty"`
}

// Messages returns the error strings of all skipped documents.
func (r *Report) Messages() []string {
	out := make([]string, len(r.Errors))
	for i := range r.Errors {
		out[i] = r.Errors[i].Error()
	}
	return out
}

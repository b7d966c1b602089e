// Package cli provides output formatting and an HTTP client for the kioku command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/rag"
	"github.com/hyperjump/kioku/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat accepts "text" or "json"; empty means text.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

const rule = "─────────────────────────────────────────────────────────"

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTime)
	for i := range response.Results {
		r := &response.Results[i]
		fmt.Fprintln(w, rule)
		focus := ""
		if r.PersonalFocus {
			focus = " | personal focus"
		}
		fmt.Fprintf(w, "Rank: %d | Score: %.4f%s\n", i+1, r.Score, focus)
		fmt.Fprintf(w, "Path: %s\n", r.Path)
		if r.Title != "" && r.Title != r.Path {
			fmt.Fprintf(w, "Title: %s\n", r.Title)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(strings.TrimSpace(r.Text), 200))
	}
	return nil
}

// WriteReport writes a reindex report.
func WriteReport(w io.Writer, report *indexer.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Indexed %d of %d file(s) from %s: %d chunk(s) in %s\n",
		report.IndexedFiles, report.Files, report.Root, report.Chunks, report.Duration.Round(time.Millisecond))
	if report.EmptyFiles > 0 {
		fmt.Fprintf(w, "%d file(s) produced no chunks\n", report.EmptyFiles)
	}
	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "Skipped %d file(s):\n", len(report.Errors))
		for _, msg := range report.Messages() {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}
	return nil
}

// WriteTurn writes a built prompt. Text output prints the prompt followed by a
// diagnostic footer on its own lines.
func WriteTurn(w io.Writer, turn *rag.Turn, format OutputFormat) error {
	if format == OutputJSON {
		out := struct {
			*rag.Turn
			RetrievalError string `json:"retrieval_error,omitempty"`
		}{Turn: turn}
		if turn.RetrievalErr != nil {
			out.RetrievalError = turn.RetrievalErr.Error()
		}
		return writeJSON(w, out)
	}
	if turn.SystemPrompt != "" {
		fmt.Fprintf(w, "%s\n\n", turn.SystemPrompt)
	}
	fmt.Fprintln(w, turn.Prompt)
	b := turn.Budget
	fmt.Fprintf(w, "\n# budget: used %d of %d, context %s, history %d kept / %d dropped\n",
		b.Used, b.Budget, inclusion(b.ContextIncluded, len(turn.Chunks)), b.IncludedMessages, b.DroppedMessages)
	if b.Overflow {
		fmt.Fprintln(w, "# warning: input alone exceeds the budget")
	}
	if turn.RetrievalErr != nil {
		fmt.Fprintf(w, "# retrieval failed: %v\n", turn.RetrievalErr)
	}
	return nil
}

func inclusion(included bool, chunks int) string {
	switch {
	case chunks == 0:
		return "none"
	case included:
		return fmt.Sprintf("included (%d chunks)", chunks)
	default:
		return fmt.Sprintf("dropped (%d chunks)", chunks)
	}
}

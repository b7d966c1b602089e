package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
)

// Status is the shape of GET /api/v1/status.
type Status struct {
	Index             vector.Stats           `json:"index"`
	Indexing          bool                   `json:"indexing"`
	LastReport        *indexer.Report        `json:"last_report,omitempty"`
	DatabaseSizeBytes int64                  `json:"database_size_bytes"`
	Config            map[string]interface{} `json:"config,omitempty"`
}

// Client talks to a running kioku server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches the server status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Search runs a query on the server.
func (c *Client) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	var resp models.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/search", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// WriteStatus writes server status.
func WriteStatus(w io.Writer, s *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "chunks:             %d   # chunks in the published index\n", s.Index.Chunks)
	fmt.Fprintf(w, "documents:          %d   # notes that contributed chunks\n", s.Index.Documents)
	fmt.Fprintf(w, "dimensions:         %d\n", s.Index.Dimensions)
	if s.Index.Model != "" {
		fmt.Fprintf(w, "model:              %s\n", s.Index.Model)
	}
	fmt.Fprintf(w, "indexing:           %t\n", s.Indexing)
	fmt.Fprintf(w, "database_bytes:     %d\n", s.DatabaseSizeBytes)
	if s.LastReport != nil {
		fmt.Fprintf(w, "last_run:           %s (%d indexed, %d skipped)\n",
			s.LastReport.StartedAt.Format(time.RFC3339), s.LastReport.IndexedFiles, s.LastReport.SkippedFiles)
	}
	if len(s.Config) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		for _, key := range []string{"notes_root", "embedding_provider", "embedding_dimensions",
			"semantic_search_enabled", "similarity_threshold", "top_k", "context_window_size",
			"advanced_budget", "database_path"} {
			if v, ok := s.Config[key]; ok {
				fmt.Fprintf(w, "%-20s%v\n", key+":", v)
			}
		}
	}
	return nil
}

package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "nomic-embed-text"
)

// OllamaEmbedder calls a local Ollama server. Ollama has no batch endpoint, so
// EmbedBatch issues one request per text.
type OllamaEmbedder struct {
	http       *httpClient
	baseURL    string
	model      string
	dimensions int
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder creates an Ollama embedder from cfg. Dimensions is advisory;
// vectors are returned at whatever length the model produces.
func NewOllamaEmbedder(cfg Config) *OllamaEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 768
	}
	return &OllamaEmbedder{
		http:       newHTTPClient(cfg.Timeout, cfg.RequestsPerSecond, cfg.MaxRetries),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed returns the embedding for text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaResponse
	if err := e.http.postJSON(ctx, e.baseURL+"/api/embeddings", ollamaRequest{Model: e.model, Prompt: text}, &resp); err != nil {
		return nil, fmt.Errorf("%w: ollama: %v", ErrProviderFailed, err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: ollama returned an empty embedding", ErrProviderFailed)
	}
	emb := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		emb[i] = float32(v)
	}
	return emb, nil
}

// EmbedBatch embeds each text in turn and stops at the first failure.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Ping checks the server is reachable via /api/tags without running inference.
func (e *OllamaEmbedder) Ping(ctx context.Context) error {
	if err := e.http.do(ctx, http.MethodGet, e.baseURL+"/api/tags", nil, nil); err != nil {
		return fmt.Errorf("%w: ollama ping: %v", ErrProviderFailed, err)
	}
	return nil
}

// Dimensions returns the configured embedding size.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the Ollama model name.
func (e *OllamaEmbedder) Model() string {
	return e.model
}

// Close is a no-op.
func (e *OllamaEmbedder) Close() error {
	return nil
}

package embedding

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com"
	DefaultOpenAIModel   = "text-embedding-3-small"
	// MaxOpenAIBatch is the largest number of inputs sent in one request.
	MaxOpenAIBatch = 2048
)

// OpenAIEmbedder calls an OpenAI-compatible /v1/embeddings endpoint.
type OpenAIEmbedder struct {
	http       *httpClient
	baseURL    string
	model      string
	dimensions int
}

type openAIRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// NewOpenAIEmbedder creates an OpenAI embedder. An API key is required.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: set embedding.api_key or OPENAI_API_KEY", ErrMissingAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}
	client := newHTTPClient(cfg.Timeout, cfg.RequestsPerSecond, cfg.MaxRetries)
	client.headers["Authorization"] = "Bearer " + cfg.APIKey
	return &OpenAIEmbedder{
		http:       client,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed returns the embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in requests of at most MaxOpenAIBatch inputs.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxOpenAIBatch {
		end := start + MaxOpenAIBatch
		if end > len(texts) {
			end = len(texts)
		}
		part, err := e.call(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, part...)
	}
	if err := checkCount(len(embeddings), len(texts)); err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (e *OpenAIEmbedder) call(ctx context.Context, texts []string) ([][]float32, error) {
	req := openAIRequest{Input: texts, Model: e.model}
	if strings.HasPrefix(e.model, "text-embedding-3") {
		req.Dimensions = e.dimensions
	}
	var resp openAIResponse
	if err := e.http.postJSON(ctx, e.baseURL+"/v1/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: openai: %v", ErrProviderFailed, err)
	}
	if err := checkCount(len(resp.Data), len(texts)); err != nil {
		return nil, err
	}
	sort.SliceStable(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// Dimensions returns the configured embedding size.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the model name.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Close is a no-op.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

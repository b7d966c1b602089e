// Package embedding provides text embedding providers (mock, Ollama, OpenAI, ONNX) and caching.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProviderFailed wraps any failure reported by or while reaching a provider.
	ErrProviderFailed = errors.New("embedding provider failed")
	// ErrCountMismatch means a batch call returned a different number of vectors than inputs.
	ErrCountMismatch = errors.New("embedding count mismatch")
	// ErrUnknownProvider is returned by New for an unrecognised provider name.
	ErrUnknownProvider = errors.New("unknown embedding provider")
	// ErrMissingAPIKey is returned when a hosted provider is selected without credentials.
	ErrMissingAPIKey = errors.New("embedding provider requires an API key")
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns exactly one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Model() string
	Close() error
}

// Pinger is implemented by providers that can check reachability without embedding.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks e when it implements Pinger. Other embedders are assumed reachable.
func Ping(ctx context.Context, e Embedder) error {
	if p, ok := e.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Config selects and tunes a provider. It mirrors the embedding section of the service config.
type Config struct {
	Provider          string
	Model             string
	ModelPath         string
	BaseURL           string
	APIKey            string
	Dimensions        int
	MaxTokens         int
	CacheSize         int
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
}

// checkCount verifies a provider returned one vector per input.
func checkCount(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrCountMismatch, got, want)
	}
	return nil
}

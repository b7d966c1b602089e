package embedding

import (
	"fmt"
	"strings"
)

const (
	ProviderMock   = "mock"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderONNX   = "onnx"
)

// New builds the provider named by cfg.Provider once, wrapped in an LRU cache
// when cfg.CacheSize is positive.
func New(cfg Config) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderMock:
		e = NewMockEmbedder(cfg.Dimensions)
	case ProviderOllama:
		e = NewOllamaEmbedder(cfg)
	case ProviderOpenAI:
		e, err = NewOpenAIEmbedder(cfg)
	case ProviderONNX:
		e, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize <= 0 {
		return e, nil
	}
	cached, err := NewCachedEmbedder(e, cfg.CacheSize)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	return cached, nil
}

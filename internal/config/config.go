// Package config provides configuration loading and structs for the kioku service.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Notes     NotesConfig     `yaml:"notes"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Budget    BudgetConfig    `yaml:"budget"`
	Watch     WatchConfig     `yaml:"watch"`
}

// LogConfig holds log output settings. An empty File logs to stderr only.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the conversation database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// NotesConfig describes the note corpus.
type NotesConfig struct {
	Root       string   `yaml:"root"`
	Extensions []string `yaml:"extensions"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	ModelPath         string  `yaml:"model_path"`
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	Dimensions        int     `yaml:"dimensions"`
	MaxTokens         int     `yaml:"max_tokens"`
	CacheSize         int     `yaml:"cache_size"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries"`
}

// RetrievalConfig holds chunking and semantic search settings.
type RetrievalConfig struct {
	SemanticSearchEnabled *bool    `yaml:"semantic_search_enabled"`
	SimilarityThreshold   *float64 `yaml:"similarity_threshold"`
	TopK                  int      `yaml:"top_k"`
	MaxTopK               int      `yaml:"max_top_k"`
	ChunkMaxChars         int      `yaml:"chunk_max_chars"`
	ChunkMinChars         int      `yaml:"chunk_min_chars"`
	PersonalFocusTag      string   `yaml:"personal_focus_tag"`
	LogTag                string   `yaml:"log_tag"`
	Workers               int      `yaml:"workers"`
}

// SemanticSearchOrDefault returns whether semantic search is on; defaults to true when unset.
func (r *RetrievalConfig) SemanticSearchOrDefault() bool {
	if r.SemanticSearchEnabled != nil {
		return *r.SemanticSearchEnabled
	}
	return true
}

// ThresholdOrDefault returns the minimum similarity score; defaults to 0.5 when unset.
func (r *RetrievalConfig) ThresholdOrDefault() float64 {
	if r.SimilarityThreshold != nil {
		return *r.SimilarityThreshold
	}
	return DefaultSimilarityThreshold
}

// BudgetConfig holds prompt budgeting settings.
type BudgetConfig struct {
	ContextWindowSize             int    `yaml:"context_window_size"`
	ResponseBuffer                int    `yaml:"response_buffer"`
	MinBudget                     int    `yaml:"min_budget"`
	AdvancedBudgetStrategyEnabled *bool  `yaml:"advanced_budget_strategy_enabled"`
	SystemPrompt                  string `yaml:"system_prompt"`
	// HistoryLimit caps the stored messages loaded per prompt; 0 loads the whole session.
	HistoryLimit int `yaml:"history_limit"`
}

// AdvancedStrategyOrDefault returns whether the token estimator is used; defaults to true when unset.
func (b *BudgetConfig) AdvancedStrategyOrDefault() bool {
	if b.AdvancedBudgetStrategyEnabled != nil {
		return *b.AdvancedBudgetStrategyEnabled
	}
	return true
}

// WatchConfig holds note directory watch settings.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Load reads the .env file next to path (if any), parses the config file, applies
// environment overrides and defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	configDir := filepath.Dir(path)
	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Notes.Root = expandPath(cfg.Notes.Root, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv fills secrets and endpoints from the environment. Values already set in
// the file win, except KIOKU_EMBEDDING_PROVIDER which always overrides.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("KIOKU_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if cfg.Embedding.APIKey == "" {
		if v := os.Getenv("KIOKU_EMBEDDING_API_KEY"); v != "" {
			cfg.Embedding.APIKey = v
		} else {
			cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = os.Getenv("KIOKU_EMBEDDING_BASE_URL")
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" paths are relative to the home directory; other relative paths are left alone.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

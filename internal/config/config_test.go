package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "test.db" {
		t.Errorf("database_path = %q", cfg.Storage.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	if got := cfg.Retrieval.ThresholdOrDefault(); got != 0.5 {
		t.Errorf("threshold = %v, want 0.5", got)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("top_k = %d, want 3", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.ChunkMaxChars != 512 || cfg.Retrieval.ChunkMinChars != 15 {
		t.Errorf("chunk bounds = %d/%d", cfg.Retrieval.ChunkMaxChars, cfg.Retrieval.ChunkMinChars)
	}
	if !cfg.Retrieval.SemanticSearchOrDefault() {
		t.Error("semantic search should default to enabled")
	}
	if cfg.Budget.ResponseBuffer != 500 || cfg.Budget.MinBudget != 100 {
		t.Errorf("budget = %+v", cfg.Budget)
	}
	if !cfg.Budget.AdvancedStrategyOrDefault() {
		t.Error("advanced budget strategy should default to enabled")
	}
	if cfg.Embedding.Provider != "mock" {
		t.Errorf("provider = %q", cfg.Embedding.Provider)
	}
}

func TestLoad_explicitZeroThreshold(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
retrieval:
  similarity_threshold: 0
  semantic_search_enabled: false
budget:
  advanced_budget_strategy_enabled: false
`))
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Retrieval.ThresholdOrDefault(); got != 0 {
		t.Errorf("threshold = %v, want 0", got)
	}
	if cfg.Retrieval.SemanticSearchOrDefault() {
		t.Error("semantic search should be disabled")
	}
	if cfg.Budget.AdvancedStrategyOrDefault() {
		t.Error("advanced strategy should be disabled")
	}
}

func TestLoad_historyLimit(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
budget:
  history_limit: 20
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Budget.HistoryLimit != 20 {
		t.Errorf("history limit = %d, want 20", cfg.Budget.HistoryLimit)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/conversations.db"
notes:
  root: "./notes"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Dir(path)
	if want := filepath.Join(dir, "data", "conversations.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "notes"); cfg.Notes.Root != want {
		t.Errorf("Notes.Root = %q, want %q", cfg.Notes.Root, want)
	}
}

func TestLoad_dotEnvSuppliesAPIKey(t *testing.T) {
	t.Setenv("KIOKU_EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("KIOKU_EMBEDDING_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")

	path := writeConfig(t, "embedding:\n  provider: openai\n")
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(envPath, []byte("OPENAI_API_KEY=sk-test\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.Embedding.APIKey)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9100\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.Port = 9200
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.Server.Port != 9200 {
		t.Errorf("port = %d, want 9200", again.Server.Port)
	}
}

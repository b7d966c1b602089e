package config

const (
	DefaultSimilarityThreshold = 0.5
	DefaultTopK                = 3
	DefaultChunkMaxChars       = 512
	DefaultChunkMinChars       = 15
	DefaultResponseBuffer      = 500
	DefaultMinBudget           = 100
	DefaultPersonalFocusTag    = "personal-focus"
	DefaultLogTag              = "log"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8088
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/conversations.db"
	}
	if cfg.Notes.Root == "" {
		cfg.Notes.Root = "./notes"
	}
	if cfg.Notes.Extensions == nil {
		cfg.Notes.Extensions = []string{".md", ".txt", ".pdf", ".docx", ".xlsx", ".rtf", ".odt"}
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 30
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "mock"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 3
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 50
	}
	if cfg.Retrieval.ChunkMaxChars == 0 {
		cfg.Retrieval.ChunkMaxChars = DefaultChunkMaxChars
	}
	if cfg.Retrieval.ChunkMinChars == 0 {
		cfg.Retrieval.ChunkMinChars = DefaultChunkMinChars
	}
	if cfg.Retrieval.PersonalFocusTag == "" {
		cfg.Retrieval.PersonalFocusTag = DefaultPersonalFocusTag
	}
	if cfg.Retrieval.LogTag == "" {
		cfg.Retrieval.LogTag = DefaultLogTag
	}
	if cfg.Budget.ContextWindowSize == 0 {
		cfg.Budget.ContextWindowSize = 4096
	}
	if cfg.Budget.ResponseBuffer == 0 {
		cfg.Budget.ResponseBuffer = DefaultResponseBuffer
	}
	if cfg.Budget.MinBudget == 0 {
		cfg.Budget.MinBudget = DefaultMinBudget
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 2000
	}
}

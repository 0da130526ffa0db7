// Package config loads and persists the docqa application configuration
// from YAML. Missing files fall back to defaults, and partial files are
// backfilled with default values, so a config file only needs to state
// what differs from stock behavior.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of "huggingface", "openai", or "mock".
	Provider    string `yaml:"provider"`
	Host        string `yaml:"host"`
	Model       string `yaml:"model"`
	APITokenEnv string `yaml:"api_token_env"`
	MaxRetries  int    `yaml:"max_retries"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// ChunkingConfig configures how documents are split into chunks.
type ChunkingConfig struct {
	Strategy  string `yaml:"strategy"`
	ChunkSize int    `yaml:"chunk_size"`
	Overlap   int    `yaml:"overlap"`
	MaxTokens int    `yaml:"max_tokens"`
}

// StorageConfig selects and configures the chunk store.
type StorageConfig struct {
	// Type is "memory" or "badger".
	Type string `yaml:"type"`
	// Path is the BadgerDB directory for the badger store.
	Path string `yaml:"path"`
	// SnapshotPath is where the memory store persists its index.
	SnapshotPath string `yaml:"snapshot_path"`
}

// SearchConfig configures query-time behavior.
type SearchConfig struct {
	MinScore float32 `yaml:"min_score"`
	TopK     int     `yaml:"top_k"`
}

// WebConfig configures the HTTP dashboard.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Storage   StorageConfig   `yaml:"storage"`
	Search    SearchConfig    `yaml:"search"`
	Web       WebConfig       `yaml:"web"`
}

// APIToken reads the embedding API token from the configured environment
// variable. Returns an empty string when unset.
func (c *AppConfig) APIToken() string {
	if c.Embedding.APITokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Embedding.APITokenEnv)
}

// EnsureDirs creates the directories the configured storage backend needs.
func (c *AppConfig) EnsureDirs() error {
	dirs := []string{filepath.Dir(c.Storage.SnapshotPath)}
	if c.Storage.Type == "badger" {
		dirs = append(dirs, c.Storage.Path)
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./docqa.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "docqa.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "huggingface"
	}
	if cfg.Embedding.Host == "" {
		cfg.Embedding.Host = "https://api-inference.huggingface.co"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Embedding.APITokenEnv == "" {
		cfg.Embedding.APITokenEnv = "HF_API_TOKEN"
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 3
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 30
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 16
	}

	if cfg.Chunking.Strategy == "" {
		cfg.Chunking.Strategy = "recursive"
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 200
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "memory"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(".docqa", "db")
	}
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = filepath.Join(".docqa", "index.docqa")
	}

	if cfg.Search.MinScore == 0 {
		cfg.Search.MinScore = 0.30
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}

	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}
}

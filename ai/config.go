// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for embedding service providers.
type Config struct {
	// Host is the base URL of the embedding service.
	// Example: "https://api-inference.huggingface.co" for the HuggingFace
	// Inference API, or "http://localhost:11434/v1" for a local
	// OpenAI-compatible server.
	Host string

	// Model is the model identifier to use for text embeddings.
	// Example: "sentence-transformers/all-MiniLM-L6-v2", "text-embedding-3-small"
	Model string

	// APIToken authenticates requests to the embedding service.
	// May be empty for local services that don't require authentication.
	APIToken string

	// MaxRetries is the maximum number of attempts for a single embedding
	// request before giving up. Default: 3
	MaxRetries int

	// RequestTimeout bounds a single HTTP request to the service.
	// Default: 30s
	RequestTimeout time.Duration

	// BatchSize is the number of texts sent per request. Default: 16
	BatchSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIToken sets the API token used to authenticate requests.
func WithAPIToken(token string) ConfigOption {
	return func(c *Config) {
		c.APIToken = token
	}
}

// WithMaxRetries sets the maximum attempts per embedding request.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithBatchSize sets the number of texts sent per request.
func WithBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = n
	}
}

// DefaultConfig returns a Config with sensible defaults for the free
// HuggingFace Inference API.
func DefaultConfig() *Config {
	return &Config{
		Host:           "https://api-inference.huggingface.co",
		Model:          "sentence-transformers/all-MiniLM-L6-v2",
		MaxRetries:     3,
		RequestTimeout: 30 * time.Second,
		BatchSize:      16,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithModel("sentence-transformers/all-MiniLM-L6-v2"),
//	    WithAPIToken(os.Getenv("HF_API_TOKEN")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Trailing slashes are stripped from the host so URL construction is uniform.
func (c *Config) Normalize() {
	c.Host = strings.TrimSuffix(c.Host, "/")
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.MaxRetries < 1 {
		return errors.New("ai config: MaxRetries must be at least 1")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("ai config: RequestTimeout must be positive")
	}
	if c.BatchSize < 1 {
		return errors.New("ai config: BatchSize must be at least 1")
	}
	return nil
}

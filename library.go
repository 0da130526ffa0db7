// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package docqa assembles the question-answering pipeline: a chunk store,
// an embedding provider, and the ingestion, reindexing, and search
// components built on top of them.
package docqa

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/ai/huggingface"
	"github.com/poiesic/docqa/ai/mock"
	"github.com/poiesic/docqa/ai/openai"
	"github.com/poiesic/docqa/chunk"
	"github.com/poiesic/docqa/config"
	"github.com/poiesic/docqa/ingest"
	"github.com/poiesic/docqa/loader"
	"github.com/poiesic/docqa/reindex"
	"github.com/poiesic/docqa/search"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/badger"
	"github.com/poiesic/docqa/storage/memory"
)

// ErrUnknownProvider is returned for an unrecognized embedding provider name.
var ErrUnknownProvider = errors.New("unknown embedding provider")

// ErrUnknownStorage is returned for an unrecognized storage type.
var ErrUnknownStorage = errors.New("unknown storage type")

// Library wires together storage, embedding, chunking, and loading
// according to an application config.
type Library struct {
	cfg      *config.AppConfig
	repo     storage.ChunkRepository
	memStore *memory.Store // non-nil when the memory backend is in use
	provider ai.Provider
	chunker  *chunk.Chunker
	loader   *loader.Loader
	logger   *slog.Logger
}

// Open builds a Library from the given config. For the memory backend an
// existing snapshot is loaded when present; Close writes it back.
func Open(cfg *config.AppConfig) (*Library, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	repo, memStore, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	provider, err := openProvider(cfg)
	if err != nil {
		repo.Close()
		return nil, err
	}

	chunker, err := chunk.NewChunker(
		chunk.WithChunkSize(cfg.Chunking.ChunkSize),
		chunk.WithOverlap(cfg.Chunking.Overlap),
		chunk.WithMaxTokens(cfg.Chunking.MaxTokens),
	)
	if err != nil {
		provider.Close()
		repo.Close()
		return nil, err
	}

	return &Library{
		cfg:      cfg,
		repo:     repo,
		memStore: memStore,
		provider: provider,
		chunker:  chunker,
		loader:   loader.NewLoader(),
		logger:   slog.Default().With("component", "library"),
	}, nil
}

func openStore(cfg *config.AppConfig) (storage.ChunkRepository, *memory.Store, error) {
	switch cfg.Storage.Type {
	case "memory":
		store := memory.NewStore()
		if _, err := os.Stat(cfg.Storage.SnapshotPath); err == nil {
			if err := store.LoadFile(cfg.Storage.SnapshotPath); err != nil {
				store.Close()
				return nil, nil, fmt.Errorf("failed to load snapshot: %w", err)
			}
		}
		return store, store, nil
	case "badger":
		repo, err := badger.NewRepository(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStorage, cfg.Storage.Type)
	}
}

func openProvider(cfg *config.AppConfig) (ai.Provider, error) {
	aiCfg := ai.NewConfig(
		ai.WithHost(cfg.Embedding.Host),
		ai.WithModel(cfg.Embedding.Model),
		ai.WithAPIToken(cfg.APIToken()),
		ai.WithMaxRetries(cfg.Embedding.MaxRetries),
		ai.WithRequestTimeout(time.Duration(cfg.Embedding.TimeoutSecs)*time.Second),
		ai.WithBatchSize(cfg.Embedding.BatchSize),
	)

	switch cfg.Embedding.Provider {
	case "huggingface":
		return huggingface.NewProvider(aiCfg)
	case "openai":
		return openai.NewProvider(aiCfg)
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Embedding.Provider)
	}
}

// Repository exposes the chunk store.
func (l *Library) Repository() storage.ChunkRepository {
	return l.repo
}

// Provider exposes the embedding provider.
func (l *Library) Provider() ai.Provider {
	return l.provider
}

// Config exposes the configuration the library was opened with.
func (l *Library) Config() *config.AppConfig {
	return l.cfg
}

// NewPipeline creates an ingestion pipeline using the library's components.
func (l *Library) NewPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	strategy, err := chunk.ParseStrategy(l.cfg.Chunking.Strategy)
	if err != nil {
		return nil, err
	}
	base := []ingest.Option{
		ingest.WithStrategy(strategy),
		ingest.WithBatchSize(l.cfg.Embedding.BatchSize),
	}
	return ingest.NewPipeline(l.repo, l.provider.Embedder(), l.loader, l.chunker,
		append(base, opts...)...)
}

// NewSearcher creates a searcher using the library's components.
func (l *Library) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{search.WithMinScore(l.cfg.Search.MinScore)}
	return search.NewSearcher(l.repo, l.provider.Embedder(), append(base, opts...)...)
}

// NewReindexer creates a reindexer writing progress to the given writer.
func (l *Library) NewReindexer(progress io.Writer) *reindex.Reindexer {
	return reindex.NewReindexer(l.repo, l.provider.Embedder(), nil, progress)
}

// Save persists the memory store snapshot. It is a no-op for backends
// that persist on their own.
func (l *Library) Save() error {
	if l.memStore == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.cfg.Storage.SnapshotPath), 0o755); err != nil {
		return err
	}
	return l.memStore.SaveFile(l.cfg.Storage.SnapshotPath)
}

// Close saves pending state and releases all resources.
func (l *Library) Close() error {
	if err := l.Save(); err != nil {
		l.logger.Error("error saving snapshot", "err", err)
		return err
	}
	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing embedding provider", "err", err)
	}
	if err := l.repo.Close(); err != nil {
		l.logger.Error("error closing chunk store", "err", err)
		return err
	}
	return nil
}

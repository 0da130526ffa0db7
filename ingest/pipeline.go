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

package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/chunk"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/loader"
	"github.com/poiesic/docqa/storage"
)

const defaultEmbedBatchSize = 16

// Report summarizes one ingestion run.
type Report struct {
	Documents int // documents loaded
	Chunks    int // chunks produced after quality filtering
	Stored    int // chunks embedded and written to storage
	Failed    int // chunks lost to failed embedding batches
}

// Pipeline orchestrates loading, chunking, embedding, and storage.
type Pipeline struct {
	repository storage.ChunkRepository
	embedder   ai.Embedder
	loader     *loader.Loader
	chunker    *chunk.Chunker
	pool       *ants.Pool
	batchSize  int
	strategy   chunk.Strategy
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per request batch.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithStrategy sets the chunking strategy. Default is recursive.
func WithStrategy(strategy chunk.Strategy) Option {
	return func(p *Pipeline) error {
		if _, err := chunk.ParseStrategy(string(strategy)); err != nil {
			return err
		}
		p.strategy = strategy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingest")
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.ChunkRepository,
	embedder ai.Embedder,
	ld *loader.Loader,
	chunker *chunk.Chunker,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if ld == nil {
		return nil, ErrLoaderRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		embedder:   embedder,
		loader:     ld,
		chunker:    chunker,
		pool:       pool,
		batchSize:  defaultEmbedBatchSize,
		strategy:   chunk.StrategyRecursive,
		logger:     slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// IngestDirectory loads every supported file under dir and ingests it.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) (*Report, error) {
	docs, err := p.loader.LoadDirectory(dir)
	if err != nil {
		return nil, err
	}
	return p.IngestDocuments(ctx, docs)
}

// IngestURLs fetches the given pages and ingests them.
func (p *Pipeline) IngestURLs(ctx context.Context, urls []string) (*Report, error) {
	docs, err := p.loader.LoadURLs(ctx, urls)
	if err != nil {
		return nil, err
	}
	return p.IngestDocuments(ctx, docs)
}

// IngestDocuments chunks the documents, embeds the chunks in concurrent
// batches, and stores the results. Failed batches are logged and counted
// in the report; the rest of the run proceeds.
func (p *Pipeline) IngestDocuments(ctx context.Context, docs []core.Document) (*Report, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	chunks, err := p.chunker.Process(docs, p.strategy)
	if err != nil {
		return nil, err
	}

	report := &Report{Documents: len(docs), Chunks: len(chunks)}
	if len(chunks) == 0 {
		p.logger.Warn("no chunks survived quality filtering", "documents", len(docs))
		return report, nil
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		stored int
		failed int
	)

	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.embedAndStore(ctx, batch); err != nil {
				p.logger.Error("embedding batch failed",
					"chunks", len(batch),
					"source", batch[0].Source,
					"err", err)
				mu.Lock()
				failed += len(batch)
				mu.Unlock()
				return
			}
			mu.Lock()
			stored += len(batch)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			failed += len(batch)
			mu.Unlock()
		}
	}
	wg.Wait()

	report.Stored = stored
	report.Failed = failed
	p.logger.Info("ingestion complete",
		"documents", report.Documents,
		"chunks", report.Chunks,
		"stored", report.Stored,
		"failed", report.Failed)
	return report, ctx.Err()
}

func (p *Pipeline) embedAndStore(ctx context.Context, batch []*core.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	for i, c := range batch {
		if i < len(vectors) {
			c.Vector = vectors[i]
		}
	}

	_, err = p.repository.AddChunks(ctx, batch...)
	return err
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

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

// Package memory implements storage.ChunkRepository with an in-process
// map protected by a read-write mutex. The store can be persisted to a
// single snapshot file and restored from it, which keeps small corpora
// fully dependency-free at runtime.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// Store is an in-memory chunk repository.
type Store struct {
	mu     sync.RWMutex
	chunks map[core.ID]*core.Chunk
	closed bool
}

var _ storage.ChunkRepository = (*Store)(nil)

// NewStore creates an empty in-memory repository.
func NewStore() *Store {
	return &Store{chunks: make(map[core.ID]*core.Chunk)}
}

// Close marks the store closed. Subsequent operations fail with
// ErrStorageClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) checkOpen() error {
	if s.closed {
		return storage.ErrStorageClosed
	}
	return nil
}

// AddChunks stores the given chunks, assigning content-based IDs and
// timestamps where missing.
func (s *Store) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, chunk := range chunks {
		if chunk.Id == 0 {
			chunk.Id = core.IDFromContent(chunk.Key())
		}
		if chunk.InsertedAt.IsZero() {
			chunk.InsertedAt = now
		}
		if chunk.UpdatedAt.IsZero() {
			chunk.UpdatedAt = chunk.InsertedAt
		}
		s.chunks[chunk.Id] = chunk
	}
	return chunks, nil
}

func (s *Store) UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, chunk := range chunks {
		if _, ok := s.chunks[chunk.Id]; !ok {
			return nil, fmt.Errorf("chunk %d: %w", chunk.Id, storage.ErrNotFound)
		}
		chunk.UpdatedAt = now
		s.chunks[chunk.Id] = chunk
	}
	return chunks, nil
}

func (s *Store) DeleteChunks(ctx context.Context, ids ...core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	for _, id := range ids {
		if _, ok := s.chunks[id]; !ok {
			return fmt.Errorf("chunk %d: %w", id, storage.ErrNotFound)
		}
		delete(s.chunks, id)
	}
	return nil
}

func (s *Store) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	chunk, ok := s.chunks[id]
	if !ok {
		return nil, fmt.Errorf("chunk %d: %w", id, storage.ErrNotFound)
	}
	return chunk, nil
}

func (s *Store) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var result []*core.Chunk
	for _, id := range ids {
		if chunk, ok := s.chunks[id]; ok {
			result = append(result, chunk)
		}
	}
	return result, nil
}

func (s *Store) GetChunksBySource(ctx context.Context, source string) ([]*core.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var result []*core.Chunk
	for _, chunk := range s.chunks {
		if chunk.Source == source {
			result = append(result, chunk)
		}
	}
	slices.SortFunc(result, func(a, b *core.Chunk) int { return a.Index - b.Index })
	return result, nil
}

func (s *Store) DeleteSource(ctx context.Context, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	removed := 0
	for id, chunk := range s.chunks {
		if chunk.Source == source {
			delete(s.chunks, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Sources(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, chunk := range s.chunks {
		seen[chunk.Source] = true
	}
	sources := make([]string, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	slices.Sort(sources)
	return sources, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return len(s.chunks), nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.chunks = make(map[core.ID]*core.Chunk)
	return nil
}

// FindSimilar performs a linear cosine-similarity scan over all stored
// chunks. Chunks without a vector are skipped.
func (s *Store) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []*core.SearchResult
	for _, chunk := range s.chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(chunk.Vector) == 0 {
			continue
		}
		score := storage.CosineSimilarity(vector, chunk.Vector)
		if score >= minSimilarity {
			results = append(results, &core.SearchResult{Chunk: chunk, Score: score})
		}
	}

	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

package storage

import (
	"context"

	"github.com/poiesic/docqa/core"
)

// Repository provides common storage operations shared by all backends.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with cosine similarity >= minSimilarity, up to limit
	// results, ordered by similarity score (highest first). Chunks without
	// a vector are skipped.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// ChunkRepository provides operations for managing document chunks.
type ChunkRepository interface {
	Repository

	// AddChunks adds one or more chunks to storage.
	// For chunks with ID=0, derives a content-based ID from the chunk key.
	// Sets InsertedAt/UpdatedAt timestamps if not already set.
	// Re-adding a chunk with the same content overwrites the existing entry.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks in place.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// DeleteChunks removes chunks by their IDs.
	// Returns ErrNotFound if any chunk doesn't exist.
	DeleteChunks(ctx context.Context, ids ...core.ID) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetChunksBySource retrieves all chunks for a document source,
	// ordered by chunk index.
	GetChunksBySource(ctx context.Context, source string) ([]*core.Chunk, error)

	// DeleteSource removes all chunks belonging to a document source.
	// Returns the number of chunks removed.
	DeleteSource(ctx context.Context, source string) (int, error)

	// Sources lists the distinct document sources in storage, sorted.
	Sources(ctx context.Context) ([]string, error)

	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Clear removes all chunks from storage.
	Clear(ctx context.Context) error
}

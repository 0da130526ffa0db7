package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

func newTestRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	repo, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testChunk(source string, index int, vector []float32) *core.Chunk {
	return &core.Chunk{
		Content:  "Persistent chunk content used across the badger repository tests.",
		Source:   source,
		Filename: filepath.Base(source),
		FileType: core.FileTypeText,
		Index:    index,
		Strategy: "recursive",
		Vector:   vector,
	}
}

func TestAddAndGetChunk(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	chunk := testChunk("/docs/a.txt", 0, []float32{1, 0})
	added, err := repo.AddChunks(ctx, chunk)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, core.IDFromContent(chunk.Key()), added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := repo.GetChunk(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, chunk.Content, got.Content)
	assert.Equal(t, chunk.Vector, got.Vector)

	_, err = repo.GetChunk(ctx, 99999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReaddingIdenticalContentOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx, testChunk("/docs/a.txt", 0, nil))
	require.NoError(t, err)
	_, err = repo.AddChunks(ctx, testChunk("/docs/a.txt", 0, nil))
	require.NoError(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateChunks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddChunks(ctx, testChunk("/docs/a.txt", 0, nil))
	require.NoError(t, err)

	chunk := added[0]
	chunk.Vector = []float32{0.2, 0.8}
	_, err = repo.UpdateChunks(ctx, chunk)
	require.NoError(t, err)

	got, err := repo.GetChunk(ctx, chunk.Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.2, 0.8}, got.Vector)

	_, err = repo.UpdateChunks(ctx, &core.Chunk{Id: 4242})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateChunksMovesSourceIndex(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddChunks(ctx, testChunk("/docs/old.txt", 0, nil))
	require.NoError(t, err)

	chunk := added[0]
	chunk.Source = "/docs/new.txt"
	_, err = repo.UpdateChunks(ctx, chunk)
	require.NoError(t, err)

	sources, err := repo.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/new.txt"}, sources)
}

func TestDeleteChunks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddChunks(ctx, testChunk("/docs/a.txt", 0, nil))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteChunks(ctx, added[0].Id))
	_, err = repo.GetChunk(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	sources, err := repo.Sources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)

	assert.ErrorIs(t, repo.DeleteChunks(ctx, added[0].Id), storage.ErrNotFound)
}

func TestGetChunksBySourceOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c0 := testChunk("/docs/a.txt", 0, nil)
	c1 := testChunk("/docs/a.txt", 1, nil)
	c1.Content += " Second part."
	c2 := testChunk("/docs/a.txt", 2, nil)
	c2.Content += " Third part."
	other := testChunk("/docs/b.txt", 0, nil)

	_, err := repo.AddChunks(ctx, c2, other, c0, c1)
	require.NoError(t, err)

	chunks, err := repo.GetChunksBySource(ctx, "/docs/a.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "/docs/a.txt", chunk.Source)
	}
}

func TestSourcePrefixDoesNotCollide(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := testChunk("/docs/a", 0, nil)
	ab := testChunk("/docs/ab", 0, nil)
	ab.Content += " Distinct."
	_, err := repo.AddChunks(ctx, a, ab)
	require.NoError(t, err)

	chunks, err := repo.GetChunksBySource(ctx, "/docs/a")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "/docs/a", chunks[0].Source)
}

func TestDeleteSource(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c0 := testChunk("/docs/a.txt", 0, nil)
	c1 := testChunk("/docs/a.txt", 1, nil)
	c1.Content += " Second."
	keep := testChunk("/docs/b.txt", 0, nil)
	_, err := repo.AddChunks(ctx, c0, c1, keep)
	require.NoError(t, err)

	removed, err := repo.DeleteSource(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	removed, err = repo.DeleteSource(ctx, "/docs/missing.txt")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestClear(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddChunks(ctx, testChunk("/docs/a.txt", 0, nil))
	require.NoError(t, err)
	require.NoError(t, repo.Clear(ctx))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	sources, err := repo.Sources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestFindSimilar(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	near := testChunk("/docs/near.txt", 0, []float32{1, 0.05})
	mid := testChunk("/docs/mid.txt", 0, []float32{0.7, 0.7})
	far := testChunk("/docs/far.txt", 0, []float32{-1, 0})
	unembedded := testChunk("/docs/raw.txt", 0, nil)
	_, err := repo.AddChunks(ctx, near, mid, far, unembedded)
	require.NoError(t, err)

	results, err := repo.FindSimilar(ctx, []float32{1, 0}, 0.3, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/docs/near.txt", results[0].Chunk.Source)
	assert.Equal(t, "/docs/mid.txt", results[1].Chunk.Source)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	results, err = repo.FindSimilar(ctx, []float32{1, 0}, 0.3, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = repo.FindSimilar(ctx, []float32{1, 0}, 0.3, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewRepository(dir)
	require.NoError(t, err)

	chunk := testChunk("/docs/a.txt", 0, []float32{0.3, 0.4})
	added, err := repo.AddChunks(ctx, chunk)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := NewRepository(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetChunk(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, chunk.Content, got.Content)
	assert.Equal(t, chunk.Vector, got.Vector)
}

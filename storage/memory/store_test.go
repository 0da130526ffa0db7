package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func testChunk(source string, index int, vector []float32) *core.Chunk {
	return &core.Chunk{
		Content:  "Chunk content for testing similarity search and persistence.",
		Source:   source,
		Filename: filepath.Base(source),
		FileType: core.FileTypeText,
		Index:    index,
		Strategy: "recursive",
		Vector:   vector,
	}
}

func TestAddChunksAssignsIDsAndTimestamps(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	chunk := testChunk("/docs/a.txt", 0, []float32{1, 0})
	added, err := s.AddChunks(ctx, chunk)
	require.NoError(t, err)
	require.Len(t, added, 1)

	assert.NotZero(t, added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())
	assert.Equal(t, added[0].InsertedAt, added[0].UpdatedAt)
	assert.Equal(t, core.IDFromContent(chunk.Key()), added[0].Id)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddChunksIsIdempotentPerContent(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.AddChunks(ctx, testChunk("/docs/a.txt", 0, nil))
	require.NoError(t, err)
	_, err = s.AddChunks(ctx, testChunk("/docs/a.txt", 0, nil))
	require.NoError(t, err)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same source/index/content collapses to one chunk")
}

func TestGetChunkNotFound(t *testing.T) {
	s := NewStore()
	defer s.Close()

	_, err := s.GetChunk(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateChunks(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	added, err := s.AddChunks(ctx, testChunk("/docs/a.txt", 0, nil))
	require.NoError(t, err)

	chunk := added[0]
	chunk.Vector = []float32{0.5, 0.5}
	updated, err := s.UpdateChunks(ctx, chunk)
	require.NoError(t, err)
	assert.True(t, updated[0].UpdatedAt.After(updated[0].InsertedAt) ||
		updated[0].UpdatedAt.Equal(updated[0].InsertedAt))

	got, err := s.GetChunk(ctx, chunk.Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, got.Vector)

	_, err = s.UpdateChunks(ctx, &core.Chunk{Id: 12345})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteChunks(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	added, err := s.AddChunks(ctx, testChunk("/docs/a.txt", 0, nil))
	require.NoError(t, err)

	require.NoError(t, s.DeleteChunks(ctx, added[0].Id))
	_, err = s.GetChunk(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.DeleteChunks(ctx, added[0].Id), storage.ErrNotFound)
}

func TestSourceOperations(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	a0 := testChunk("/docs/a.txt", 0, nil)
	a1 := testChunk("/docs/a.txt", 1, nil)
	a1.Content += " More."
	b0 := testChunk("/docs/b.txt", 0, nil)
	_, err := s.AddChunks(ctx, a1, a0, b0)
	require.NoError(t, err)

	sources, err := s.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/a.txt", "/docs/b.txt"}, sources)

	chunks, err := s.GetChunksBySource(ctx, "/docs/a.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)

	removed, err := s.DeleteSource(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClear(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.AddChunks(ctx, testChunk("/docs/a.txt", 0, nil))
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFindSimilar(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	near := testChunk("/docs/near.txt", 0, []float32{1, 0.1})
	far := testChunk("/docs/far.txt", 0, []float32{-1, 0})
	unembedded := testChunk("/docs/raw.txt", 0, nil)
	_, err := s.AddChunks(ctx, near, far, unembedded)
	require.NoError(t, err)

	results, err := s.FindSimilar(ctx, []float32{1, 0}, 0.3, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/docs/near.txt", results[0].Chunk.Source)
	assert.Greater(t, results[0].Score, float32(0.9))
}

func TestFindSimilarOrderingAndLimit(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	vectors := [][]float32{{1, 0}, {0.9, 0.1}, {0.5, 0.5}, {0.1, 0.9}}
	for i, v := range vectors {
		chunk := testChunk("/docs/a.txt", i, v)
		chunk.Content += string(rune('a' + i))
		_, err := s.AddChunks(ctx, chunk)
		require.NoError(t, err)
	}

	results, err := s.FindSimilar(ctx, []float32{1, 0}, 0.0, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.Equal(t, 0, results[0].Chunk.Index)
}

func TestFindSimilarInvalidLimit(t *testing.T) {
	s := NewStore()
	defer s.Close()

	_, err := s.FindSimilar(context.Background(), []float32{1}, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestClosedStore(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Close())

	_, err := s.AddChunks(context.Background(), testChunk("/docs/a.txt", 0, nil))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = s.Count(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewStore()
	defer s.Close()
	ctx := context.Background()

	chunks := []*core.Chunk{
		testChunk("/docs/a.txt", 0, []float32{1, 0, 0}),
		testChunk("/docs/b.txt", 0, []float32{0, 1, 0}),
	}
	_, err := s.AddChunks(ctx, chunks...)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index.docqa")
	require.NoError(t, s.SaveFile(path))

	restored := NewStore()
	defer restored.Close()
	require.NoError(t, restored.LoadFile(path))

	count, err := restored.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := restored.GetChunk(ctx, chunks[0].Id)
	require.NoError(t, err)
	assert.Equal(t, chunks[0].Content, got.Content)
	assert.Equal(t, chunks[0].Vector, got.Vector)
	// Snapshot timestamps carry microsecond precision.
	assert.Equal(t, chunks[0].InsertedAt.UnixMicro(), got.InsertedAt.UnixMicro())
}

func TestLoadFileRejectsCorruptSnapshots(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()
	defer s.Close()

	badMagic := filepath.Join(dir, "bad-magic")
	writeFile(t, badMagic, []byte("NOPE\x01\x00"))
	assert.ErrorIs(t, s.LoadFile(badMagic), storage.ErrCorruptSnapshot)

	badVersion := filepath.Join(dir, "bad-version")
	writeFile(t, badVersion, []byte("DQAS\xff\x00"))
	assert.ErrorIs(t, s.LoadFile(badVersion), storage.ErrSnapshotVersion)

	tooShort := filepath.Join(dir, "too-short")
	writeFile(t, tooShort, []byte("DQ"))
	assert.ErrorIs(t, s.LoadFile(tooShort), storage.ErrCorruptSnapshot)
}

func TestLoadFileTruncatedChunkLeavesStoreIntact(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := NewStore()
	defer s.Close()
	_, err := s.AddChunks(ctx, testChunk("/docs/a.txt", 0, []float32{1}))
	require.NoError(t, err)

	path := filepath.Join(dir, "index.docqa")
	require.NoError(t, s.SaveFile(path))

	data := readFile(t, path)
	writeFile(t, path, data[:len(data)-4])

	other := NewStore()
	defer other.Close()
	_, err = other.AddChunks(ctx, testChunk("/docs/keep.txt", 0, nil))
	require.NoError(t, err)

	assert.ErrorIs(t, other.LoadFile(path), storage.ErrCorruptSnapshot)
	count, err := other.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "failed load must not clobber existing data")
}

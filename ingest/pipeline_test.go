package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/ai/mock"
	"github.com/poiesic/docqa/chunk"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/loader"
	"github.com/poiesic/docqa/storage/memory"
)

const paragraph = "The quick brown fox jumps over the lazy dog near the riverbank every single morning without fail."

func testDocs(n int) []core.Document {
	docs := make([]core.Document, n)
	for i := range docs {
		name := string(rune('a'+i)) + ".txt"
		docs[i] = core.Document{
			Id:       core.ID(i + 1),
			Content:  strings.Repeat(paragraph+" ", 5),
			Source:   "/docs/" + name,
			Filename: name,
			FileType: core.FileTypeText,
		}
	}
	return docs
}

func newTestPipeline(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) (*Pipeline, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })

	chunker, err := chunk.NewChunker(chunk.WithChunkSize(200), chunk.WithOverlap(40))
	require.NoError(t, err)

	p, err := NewPipeline(store, embedder, loader.NewLoader(), chunker, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p, store
}

func TestNewPipelineValidation(t *testing.T) {
	store := memory.NewStore()
	defer store.Close()
	chunker, err := chunk.NewChunker()
	require.NoError(t, err)
	embedder := mock.NewMockEmbedder()
	ld := loader.NewLoader()

	_, err = NewPipeline(nil, embedder, ld, chunker)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
	_, err = NewPipeline(store, nil, ld, chunker)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewPipeline(store, embedder, nil, chunker)
	assert.ErrorIs(t, err, ErrLoaderRequired)
	_, err = NewPipeline(store, embedder, ld, nil)
	assert.ErrorIs(t, err, ErrChunkerRequired)
}

func TestIngestDocuments(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	p, store := newTestPipeline(t, embedder, WithBatchSize(2), WithPoolSize(2))

	report, err := p.IngestDocuments(context.Background(), testDocs(2))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Documents)
	assert.Greater(t, report.Chunks, 0)
	assert.Equal(t, report.Chunks, report.Stored)
	assert.Zero(t, report.Failed)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.Stored, count)

	// Every stored chunk carries an embedding.
	sources, err := store.Sources(context.Background())
	require.NoError(t, err)
	for _, source := range sources {
		chunks, err := store.GetChunksBySource(context.Background(), source)
		require.NoError(t, err)
		for _, c := range chunks {
			assert.NotEmpty(t, c.Vector, "chunk %s[%d]", c.Source, c.Index)
		}
	}
}

func TestIngestDocumentsEmpty(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewMockEmbedder())

	_, err := p.IngestDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestIngestDocumentsFailedBatchesAreCounted(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	fail := true
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		// Fail every other batch.
		fail = !fail
		if fail {
			return nil, errors.New("model unavailable")
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, 8)
		}
		return vectors, nil
	}

	p, store := newTestPipeline(t, embedder, WithBatchSize(1), WithPoolSize(1))

	report, err := p.IngestDocuments(context.Background(), testDocs(1))
	require.NoError(t, err)

	assert.Equal(t, report.Chunks, report.Stored+report.Failed)
	assert.Greater(t, report.Failed, 0)
	assert.Greater(t, report.Stored, 0)

	count, countErr := store.Count(context.Background())
	require.NoError(t, countErr)
	assert.Equal(t, report.Stored, count)
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat(paragraph+" ", 5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte(content), 0o644))

	p, store := newTestPipeline(t, mock.NewMockEmbedder())

	report, err := p.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Documents)

	sources, err := store.Sources(context.Background())
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestWithStrategyRejectsUnknown(t *testing.T) {
	store := memory.NewStore()
	defer store.Close()
	chunker, err := chunk.NewChunker()
	require.NoError(t, err)

	_, err = NewPipeline(store, mock.NewMockEmbedder(), loader.NewLoader(), chunker,
		WithStrategy(chunk.Strategy("bogus")))
	assert.ErrorIs(t, err, chunk.ErrUnknownStrategy)
}

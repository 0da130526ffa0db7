package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/ai/mock"
	"github.com/poiesic/docqa/chunk"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/ingest"
	"github.com/poiesic/docqa/loader"
	"github.com/poiesic/docqa/search"
	"github.com/poiesic/docqa/storage/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })

	embedder := mock.NewMockEmbedder()
	chunker, err := chunk.NewChunker(chunk.WithChunkSize(200), chunk.WithOverlap(40))
	require.NoError(t, err)

	ld := loader.NewLoader()
	pipeline, err := ingest.NewPipeline(store, embedder, ld, chunker)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	// Accept any similarity; the mock embedder hashes text.
	searcher, err := search.NewSearcher(store, embedder, search.WithMinScore(-1))
	require.NoError(t, err)

	srv, err := NewServer(searcher, pipeline, store, ld)
	require.NoError(t, err)
	return srv, store
}

func seedChunk(t *testing.T, store *memory.Store, source, content string) {
	t.Helper()
	_, err := store.AddChunks(context.Background(), &core.Chunk{
		Content:  content,
		Source:   source,
		Filename: source,
		FileType: core.FileTypeText,
		Strategy: "recursive",
		Vector:   mock.DeterministicVector(content, 16),
	})
	require.NoError(t, err)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestIndexPage(t *testing.T) {
	srv, store := newTestServer(t)
	seedChunk(t, store, "a.txt", "Some indexed content for the dashboard.")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "1 chunks across 1 documents")
}

func TestQueryEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedChunk(t, store, "vectors.md", "Cosine similarity compares embedding vectors.")

	body := strings.NewReader(`{"query": "cosine similarity", "top_k": 3}`)
	req := httptest.NewRequest(http.MethodPost, "/api/query", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "cosine similarity", resp.Query)
	require.NotEmpty(t, resp.Hits)
	assert.Equal(t, "vectors.md", resp.Hits[0].Source)
}

func TestQueryEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query": ""}`))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Wrong method is rejected by the mux.
	req = httptest.NewRequest(http.MethodGet, "/api/query", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUploadEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	content := strings.Repeat("The quick brown fox jumps over the lazy dog near the river. ", 6)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp uploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "notes.txt", resp.Filename)
	assert.Greater(t, resp.Stored, 0)

	sources, err := store.Sources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, sources)
}

func TestUploadEndpointRejectsUnsupported(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "binary.exe")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0x4d, 0x5a, 0x00})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadEndpointMissingFile(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedChunk(t, store, "a.txt", "First chunk of content.")
	seedChunk(t, store, "b.txt", "Second chunk of content.")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Chunks)
	assert.Equal(t, []string{"a.txt", "b.txt"}, resp.Sources)
}

func TestStatsEndpointEmptyStore(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"chunks": 0, "sources": []}`, rec.Body.String())
}

package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/docqa/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
  <title>Testing Page</title>
  <style>body { color: red; }</style>
</head>
<body>
  <script>console.log("should never appear");</script>
  <h1>Welcome to the documentation</h1>
  <p>This is the first paragraph of visible body text.</p>
  <p>This is the second paragraph of visible body text.</p>
</body>
</html>`

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPage))
	}))
	defer srv.Close()

	l := NewLoader()
	doc, err := l.LoadURL(context.Background(), srv.URL+"/docs/intro")
	require.NoError(t, err)

	assert.Equal(t, core.FileTypeWeb, doc.FileType)
	assert.Equal(t, "intro", doc.Filename)
	assert.Contains(t, doc.Content, "Welcome to the documentation")
	assert.Contains(t, doc.Content, "first paragraph of visible body text")
	assert.NotContains(t, doc.Content, "should never appear")
	assert.NotContains(t, doc.Content, "color: red")
}

func TestLoadURL_SendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(testPage))
	}))
	defer srv.Close()

	l := NewLoader()
	_, err := l.LoadURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, userAgent, gotUA)
}

func TestLoadURL_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	l := NewLoader()
	_, err := l.LoadURL(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status 404")
}

func TestLoadURLs_SkipsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(testPage))
	}))
	defer srv.Close()

	l := NewLoader()
	docs, err := l.LoadURLs(context.Background(), []string{srv.URL + "/good", srv.URL + "/bad"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestURLFilename(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/docs/page.html", "page.html"},
		{"https://example.com/", "example.com"},
		{"https://example.com", "example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, urlFilename(tt.url))
	}
}

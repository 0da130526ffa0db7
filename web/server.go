// Package web serves a minimal dashboard and JSON API over the document
// question-answering pipeline: query, upload, and corpus statistics.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/docqa/ingest"
	"github.com/poiesic/docqa/loader"
	"github.com/poiesic/docqa/search"
	"github.com/poiesic/docqa/storage"
)

// Server hosts the HTTP dashboard and API.
type Server struct {
	searcher *search.Searcher
	pipeline *ingest.Pipeline
	repo     storage.ChunkRepository
	loader   *loader.Loader
	topK     int
	logger   *slog.Logger
	httpSrv  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithTopK sets the default number of results per query. Default is 5.
func WithTopK(topK int) Option {
	return func(s *Server) {
		if topK > 0 {
			s.topK = topK
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger.With("component", "web")
		}
	}
}

// NewServer creates a server over the given pipeline components.
func NewServer(searcher *search.Searcher, pipeline *ingest.Pipeline, repo storage.ChunkRepository, ld *loader.Loader, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, errors.New("searcher required")
	}
	if pipeline == nil {
		return nil, errors.New("ingestion pipeline required")
	}
	if repo == nil {
		return nil, errors.New("chunk repository required")
	}
	if ld == nil {
		ld = loader.NewLoader()
	}

	s := &Server{
		searcher: searcher,
		pipeline: pipeline,
		repo:     repo,
		loader:   ld,
		topK:     search.DefaultMaxHits,
		logger:   slog.Default().With("component", "web"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the HTTP handler serving the dashboard and API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.indexHandler)
	mux.HandleFunc("POST /api/query", s.queryHandler)
	mux.HandleFunc("POST /api/documents", s.uploadHandler)
	mux.HandleFunc("GET /api/stats", s.statsHandler)
	mux.HandleFunc("GET /healthz", s.healthHandler)
	return mux
}

// ListenAndServe starts the server on addr and blocks until it stops.
func (s *Server) ListenAndServe(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("web server listening", "addr", addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops a running server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

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

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/search"
)

// maxUploadBytes caps document uploads at 20MB.
const maxUploadBytes = 20 << 20

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type queryHit struct {
	Content  string  `json:"content"`
	Source   string  `json:"source"`
	Filename string  `json:"filename"`
	Index    int     `json:"index"`
	Header   string  `json:"header,omitempty"`
	Score    float32 `json:"score"`
}

type queryResponse struct {
	Query string     `json:"query"`
	Hits  []queryHit `json:"hits"`
}

// POST /api/query  { "query": "your question", "top_k": 5 }
func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	results, err := s.searcher.Search(r.Context(), req.Query, topK)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}
		s.logger.Error("query failed", "query", req.Query, "err", err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	resp := queryResponse{Query: req.Query, Hits: make([]queryHit, 0, len(results))}
	for _, result := range results {
		resp.Hits = append(resp.Hits, queryHit{
			Content:  result.Chunk.Content,
			Source:   result.Chunk.Source,
			Filename: result.Chunk.Filename,
			Index:    result.Chunk.Index,
			Header:   result.Chunk.Header,
			Score:    result.Score,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
	Stored   int    `json:"stored"`
	Failed   int    `json:"failed"`
}

// POST /api/documents  (multipart form, "file" field)
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// The loaders work with file paths, so stage the upload in a temp
	// directory under its original name to preserve the extension.
	tmpDir, err := os.MkdirTemp("", "docqa-upload-")
	if err != nil {
		http.Error(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(header.Filename))
	tmp, err := os.Create(tmpPath)
	if err != nil {
		http.Error(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		http.Error(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	tmp.Close()

	doc, err := s.loader.LoadFile(tmpPath)
	if err != nil {
		s.logger.Warn("rejected upload", "filename", header.Filename, "err", err)
		http.Error(w, fmt.Sprintf("failed to load document: %v", err), http.StatusBadRequest)
		return
	}
	// The staging path is meaningless to the user; identify the document
	// by its uploaded name.
	doc.Source = header.Filename
	doc.Filename = header.Filename

	report, err := s.pipeline.IngestDocuments(r.Context(), []core.Document{*doc})
	if err != nil {
		s.logger.Error("ingestion failed", "filename", header.Filename, "err", err)
		http.Error(w, "ingestion failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Filename: header.Filename,
		Chunks:   report.Chunks,
		Stored:   report.Stored,
		Failed:   report.Failed,
	})
}

type statsResponse struct {
	Chunks  int      `json:"chunks"`
	Sources []string `json:"sources"`
}

// GET /api/stats
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	count, err := s.repo.Count(r.Context())
	if err != nil {
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	sources, err := s.repo.Sources(r.Context())
	if err != nil {
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, statsResponse{Chunks: count, Sources: sources})
}

// GET /healthz
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

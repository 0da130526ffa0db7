// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/docqa/core"
)

// Loader extracts and normalizes text from files and web pages.
type Loader struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the HTTP client used for web page loading.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a document loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default().With("component", "loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile extracts text from a single file, dispatching on the extension.
// Returns core.ErrEmptyContent (wrapped) if nothing useful was extracted.
func (l *Loader) LoadFile(path string) (*core.Document, error) {
	var (
		text     string
		fileType string
		err      error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		text, err = l.loadText(path)
		fileType = core.FileTypeText
	case ".pdf":
		text, err = l.loadPDF(path)
		fileType = core.FileTypePDF
	case ".docx":
		text, err = l.loadDocx(path)
		fileType = core.FileTypeDocx
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, path)
	}
	if err != nil {
		return nil, err
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%s: %w", path, core.ErrEmptyContent)
	}

	doc := &core.Document{
		Content:  cleaned,
		Source:   path,
		Filename: filepath.Base(path),
		FileType: fileType,
	}
	doc.Id = core.IDFromContent(doc.Source + "\x00" + doc.Content)
	return doc, nil
}

// LoadDirectory recursively loads all supported documents under dir.
// Files that fail to parse are logged and skipped.
func (l *Loader) LoadDirectory(dir string) ([]core.Document, error) {
	var documents []core.Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		doc, err := l.LoadFile(path)
		if err != nil {
			if !errors.Is(err, ErrUnsupportedFileType) {
				l.logger.Warn("skipping unreadable file", "path", path, "err", err)
			}
			return nil
		}

		documents = append(documents, *doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("loaded documents from directory", "dir", dir, "documents", len(documents))
	return documents, nil
}

// LoadURLs loads documents from a list of URLs.
// URLs that fail to load are logged and skipped.
func (l *Loader) LoadURLs(ctx context.Context, urls []string) ([]core.Document, error) {
	var documents []core.Document
	for _, url := range urls {
		doc, err := l.LoadURL(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return documents, ctx.Err()
			}
			l.logger.Warn("skipping unreachable URL", "url", url, "err", err)
			continue
		}
		documents = append(documents, *doc)
	}
	return documents, nil
}

// loadText reads a plain text or markdown file.
func (l *Loader) loadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

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

package chunk

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkoukk/tiktoken-go"

	"github.com/poiesic/docqa/core"
)

// Strategy selects how document text is split into chunks.
type Strategy string

const (
	StrategyRecursive Strategy = "recursive"
	StrategySemantic  Strategy = "semantic"
	StrategyFixed     Strategy = "fixed"
	StrategyHeaders   Strategy = "headers"
)

// ParseStrategy converts a configuration string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRecursive, StrategySemantic, StrategyFixed, StrategyHeaders:
		return Strategy(s), nil
	case "":
		return StrategyRecursive, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200

	// tokenEncoding is used when a token ceiling is configured.
	tokenEncoding = "cl100k_base"
)

// Chunker splits documents into quality-checked chunks. Sizes are measured
// in characters; an optional token ceiling rejects chunks that would exceed
// the embedding model's input window.
type Chunker struct {
	chunkSize int
	overlap   int
	maxTokens int
	encoder   *tiktoken.Tiktoken
	logger    *slog.Logger
}

type Option func(*Chunker) error

func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size <= 0 {
			return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, size)
		}
		c.chunkSize = size
		return nil
	}
}

func WithOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return fmt.Errorf("%w: overlap must be non-negative, got %d", ErrInvalidConfig, overlap)
		}
		c.overlap = overlap
		return nil
	}
}

// WithMaxTokens sets a hard token ceiling per chunk. Zero disables the check.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Chunker) error {
		if maxTokens < 0 {
			return fmt.Errorf("%w: max tokens must be non-negative, got %d", ErrInvalidConfig, maxTokens)
		}
		c.maxTokens = maxTokens
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger.With("component", "chunker")
		return nil
	}
}

func NewChunker(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		logger:    slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			ErrInvalidConfig, c.overlap, c.chunkSize)
	}
	if c.maxTokens > 0 {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to load token encoding: %w", err)
		}
		c.encoder = enc
	}
	return c, nil
}

// piece is an intermediate split result before chunk metadata is attached.
type piece struct {
	content string
	header  string
}

// Split breaks text into pieces using the given strategy. No quality
// filtering is applied here.
func (c *Chunker) Split(text string, strategy Strategy) ([]piece, error) {
	switch strategy {
	case StrategyRecursive:
		return c.splitRecursive(text)
	case StrategySemantic:
		return c.splitSemantic(text), nil
	case StrategyFixed:
		return c.splitFixed(text), nil
	case StrategyHeaders:
		return c.splitHeaders(text), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// Process splits each document and returns the chunks that pass quality
// checks. Chunks failing a rule are logged and dropped rather than failing
// the whole document. Indexes restart at zero for every document.
func (c *Chunker) Process(docs []core.Document, strategy Strategy) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	for i := range docs {
		doc := &docs[i]
		if err := core.ValidateDocument(doc); err != nil {
			return nil, fmt.Errorf("document %q: %w", doc.Source, err)
		}

		pieces, err := c.Split(doc.Content, strategy)
		if err != nil {
			return nil, err
		}

		skipped := 0
		index := 0
		for _, p := range pieces {
			if err := c.checkPiece(p.content); err != nil {
				skipped++
				continue
			}
			chunks = append(chunks, &core.Chunk{
				Content:  p.content,
				Source:   doc.Source,
				Filename: doc.Filename,
				FileType: doc.FileType,
				Index:    index,
				Header:   p.header,
				Strategy: string(strategy),
			})
			index++
		}

		c.logger.Debug("chunked document",
			"source", doc.Source,
			"strategy", strategy,
			"chunks", index,
			"skipped", skipped)
	}
	return chunks, nil
}

func (c *Chunker) checkPiece(content string) error {
	if err := core.CheckChunkQuality(content); err != nil {
		return err
	}
	if c.encoder != nil {
		if n := len(c.encoder.Encode(content, nil, nil)); n > c.maxTokens {
			return fmt.Errorf("chunk exceeds token limit: %d > %d", n, c.maxTokens)
		}
	}
	return nil
}

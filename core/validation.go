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


package core

import (
	"fmt"
	"strings"
	"unicode"
)

// Chunk quality thresholds.
const (
	// MinChunkLength is the minimum number of characters for a useful chunk.
	MinChunkLength = 50

	// MinChunkWords is the minimum number of words for a useful chunk.
	MinChunkWords = 6

	// MinLetterRatio is the minimum fraction of letter characters.
	// Chunks below this are mostly tables of numbers, page furniture, or noise.
	MinLetterRatio = 0.5
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Source must not be empty
//
// NOT validated:
//   - ID (0 is valid; IDs are assigned during ingestion)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if doc.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySource)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Source must not be empty
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the embedding step runs)
//   - ID (0 is valid until ingestion assigns a content hash)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySource)
	}

	return nil
}

// CheckChunkQuality reports whether a chunk's content is worth embedding.
//
// Quality rules:
//   - at least MinChunkLength characters
//   - at least MinChunkWords words
//   - contains sentence-ending punctuation
//   - letters make up at least MinLetterRatio of the content
//
// Returns nil for acceptable chunks, or a sentinel error naming the
// first failed rule.
func CheckChunkQuality(content string) error {
	trimmed := strings.TrimSpace(content)

	if len(trimmed) < MinChunkLength {
		return ErrChunkTooShort
	}

	if len(strings.Fields(trimmed)) < MinChunkWords {
		return ErrChunkTooFewWords
	}

	if !strings.ContainsAny(trimmed, ".!?") {
		return ErrChunkNoSentence
	}

	letters := 0
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if float64(letters)/float64(len([]rune(trimmed))) < MinLetterRatio {
		return ErrChunkLowLetterRatio
	}

	return nil
}

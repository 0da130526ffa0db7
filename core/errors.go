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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptySource indicates the Source field is empty.
	ErrEmptySource = errors.New("source cannot be empty")

	// ErrChunkTooShort indicates a chunk is below the minimum useful length.
	ErrChunkTooShort = errors.New("chunk too short")

	// ErrChunkTooFewWords indicates a chunk does not contain enough words.
	ErrChunkTooFewWords = errors.New("chunk has too few words")

	// ErrChunkNoSentence indicates a chunk contains no sentence-ending punctuation.
	ErrChunkNoSentence = errors.New("chunk has no sentence boundary")

	// ErrChunkLowLetterRatio indicates a chunk is mostly numbers or symbols.
	ErrChunkLowLetterRatio = errors.New("chunk is mostly non-letter characters")
)

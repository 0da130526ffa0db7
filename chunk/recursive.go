package chunk

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// recursiveSeparators are tried in order: paragraph breaks first, then
// lines, sentence punctuation, clauses, words, and finally characters.
var recursiveSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " ", ""}

func (c *Chunker) splitRecursive(text string) ([]piece, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.overlap),
		textsplitter.WithSeparators(recursiveSeparators),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("recursive split failed: %w", err)
	}
	pieces := make([]piece, 0, len(parts))
	for _, part := range parts {
		pieces = append(pieces, piece{content: part})
	}
	return pieces, nil
}

package chunk

import (
	"regexp"
	"strings"
)

var sentenceEndRe = regexp.MustCompile(`[.!?]+\s+`)

// splitSemantic keeps paragraphs intact when they fit, packing consecutive
// paragraphs into a chunk until the size limit is reached. Oversized
// paragraphs fall back to sentence packing.
func (c *Chunker) splitSemantic(text string) []piece {
	var pieces []piece
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, piece{content: strings.TrimSpace(current.String())})
			current.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > c.chunkSize {
			flush()
			pieces = append(pieces, c.packSentences(para)...)
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > c.chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return pieces
}

// packSentences splits an oversized paragraph at sentence boundaries and
// packs the sentences into chunks no larger than the size limit.
func (c *Chunker) packSentences(para string) []piece {
	sentences := splitSentences(para)

	var pieces []piece
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+len(sentence)+1 > c.chunkSize {
			pieces = append(pieces, piece{content: strings.TrimSpace(current.String())})
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		pieces = append(pieces, piece{content: strings.TrimSpace(current.String())})
	}
	return pieces
}

// splitSentences breaks text at sentence-ending punctuation followed by
// whitespace, keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	bounds := sentenceEndRe.FindAllStringIndex(text, -1)
	if len(bounds) == 0 {
		return []string{text}
	}

	var sentences []string
	start := 0
	for _, b := range bounds {
		sentence := strings.TrimSpace(text[start:b[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = b[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

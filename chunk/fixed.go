package chunk

import "strings"

// splitFixed produces fixed-size windows with overlap, breaking only at
// word boundaries so no word is ever cut in half.
func (c *Chunker) splitFixed(text string) []piece {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var pieces []piece
	start := 0
	for start < len(words) {
		length := 0
		end := start
		for end < len(words) {
			wordLen := len(words[end])
			if length > 0 {
				wordLen++ // joining space
			}
			if length+wordLen > c.chunkSize && end > start {
				break
			}
			length += wordLen
			end++
		}

		pieces = append(pieces, piece{content: strings.Join(words[start:end], " ")})
		if end == len(words) {
			break
		}

		// Step back enough whole words to cover the overlap.
		next := end
		back := 0
		for next > start+1 && back < c.overlap {
			next--
			back += len(words[next]) + 1
		}
		start = next
	}
	return pieces
}

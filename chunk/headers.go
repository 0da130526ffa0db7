package chunk

import (
	"regexp"
	"strings"
)

var headerRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// defaultHeader names the content before the first markdown header.
const defaultHeader = "Introduction"

// splitHeaders produces one piece per markdown header section. The header
// line itself stays in the content so the chunk reads naturally; the header
// text is also recorded as metadata. Oversized sections are packed at
// sentence boundaries, all carrying the same header.
func (c *Chunker) splitHeaders(text string) []piece {
	var pieces []piece
	var current strings.Builder
	header := defaultHeader

	flush := func() {
		content := strings.TrimSpace(current.String())
		current.Reset()
		if content == "" {
			return
		}
		if len(content) <= c.chunkSize {
			pieces = append(pieces, piece{content: content, header: header})
			return
		}
		for _, p := range c.packSentences(content) {
			p.header = header
			pieces = append(pieces, p)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			flush()
			header = strings.TrimSpace(m[2])
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()
	return pieces
}

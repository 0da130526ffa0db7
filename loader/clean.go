package loader

import (
	"regexp"
	"strings"
	"unicode"
)

// minLineLength drops page furniture: lone page numbers, orphaned bullets,
// navigation crumbs. Markdown headers are exempt so the header chunking
// strategy still sees section boundaries.
const minLineLength = 10

var (
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	newlineRunRe = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes extracted text:
//
//   - line endings are normalized to \n
//   - non-printable characters are stripped
//   - runs of spaces and tabs collapse to a single space
//   - lines shorter than minLineLength are dropped (unless they are headers)
//   - runs of three or more newlines collapse to a paragraph break
//
// Unlike a flat whitespace collapse, newlines are preserved so paragraph
// and header aware chunking strategies still see document structure.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = stripNonPrintable(text)
	text = spaceRunRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			kept = append(kept, line)
			continue
		}
		if len(line) < minLineLength && !strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}

	text = strings.Join(kept, "\n")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// stripNonPrintable removes control and other unprintable runes,
// keeping newlines and tabs.
func stripNonPrintable(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, text)
}

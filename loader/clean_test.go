package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText_CollapsesSpaces(t *testing.T) {
	got := CleanText("some    text\twith   runs of    spaces inside")
	assert.Equal(t, "some text with runs of spaces inside", got)
}

func TestCleanText_PreservesParagraphs(t *testing.T) {
	got := CleanText("first paragraph of text\n\n\n\n\nsecond paragraph of text")
	assert.Equal(t, "first paragraph of text\n\nsecond paragraph of text", got)
}

func TestCleanText_DropsShortLines(t *testing.T) {
	got := CleanText("12\na real line of body text\np.3\nanother real line of text")
	assert.Equal(t, "a real line of body text\nanother real line of text", got)
}

func TestCleanText_KeepsShortHeaders(t *testing.T) {
	got := CleanText("# Intro\nthis is the introduction section text")
	assert.Equal(t, "# Intro\nthis is the introduction section text", got)
}

func TestCleanText_StripsNonPrintable(t *testing.T) {
	got := CleanText("some text\x00with control\x07characters embedded here")
	assert.Equal(t, "some textwith controlcharacters embedded here", got)
}

func TestCleanText_NormalizesLineEndings(t *testing.T) {
	got := CleanText("windows line endings here\r\nand another text line here")
	assert.Equal(t, "windows line endings here\nand another text line here", got)
}

func TestCleanText_Empty(t *testing.T) {
	assert.Equal(t, "", CleanText("   \n\n \t "))
}

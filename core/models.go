package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated by hashing entity content, so identical content always
// maps to the same ID and re-ingesting a document is idempotent.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// File type labels recorded on documents and chunks.
const (
	FileTypeText = "text"
	FileTypePDF  = "pdf"
	FileTypeDocx = "docx"
	FileTypeWeb  = "web"
)

// Document represents the full normalized text extracted from one source,
// before chunking.
type Document struct {
	Id       ID
	Content  string
	Source   string // file path or URL
	Filename string
	FileType string
}

// Chunk is a bounded substring of a source document, tagged with its
// originating source and position. It may be enriched with an embedding
// vector during processing.
type Chunk struct {
	Id         ID
	Content    string
	Source     string // file path or URL of the originating document
	Filename   string
	FileType   string
	Index      int    // position of the chunk within its document
	Header     string // section header, populated by the header strategy
	Strategy   string // chunking strategy that produced this chunk
	Vector     []float32
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Key returns the string the chunk's content-based ID is derived from.
// Source and index are included so identical text appearing in two
// documents still yields distinct chunks.
func (c *Chunk) Key() string {
	return c.Source + "\x00" + strconv.Itoa(c.Index) + "\x00" + c.Content
}

// SearchResult represents a chunk matched by similarity search,
// with its relevance score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

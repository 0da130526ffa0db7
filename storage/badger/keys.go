package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/docqa/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix = "chkrec"
	chunkSourcePrefix = "chksrc"
)

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeSourceKey generates a composite key for the source index.
// Format: prefix:source\x00id. The NUL separator keeps distinct sources
// from prefix-colliding, and the BigEndian ID keeps entries sorted.
func makeSourceKey(source string, id core.ID) []byte {
	partial := makePartialSourceKey(source)
	buf := make([]byte, len(partial)+8)
	offset := copy(buf, partial)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialSourceKey generates a prefix matching every index entry of
// one source.
func makePartialSourceKey(source string) []byte {
	prefix := chunkSourcePrefix + ":"
	buf := make([]byte, len(prefix)+len(source)+1)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], source)
	buf[offset] = 0
	return buf
}

// sourceFromKey extracts the source string from a source index key.
func sourceFromKey(key []byte) (string, bool) {
	prefix := chunkSourcePrefix + ":"
	// prefix + source + NUL + 8-byte ID
	if len(key) < len(prefix)+9 {
		return "", false
	}
	return string(key[len(prefix) : len(key)-9]), true
}

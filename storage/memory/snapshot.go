package memory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// Snapshot file layout: 4-byte magic, 1-byte format version, varint chunk
// count, then each chunk in MUS encoding.
var snapshotMagic = [4]byte{'D', 'Q', 'A', 'S'}

const snapshotVersion = 1

// SaveFile writes the store contents to path atomically: the snapshot is
// written to a temp file in the same directory and renamed into place.
func (s *Store) SaveFile(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	size := len(snapshotMagic) + 1 + varint.Int.Size(len(s.chunks))
	for _, chunk := range s.chunks {
		size += core.ChunkMUS.Size(*chunk)
	}

	buf := make([]byte, size)
	n := copy(buf, snapshotMagic[:])
	buf[n] = snapshotVersion
	n++
	n += varint.Int.Marshal(len(s.chunks), buf[n:])
	for _, chunk := range s.chunks {
		n += core.ChunkMUS.Marshal(*chunk, buf[n:])
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".docqa-snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// LoadFile replaces the store contents with the chunks from a snapshot
// written by SaveFile. The store is left unchanged on error.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if len(data) < len(snapshotMagic)+1 {
		return fmt.Errorf("%w: file too short", storage.ErrCorruptSnapshot)
	}
	if string(data[:len(snapshotMagic)]) != string(snapshotMagic[:]) {
		return fmt.Errorf("%w: bad magic", storage.ErrCorruptSnapshot)
	}
	n := len(snapshotMagic)
	if data[n] != snapshotVersion {
		return fmt.Errorf("%w: version %d", storage.ErrSnapshotVersion, data[n])
	}
	n++

	count, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrCorruptSnapshot, err)
	}
	n += m
	if count < 0 {
		return fmt.Errorf("%w: negative chunk count", storage.ErrCorruptSnapshot)
	}

	chunks := make(map[core.ID]*core.Chunk, count)
	for i := 0; i < count; i++ {
		chunk, m, err := core.ChunkMUS.Unmarshal(data[n:])
		if err != nil {
			return fmt.Errorf("%w: chunk %d: %v", storage.ErrCorruptSnapshot, i, err)
		}
		n += m
		c := chunk
		chunks[c.Id] = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.chunks = chunks
	return nil
}

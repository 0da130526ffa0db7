package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the storage layer. Chunks are encoded with the
// mus format both in BadgerDB values and in flat-file snapshots.
var (
	IDMUS    = idMUS{}
	ChunkMUS = chunkMUS{}
)

var (
	_ mus.Serializer[ID]    = idMUS{}
	_ mus.Serializer[Chunk] = chunkMUS{}
)

var vectorMUS = ord.NewSliceSer[float32](raw.Float32)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type chunkMUS struct{}

func (s chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.Content, bs[n:])
	n += ord.String.Marshal(c.Source, bs[n:])
	n += ord.String.Marshal(c.Filename, bs[n:])
	n += ord.String.Marshal(c.FileType, bs[n:])
	n += varint.Int.Marshal(c.Index, bs[n:])
	n += ord.String.Marshal(c.Header, bs[n:])
	n += ord.String.Marshal(c.Strategy, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	n += marshalTime(c.InsertedAt, bs[n:])
	n += marshalTime(c.UpdatedAt, bs[n:])
	return n
}

func (s chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var m int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.Content, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Source, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Filename, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.FileType, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Index, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Header, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Strategy, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.Vector, m, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if c.InsertedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += m
	if c.UpdatedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += m
	return
}

func (s chunkMUS) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.Id)
	size += ord.String.Size(c.Content)
	size += ord.String.Size(c.Source)
	size += ord.String.Size(c.Filename)
	size += ord.String.Size(c.FileType)
	size += varint.Int.Size(c.Index)
	size += ord.String.Size(c.Header)
	size += ord.String.Size(c.Strategy)
	size += vectorMUS.Size(c.Vector)
	size += sizeTime(c.InsertedAt)
	size += sizeTime(c.UpdatedAt)
	return size
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	c, n, err := s.Unmarshal(bs)
	_ = c
	return n, err
}

// Timestamps are stored as a zero flag plus Unix microseconds, so the
// zero time round-trips exactly.
func marshalTime(t time.Time, bs []byte) (n int) {
	n = ord.Bool.Marshal(t.IsZero(), bs)
	if t.IsZero() {
		n += varint.Int64.Marshal(0, bs[n:])
	} else {
		n += varint.Int64.Marshal(t.UnixMicro(), bs[n:])
	}
	return n
}

func unmarshalTime(bs []byte) (t time.Time, n int, err error) {
	zero, n, err := ord.Bool.Unmarshal(bs)
	if err != nil {
		return
	}
	micros, m, err := varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	if zero {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	if t.IsZero() {
		return ord.Bool.Size(true) + varint.Int64.Size(0)
	}
	return ord.Bool.Size(false) + varint.Int64.Size(t.UnixMicro())
}

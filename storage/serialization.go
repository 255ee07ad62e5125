// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recall/core"
)

// Format versions. Decoding rejects versions it does not know.
const (
	documentVersion = 1
	chunkVersion    = 1
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalDocument serializes a Document with a leading format version byte.
func MarshalDocument(doc *core.Document) []byte {
	size := 1
	size += varint.Uint64.Size(uint64(doc.Id))
	size += ord.String.Size(doc.OwnerId)
	size += ord.String.Size(doc.Title)
	size += ord.String.Size(doc.Filename)
	size += ord.String.Size(doc.RawContent)
	size += ord.String.Size(doc.Category)
	size += varint.PositiveInt.Size(len(doc.Tags))
	for _, tag := range doc.Tags {
		size += ord.String.Size(tag)
	}
	size += varint.Int64.Size(doc.CreatedAt.UnixNano())
	size += varint.Int64.Size(doc.InsertedAt.UnixNano())
	size += varint.PositiveInt.Size(doc.Length)

	buf := make([]byte, size)
	n := 0
	buf[n] = documentVersion
	n++
	n += varint.Uint64.Marshal(uint64(doc.Id), buf[n:])
	n += ord.String.Marshal(doc.OwnerId, buf[n:])
	n += ord.String.Marshal(doc.Title, buf[n:])
	n += ord.String.Marshal(doc.Filename, buf[n:])
	n += ord.String.Marshal(doc.RawContent, buf[n:])
	n += ord.String.Marshal(doc.Category, buf[n:])
	n += varint.PositiveInt.Marshal(len(doc.Tags), buf[n:])
	for _, tag := range doc.Tags {
		n += ord.String.Marshal(tag, buf[n:])
	}
	n += varint.Int64.Marshal(doc.CreatedAt.UnixNano(), buf[n:])
	n += varint.Int64.Marshal(doc.InsertedAt.UnixNano(), buf[n:])
	varint.PositiveInt.Marshal(doc.Length, buf[n:])
	return buf
}

// UnmarshalDocument deserializes a Document.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: document: empty data", ErrSerializationFailed)
	}
	if data[0] != documentVersion {
		return nil, fmt.Errorf("%w: document version %d", ErrUnknownVersion, data[0])
	}

	doc := &core.Document{}
	d := decoder{data: data, n: 1}

	doc.Id = core.ID(d.uint64())
	doc.OwnerId = d.string()
	doc.Title = d.string()
	doc.Filename = d.string()
	doc.RawContent = d.string()
	doc.Category = d.string()
	tagCount := d.count()
	for i := 0; i < tagCount && d.err == nil; i++ {
		doc.Tags = append(doc.Tags, d.string())
	}
	doc.CreatedAt = d.time()
	doc.InsertedAt = d.time()
	doc.Length = d.count()

	if d.err != nil {
		return nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, d.err)
	}
	return doc, nil
}

// MarshalChunk serializes a Chunk with a leading format version byte.
func MarshalChunk(chunk *core.Chunk) []byte {
	size := 1
	size += varint.Uint64.Size(uint64(chunk.Id))
	size += varint.Uint64.Size(uint64(chunk.DocumentId))
	size += varint.PositiveInt.Size(chunk.Seq)
	size += ord.String.Size(chunk.Content)
	size += varint.PositiveInt.Size(len(chunk.Vector))
	size += len(chunk.Vector) * raw.Float32.Size(0)

	buf := make([]byte, size)
	n := 0
	buf[n] = chunkVersion
	n++
	n += varint.Uint64.Marshal(uint64(chunk.Id), buf[n:])
	n += varint.Uint64.Marshal(uint64(chunk.DocumentId), buf[n:])
	n += varint.PositiveInt.Marshal(chunk.Seq, buf[n:])
	n += ord.String.Marshal(chunk.Content, buf[n:])
	n += varint.PositiveInt.Marshal(len(chunk.Vector), buf[n:])
	for _, v := range chunk.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalChunk deserializes a Chunk.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: chunk: empty data", ErrSerializationFailed)
	}
	if data[0] != chunkVersion {
		return nil, fmt.Errorf("%w: chunk version %d", ErrUnknownVersion, data[0])
	}

	chunk := &core.Chunk{}
	d := decoder{data: data, n: 1}

	chunk.Id = core.ID(d.uint64())
	chunk.DocumentId = core.ID(d.uint64())
	chunk.Seq = d.count()
	chunk.Content = d.string()
	vecLen := d.count()
	if vecLen > 0 && d.err == nil {
		chunk.Vector = make([]float32, 0, vecLen)
		for i := 0; i < vecLen && d.err == nil; i++ {
			chunk.Vector = append(chunk.Vector, d.float32())
		}
	}

	if d.err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, d.err)
	}
	return chunk, nil
}

// decoder tracks offset and first error across sequential unmarshal calls.
type decoder struct {
	data []byte
	n    int
	err  error
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) count() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.PositiveInt.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) time() time.Time {
	if d.err != nil {
		return time.Time{}
	}
	v, n, err := varint.Int64.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return time.Unix(0, v).UTC()
}

func (d *decoder) float32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

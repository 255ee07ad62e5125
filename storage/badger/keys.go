package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/recall/core"
)

// Key prefixes for different data types
const (
	documentPrefix      = "docrec"
	documentOwnerPrefix = "docown"
	chunkPrefix         = "chkrec"
	chunkDocPrefix      = "chkdoc"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeOwnerKey generates a composite key for the owner index.
// Format: prefix:owner\x00id. The NUL keeps owner ids from shadowing each
// other as prefixes, and BigEndian IDs keep iteration order stable.
func makeOwnerKey(ownerId string, id core.ID) []byte {
	prefix := documentOwnerPrefix + ":" + ownerId
	buf := make([]byte, len(prefix)+1+8)
	offset := copy(buf, prefix)
	buf[offset] = 0
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialOwnerKey generates the iteration prefix for one owner's documents.
func makePartialOwnerKey(ownerId string) []byte {
	prefix := documentOwnerPrefix + ":" + ownerId
	buf := make([]byte, len(prefix)+1)
	copy(buf, prefix)
	buf[len(prefix)] = 0
	return buf
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkDocKey generates a composite key for the document index.
// Format: prefix:documentID:seq, BigEndian so iteration yields chunks in
// sequence order.
func makeChunkDocKey(docId core.ID, seq int) []byte {
	prefix := chunkDocPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(seq))
	return buf
}

// makePartialChunkDocKey generates the iteration prefix for one document's chunks.
func makePartialChunkDocKey(docId core.ID) []byte {
	prefix := chunkDocPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docId))
	return buf
}

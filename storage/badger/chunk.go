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


package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &ChunkRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutChunks stores chunks, overwriting existing chunks with the same ID.
func (r *ChunkRepository) PutChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if chunk.DocumentId == 0 {
				return fmt.Errorf("%w: chunk without document", core.ErrInvalidDocument)
			}
			if chunk.Id == 0 {
				chunk.Id = chunkContentID(chunk)
			}

			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			indexKey := makeChunkDocKey(chunk.DocumentId, chunk.Seq)
			if err := tx.Set(indexKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetChunksByDocument retrieves all chunks of a document ordered by Seq.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, docId core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = r.readDocumentChunks(tx, docId)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetChunksByDocuments retrieves the chunks of multiple documents,
// ordered by document ID then Seq.
func (r *ChunkRepository) GetChunksByDocuments(ctx context.Context, docIds ...core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, docId := range docIds {
			chunks, err := r.readDocumentChunks(tx, docId)
			if err != nil {
				return err
			}
			results = append(results, chunks...)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteChunksByDocument removes all chunks of a document.
func (r *ChunkRepository) DeleteChunksByDocument(ctx context.Context, docId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		// Collect first; badger forbids deleting under an open iterator.
		type entry struct {
			indexKey []byte
			chunkId  core.ID
		}
		var entries []entry

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkDocKey(docId)
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			var id core.ID
			err := item.Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}
			entries = append(entries, entry{indexKey: item.KeyCopy(nil), chunkId: id})
		}
		iter.Close()

		for _, e := range entries {
			if err := tx.Delete(makeChunkKey(e.chunkId)); err != nil {
				return err
			}
			if err := tx.Delete(e.indexKey); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

func (r *ChunkRepository) readDocumentChunks(tx *badger.Txn, docId core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialChunkDocKey(docId)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}

		item, err := tx.Get(makeChunkKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue // index entry outlived its chunk
			}
			return nil, err
		}
		var chunk *core.Chunk
		err = item.Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		results = append(results, chunk)
	}
	return results, nil
}

// chunkContentID derives a stable ID from the chunk's position and content.
func chunkContentID(chunk *core.Chunk) core.ID {
	return core.IDFromContent(fmt.Sprintf("%d\x00%d\x00%s", chunk.DocumentId, chunk.Seq, chunk.Content))
}

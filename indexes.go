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

package recall

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/storage"
)

// indexSet holds one lexical index per owner. Indexes are built lazily from
// storage on first use so a restarted process recovers its corpus without an
// explicit reindex step. Index mutations are serialized by the ingestion
// pipeline's per-owner locks; indexSet only guards its own map.
type indexSet struct {
	mu        sync.RWMutex
	indexes   map[string]*index.Index
	hydrated  map[string]bool
	documents storage.DocumentRepository
	logger    *slog.Logger
}

func newIndexSet(documents storage.DocumentRepository, logger *slog.Logger) *indexSet {
	return &indexSet{
		indexes:   make(map[string]*index.Index),
		hydrated:  make(map[string]bool),
		documents: documents,
		logger:    logger.With("component", "index-set"),
	}
}

// Index returns the owner's index, or nil when the owner has no indexed
// documents. Callers that need storage-backed state must call ensure first.
func (s *indexSet) Index(ownerId string) *index.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexes[ownerId]
}

// Add indexes the document for its owner, creating the owner's index on
// first use.
func (s *indexSet) Add(doc *core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ix := s.indexes[doc.OwnerId]
	if ix == nil {
		ix = index.New(index.WithLogger(s.logger))
		s.indexes[doc.OwnerId] = ix
	}
	return ix.Add(doc)
}

// Remove drops the document from the owner's index. Unknown owners and IDs
// are a no-op.
func (s *indexSet) Remove(ownerId string, id core.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ix := s.indexes[ownerId]; ix != nil {
		ix.Remove(id)
	}
}

// ensure hydrates the owner's index from storage once per process lifetime.
// Re-adding documents already indexed by a live pipeline is harmless because
// Add replaces prior versions. Hydration failures leave the owner unhydrated
// so the next call retries.
func (s *indexSet) ensure(ctx context.Context, ownerId string) error {
	s.mu.RLock()
	done := s.hydrated[ownerId]
	s.mu.RUnlock()
	if done {
		return nil
	}

	docs, err := s.documents.GetDocumentsByOwner(ctx, ownerId)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated[ownerId] {
		return nil
	}
	if len(docs) > 0 {
		ix := s.indexes[ownerId]
		if ix == nil {
			ix = index.New(index.WithLogger(s.logger))
			s.indexes[ownerId] = ix
		}
		for _, doc := range docs {
			if err := ix.Add(doc); err != nil {
				s.logger.Warn("could not index stored document",
					"owner", ownerId, "doc", doc.Id, "err", err)
			}
		}
	}
	s.hydrated[ownerId] = true
	return nil
}

// install replaces the owner's index wholesale. Used by snapshot import.
func (s *indexSet) install(ownerId string, ix *index.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[ownerId] = ix
	s.hydrated[ownerId] = true
}

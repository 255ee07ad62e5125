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


package vector

import (
	"log/slog"
	"sort"

	"github.com/poiesic/recall/core"
)

// DefaultThreshold is the minimum similarity for a chunk to count as a match.
const DefaultThreshold = 0.3

// ChunkMatch is a semantic hit: the best chunk of one document.
type ChunkMatch struct {
	DocumentId core.ID
	ChunkId    core.ID
	Seq        int
	Content    string
	Score      float64 // cosine similarity, in practice [0,1] for text embeddings
}

// SearchOptions tunes a similarity search.
type SearchOptions struct {
	Threshold float64 // default DefaultThreshold
	TopK      int     // default 10
}

// Search scores every embedded chunk against the query vector and returns the
// best chunk per document, ordered by score descending. Chunks without
// embeddings are skipped silently; chunks whose embedding length disagrees
// with the query are skipped with a warning since that indicates a corpus
// embedded with a different model.
func Search(query []float32, chunks []*core.Chunk, opts SearchOptions) []ChunkMatch {
	if len(query) == 0 || len(chunks) == 0 {
		return nil
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}

	best := make(map[core.ID]ChunkMatch)
	for _, chunk := range chunks {
		if len(chunk.Vector) == 0 {
			continue // not yet embedded
		}
		sim, err := CosineSimilarity(query, chunk.Vector)
		if err != nil {
			slog.Warn("skipping chunk with mismatched embedding",
				"chunk", chunk.Id, "document", chunk.DocumentId, "err", err)
			continue
		}
		if sim < opts.Threshold {
			continue
		}
		current, seen := best[chunk.DocumentId]
		if !seen || sim > current.Score ||
			(sim == current.Score && chunk.Seq < current.Seq) {
			best[chunk.DocumentId] = ChunkMatch{
				DocumentId: chunk.DocumentId,
				ChunkId:    chunk.Id,
				Seq:        chunk.Seq,
				Content:    chunk.Content,
				Score:      sim,
			}
		}
	}

	matches := make([]ChunkMatch, 0, len(best))
	for _, m := range best {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].DocumentId < matches[j].DocumentId
	})
	if len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches
}

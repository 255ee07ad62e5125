package vector

import (
	"testing"

	"github.com/poiesic/recall/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(docId, chunkId core.ID, seq int, content string, vec []float32) *core.Chunk {
	return &core.Chunk{
		Id:         chunkId,
		DocumentId: docId,
		Seq:        seq,
		Content:    content,
		Vector:     vec,
	}
}

func TestSearch(t *testing.T) {
	query := []float32{1, 0, 0}

	t.Run("empty inputs", func(t *testing.T) {
		assert.Nil(t, Search(nil, []*core.Chunk{chunk(1, 1, 0, "x", query)}, SearchOptions{}))
		assert.Nil(t, Search(query, nil, SearchOptions{}))
	})

	t.Run("ranked by similarity", func(t *testing.T) {
		chunks := []*core.Chunk{
			chunk(1, 10, 0, "close", []float32{0.9, 0.1, 0}),
			chunk(2, 20, 0, "closer", []float32{0.99, 0.01, 0}),
			chunk(3, 30, 0, "far", []float32{0, 0.1, 0.9}),
		}

		matches := Search(query, chunks, SearchOptions{})
		require.Len(t, matches, 2) // "far" is below threshold
		assert.Equal(t, core.ID(2), matches[0].DocumentId)
		assert.Equal(t, core.ID(1), matches[1].DocumentId)
		assert.Greater(t, matches[0].Score, matches[1].Score)
	})

	t.Run("best chunk per document", func(t *testing.T) {
		chunks := []*core.Chunk{
			chunk(1, 10, 0, "weak part", []float32{0.5, 0.5, 0.5}),
			chunk(1, 11, 1, "strong part", []float32{0.95, 0.05, 0}),
			chunk(1, 12, 2, "middling part", []float32{0.7, 0.3, 0}),
		}

		matches := Search(query, chunks, SearchOptions{})
		require.Len(t, matches, 1)
		assert.Equal(t, core.ID(11), matches[0].ChunkId)
		assert.Equal(t, "strong part", matches[0].Content)
	})

	t.Run("unembedded chunks silently excluded", func(t *testing.T) {
		chunks := []*core.Chunk{
			chunk(1, 10, 0, "pending embedding", nil),
			chunk(2, 20, 0, "embedded", []float32{0.9, 0.1, 0}),
		}

		matches := Search(query, chunks, SearchOptions{})
		require.Len(t, matches, 1)
		assert.Equal(t, core.ID(2), matches[0].DocumentId)
	})

	t.Run("mismatched dimensions skipped", func(t *testing.T) {
		chunks := []*core.Chunk{
			chunk(1, 10, 0, "wrong model", []float32{0.9, 0.1}),
			chunk(2, 20, 0, "right model", []float32{0.9, 0.1, 0}),
		}

		matches := Search(query, chunks, SearchOptions{})
		require.Len(t, matches, 1)
		assert.Equal(t, core.ID(2), matches[0].DocumentId)
	})

	t.Run("threshold excludes weak matches", func(t *testing.T) {
		chunks := []*core.Chunk{
			chunk(1, 10, 0, "borderline", []float32{0.31, 0.95, 0}),
		}

		strict := Search(query, chunks, SearchOptions{Threshold: 0.9})
		assert.Empty(t, strict)

		loose := Search(query, chunks, SearchOptions{Threshold: 0.1})
		assert.Len(t, loose, 1)
	})

	t.Run("top k truncation", func(t *testing.T) {
		var chunks []*core.Chunk
		for i := 0; i < 8; i++ {
			chunks = append(chunks, chunk(core.ID(i+1), core.ID(100+i), 0, "c",
				[]float32{1, float32(i) * 0.01, 0}))
		}

		matches := Search(query, chunks, SearchOptions{TopK: 3})
		assert.Len(t, matches, 3)
	})

	t.Run("deterministic on ties", func(t *testing.T) {
		tied := []float32{1, 0, 0}
		chunks := []*core.Chunk{
			chunk(3, 30, 0, "c", tied),
			chunk(1, 10, 0, "a", tied),
			chunk(2, 20, 0, "b", tied),
		}

		first := Search(query, chunks, SearchOptions{})
		require.Len(t, first, 3)
		assert.Equal(t, core.ID(1), first[0].DocumentId)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Search(query, chunks, SearchOptions{}))
		}
	})
}

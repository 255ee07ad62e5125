package ingestion

import (
	"strings"
	"testing"

	"github.com/poiesic/recall/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIntoChunks(t *testing.T) {
	docId := core.ID(42)

	t.Run("empty content", func(t *testing.T) {
		assert.Nil(t, SplitIntoChunks(docId, ""))
	})

	t.Run("whitespace only", func(t *testing.T) {
		assert.Nil(t, SplitIntoChunks(docId, "   \n\t  "))
	})

	t.Run("short content is a single chunk", func(t *testing.T) {
		chunks := SplitIntoChunks(docId, "  A short note about deployment.  ")
		require.Len(t, chunks, 1)
		assert.Equal(t, docId, chunks[0].DocumentId)
		assert.Equal(t, 0, chunks[0].Seq)
		assert.Equal(t, "A short note about deployment.", chunks[0].Content)
		assert.Nil(t, chunks[0].Vector)
	})

	t.Run("long content splits at sentence boundaries", func(t *testing.T) {
		sentence := "Alpha beta gamma delta epsilon zeta eta theta. "
		content := strings.Repeat(sentence, 30)

		chunks := SplitIntoChunks(docId, content)
		require.Greater(t, len(chunks), 1)

		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.Seq)
			assert.LessOrEqual(t, len([]rune(chunk.Content)), chunkSize)
			assert.NotEmpty(t, chunk.Content)
		}
		// Non-final chunks end on a sentence, not mid-word.
		for _, chunk := range chunks[:len(chunks)-1] {
			assert.True(t, strings.HasSuffix(chunk.Content, "."), "chunk should end at a sentence boundary: %q", chunk.Content)
		}
	})

	t.Run("cjk sentence boundaries", func(t *testing.T) {
		sentence := strings.Repeat("这是一个关于分块处理的测试句子", 3) + "。"
		content := strings.Repeat(sentence, 20)

		chunks := SplitIntoChunks(docId, content)
		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks[:len(chunks)-1] {
			assert.True(t, strings.HasSuffix(chunk.Content, "。"))
		}
	})

	t.Run("no boundaries falls back to fixed windows", func(t *testing.T) {
		content := strings.Repeat("a", 1200)

		chunks := SplitIntoChunks(docId, content)
		require.Len(t, chunks, 3)
		assert.Len(t, chunks[0].Content, chunkSize)
		assert.Len(t, chunks[1].Content, chunkSize)
		assert.Len(t, chunks[2].Content, 1200-2*(chunkSize-chunkOverlap))
	})

	t.Run("adjacent chunks overlap", func(t *testing.T) {
		content := strings.Repeat("b", 900)

		chunks := SplitIntoChunks(docId, content)
		require.Len(t, chunks, 2)
		tail := chunks[0].Content[len(chunks[0].Content)-chunkOverlap:]
		head := chunks[1].Content[:chunkOverlap]
		assert.Equal(t, tail, head)
	})
}

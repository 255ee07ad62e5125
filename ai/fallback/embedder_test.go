package fallback

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/poiesic/recall/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedText(t *testing.T) {
	e := NewEmbedder(384)
	ctx := context.Background()

	t.Run("produces vectors of the configured dimension", func(t *testing.T) {
		vec, err := e.EmbedText(ctx, "hello world")
		require.NoError(t, err)
		assert.Len(t, vec, 384)
		assert.Equal(t, 384, e.Dimensions())
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		a, err := e.EmbedText(ctx, "the same sentence")
		require.NoError(t, err)
		b, err := e.EmbedText(ctx, "the same sentence")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("different texts produce different vectors", func(t *testing.T) {
		a, err := e.EmbedText(ctx, "database migration checklist")
		require.NoError(t, err)
		b, err := e.EmbedText(ctx, "sourdough starter feeding schedule")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("unit norm", func(t *testing.T) {
		vec, err := e.EmbedText(ctx, "normalize me please")
		require.NoError(t, err)
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
	})

	t.Run("empty input rejected", func(t *testing.T) {
		_, err := e.EmbedText(ctx, "")
		assert.ErrorIs(t, err, ai.ErrEmptyInput)
	})

	t.Run("overlapping texts are closer than unrelated texts", func(t *testing.T) {
		base, err := e.EmbedText(ctx, "kubernetes pod scheduling and eviction")
		require.NoError(t, err)
		near, err := e.EmbedText(ctx, "kubernetes pod scheduling basics")
		require.NoError(t, err)
		far, err := e.EmbedText(ctx, "grandma's apple pie recipe")
		require.NoError(t, err)

		assert.Greater(t, dot(base, near), dot(base, far))
	})

	t.Run("default dimension", func(t *testing.T) {
		assert.Equal(t, 384, NewEmbedder(0).Dimensions())
	})
}

func TestEmbedTexts(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()

	t.Run("preserves input order", func(t *testing.T) {
		texts := make([]string, 40) // several batches
		for i := range texts {
			texts[i] = fmt.Sprintf("note number %d about topic %d", i, i%7)
		}

		vecs, err := e.EmbedTexts(ctx, texts)
		require.NoError(t, err)
		require.Len(t, vecs, len(texts))

		for i, text := range texts {
			single, err := e.EmbedText(ctx, text)
			require.NoError(t, err)
			assert.Equal(t, single, vecs[i], "vector %d diverged from single embedding", i)
		}
	})

	t.Run("empty slice rejected", func(t *testing.T) {
		_, err := e.EmbedTexts(ctx, nil)
		assert.ErrorIs(t, err, ai.ErrEmptyInput)
	})

	t.Run("empty element rejected", func(t *testing.T) {
		_, err := e.EmbedTexts(ctx, []string{"ok", ""})
		assert.ErrorIs(t, err, ai.ErrEmptyInput)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.EmbedTexts(cancelled, []string{"text"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestProvider(t *testing.T) {
	p := NewProvider(384)

	assert.Equal(t, "fallback", p.Name())
	assert.NotNil(t, p.Embedder())
	assert.Nil(t, p.Generator())
	assert.NoError(t, p.Available(context.Background()))
	assert.NoError(t, p.Close())
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

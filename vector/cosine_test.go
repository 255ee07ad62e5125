package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{0.5, 0.5, 0.7071}
		sim, err := CosineSimilarity(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-6)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-6)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, sim, 1e-6)
	})

	t.Run("scale invariant", func(t *testing.T) {
		a, err := CosineSimilarity([]float32{1, 2, 3}, []float32{3, 2, 1})
		require.NoError(t, err)
		b, err := CosineSimilarity([]float32{10, 20, 30}, []float32{3, 2, 1})
		require.NoError(t, err)
		assert.InDelta(t, a, b, 1e-6)
	})

	t.Run("symmetric", func(t *testing.T) {
		a, err := CosineSimilarity([]float32{1, 2, 3}, []float32{4, 5, 6})
		require.NoError(t, err)
		b, err := CosineSimilarity([]float32{4, 5, 6}, []float32{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("zero vector", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestCosineDistance(t *testing.T) {
	dist, err := CosineDistance([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, dist, 1e-6)

	dist, err = CosineDistance([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, dist, 1e-6)
}

func TestNormalize(t *testing.T) {
	t.Run("scales to unit length", func(t *testing.T) {
		v := []float32{3, 4}
		Normalize(v)
		assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
	})

	t.Run("zero vector untouched", func(t *testing.T) {
		v := []float32{0, 0}
		Normalize(v)
		assert.Equal(t, []float32{0, 0}, v)
	})
}

package vector

import (
	"fmt"
	"math"
)

// Clustering is the result of a k-means run.
type Clustering struct {
	// Centroids are unit-length cluster centers.
	Centroids [][]float32
	// Assignments maps each input vector to a centroid index.
	Assignments []int
	// Iterations is how many passes the run took to converge.
	Iterations int
}

// KMeans clusters the vectors into k groups using cosine distance
// (spherical k-means). Initialization is deterministic: centroids start at
// evenly spaced input vectors, so identical input always yields identical
// clusters. Used for corpus organization, not for retrieval.
func KMeans(vectors [][]float32, k, maxIterations int) (*Clustering, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}
	if k < 1 || k > len(vectors) {
		return nil, fmt.Errorf("%w: k=%d with %d vectors", ErrInvalidClusterCount, k, len(vectors))
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
	}
	if maxIterations <= 0 {
		maxIterations = 50
	}

	centroids := make([][]float32, k)
	stride := len(vectors) / k
	for i := 0; i < k; i++ {
		c := make([]float32, dim)
		copy(c, vectors[i*stride])
		Normalize(c)
		centroids[i] = c
	}

	assignments := make([]int, len(vectors))
	iterations := 0
	for ; iterations < maxIterations; iterations++ {
		changed := false
		for i, v := range vectors {
			nearest := 0
			bestDist := math.Inf(1)
			for c, centroid := range centroids {
				dist, _ := CosineDistance(v, centroid)
				if dist < bestDist {
					bestDist = dist
					nearest = c
				}
			}
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed = true
			}
		}
		if !changed && iterations > 0 {
			break
		}

		// Recompute centroids as the normalized mean of their members.
		// An emptied cluster keeps its previous centroid.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for d, x := range v {
				sums[c][d] += float64(x)
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			next := make([]float32, dim)
			for d := range next {
				next[d] = float32(sums[c][d] / float64(counts[c]))
			}
			Normalize(next)
			centroids[c] = next
		}
	}

	return &Clustering{
		Centroids:   centroids,
		Assignments: assignments,
		Iterations:  iterations,
	}, nil
}

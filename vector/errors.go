package vector

import "errors"

var (
	// ErrDimensionMismatch indicates two vectors of different lengths were
	// compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrNoVectors indicates a clustering call with no usable vectors.
	ErrNoVectors = errors.New("no vectors to cluster")

	// ErrInvalidClusterCount indicates k was not in [1, len(vectors)].
	ErrInvalidClusterCount = errors.New("invalid cluster count")
)

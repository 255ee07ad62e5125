// Package vector implements similarity search over chunk embeddings.
//
// Scoring uses cosine similarity. Document-level results keep only the best
// scoring chunk per document, and chunks without embeddings are silently
// excluded rather than treated as errors. A small k-means implementation over
// cosine distance supports corpus organization; it is not on the retrieval
// path.
package vector

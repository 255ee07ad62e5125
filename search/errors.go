package search

import "errors"

var (
	// ErrIndexProviderRequired is returned when an index provider is not provided.
	ErrIndexProviderRequired = errors.New("index provider required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderSourceRequired is returned when an embedder source is not provided.
	ErrEmbedderSourceRequired = errors.New("embedder source required")

	// ErrAnalyzerRequired is returned when a query analyzer is not provided.
	ErrAnalyzerRequired = errors.New("query analyzer required")
)

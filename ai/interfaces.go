package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the length of the vectors this embedder produces.
	// Mixing embedders with different dimensions in one corpus is invalid.
	Dimensions() int
}

// Generator produces text completions from prompts. Used for query analysis
// and answer synthesis. Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate produces a completion for the request and returns the raw
	// response text. Returns ErrRateLimited when the backend throttles the
	// request and ErrProviderUnavailable when the backend cannot be reached.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management.
type AIProvider interface {
	// Name identifies the provider in logs and selection decisions.
	Name() string

	// Embedder returns the text embedding service, or nil if the provider
	// does not offer embeddings.
	Embedder() Embedder

	// Generator returns the text generation service, or nil if the provider
	// does not offer generation.
	Generator() Generator

	// Available probes the provider. A nil return means the provider is
	// reachable and ready to serve requests. The probe must honor the
	// context deadline.
	Available(ctx context.Context) error

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

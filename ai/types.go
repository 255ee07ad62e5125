package ai

// GenerationRequest describes a single text generation call.
type GenerationRequest struct {
	// System is the system prompt establishing the model's role.
	System string

	// Prompt is the user-facing prompt content.
	Prompt string

	// Temperature controls sampling randomness. Query analysis uses 0
	// for deterministic classification; synthesis uses a small value.
	Temperature float64

	// MaxTokens caps the completion length. Zero means the backend default.
	MaxTokens int

	// JSONMode requests a JSON-only response from backends that support it.
	JSONMode bool
}

// Package openai implements the ai interfaces against OpenAI-compatible
// APIs (OpenAI, Ollama, LocalAI, vLLM). Requests to the generation backend
// are paced with a token-bucket limiter so bursts of concurrent searches do
// not trip upstream rate limits.
package openai

package fallback

import (
	"context"

	"github.com/poiesic/recall/ai"
)

// Provider implements ai.AIProvider with the local deterministic embedder.
// It has no generation service; selection falls through to extractive
// synthesis when this is the only provider left.
type Provider struct {
	embedder *Embedder
}

// NewProvider creates a fallback provider. Intended as the last entry in a
// Selector's priority list.
func NewProvider(dimensions int) ai.AIProvider {
	return &Provider{embedder: NewEmbedder(dimensions)}
}

// Name identifies the provider.
func (p *Provider) Name() string {
	return "fallback"
}

// Embedder returns the deterministic local embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns nil; this provider cannot generate text.
func (p *Provider) Generator() ai.Generator {
	return nil
}

// Available always succeeds; the embedder is pure computation.
func (p *Provider) Available(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}

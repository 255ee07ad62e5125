package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Selector picks the first available provider from a priority-ordered list.
// Probes are bounded by a per-provider timeout so a dead backend cannot stall
// a search. Appending an always-available fallback provider (ai/fallback)
// guarantees embedding selection never fails.
type Selector struct {
	providers    []AIProvider
	probeTimeout time.Duration
	logger       *slog.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithSelectorLogger sets a custom logger.
// Default is slog.Default().
func WithSelectorLogger(logger *slog.Logger) SelectorOption {
	return func(s *Selector) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// WithSelectorProbeTimeout overrides the per-provider probe timeout.
// Default is 3s.
func WithSelectorProbeTimeout(d time.Duration) SelectorOption {
	return func(s *Selector) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// NewSelector creates a selector over the given providers, highest priority
// first. At least one provider is required.
func NewSelector(providers []AIProvider, opts ...SelectorOption) (*Selector, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrProviderUnavailable)
	}
	s := &Selector{
		providers:    providers,
		probeTimeout: 3 * time.Second,
		logger:       slog.Default().With("component", "ai-selector"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Embedder returns the highest-priority available embedder.
func (s *Selector) Embedder(ctx context.Context) (Embedder, error) {
	for _, p := range s.providers {
		if p.Embedder() == nil {
			continue
		}
		if err := s.probe(ctx, p); err != nil {
			s.logger.Warn("embedding provider unavailable", "provider", p.Name(), "err", err)
			continue
		}
		return p.Embedder(), nil
	}
	return nil, fmt.Errorf("%w: no embedding provider responded", ErrProviderUnavailable)
}

// Generator returns the highest-priority available generator. Unlike
// embeddings there is no local fallback for generation; callers degrade to
// extractive answers on ErrProviderUnavailable.
func (s *Selector) Generator(ctx context.Context) (Generator, error) {
	for _, p := range s.providers {
		if p.Generator() == nil {
			continue
		}
		if err := s.probe(ctx, p); err != nil {
			s.logger.Warn("generation provider unavailable", "provider", p.Name(), "err", err)
			continue
		}
		return p.Generator(), nil
	}
	return nil, fmt.Errorf("%w: no generation provider responded", ErrProviderUnavailable)
}

// Close closes all providers, returning the first error encountered.
func (s *Selector) Close() error {
	var firstErr error
	for _, p := range s.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Selector) probe(ctx context.Context, p AIProvider) error {
	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()
	return p.Available(probeCtx)
}

package search

import (
	"time"

	"github.com/poiesic/recall/vector"
)

// Config tunes merging and reranking. Zero values are replaced by the
// defaults from DefaultConfig.
type Config struct {
	// LexicalWeight and SemanticWeight scale each source's score before the
	// max-merge.
	LexicalWeight  float64
	SemanticWeight float64

	// SemanticThreshold is the minimum cosine similarity for a semantic hit.
	SemanticThreshold float64

	// MaxResults is the default result count when the caller does not set one.
	MaxResults int

	// RecencyBoost multiplies scores of documents younger than RecencyWindow
	// for problem-solving queries.
	RecencyBoost  float64
	RecencyWindow time.Duration

	// DetailBoost multiplies scores of results with more than DetailMinRunes
	// of snippet for how-to queries; ConceptBoost does the same for
	// concept-explanation queries.
	DetailBoost    float64
	DetailMinRunes int
	ConceptBoost   float64

	// FastPathMinConfidence gates the curated fast path.
	FastPathMinConfidence float32
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		LexicalWeight:         0.4,
		SemanticWeight:        0.6,
		SemanticThreshold:     vector.DefaultThreshold,
		MaxResults:            10,
		RecencyBoost:          1.2,
		RecencyWindow:         7 * 24 * time.Hour,
		DetailBoost:           1.1,
		DetailMinRunes:        300,
		ConceptBoost:          1.2,
		FastPathMinConfidence: 0.8,
	}
}

func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.LexicalWeight <= 0 {
		c.LexicalWeight = defaults.LexicalWeight
	}
	if c.SemanticWeight <= 0 {
		c.SemanticWeight = defaults.SemanticWeight
	}
	if c.SemanticThreshold <= 0 {
		c.SemanticThreshold = defaults.SemanticThreshold
	}
	if c.MaxResults <= 0 {
		c.MaxResults = defaults.MaxResults
	}
	if c.RecencyBoost <= 0 {
		c.RecencyBoost = defaults.RecencyBoost
	}
	if c.RecencyWindow <= 0 {
		c.RecencyWindow = defaults.RecencyWindow
	}
	if c.DetailBoost <= 0 {
		c.DetailBoost = defaults.DetailBoost
	}
	if c.DetailMinRunes <= 0 {
		c.DetailMinRunes = defaults.DetailMinRunes
	}
	if c.ConceptBoost <= 0 {
		c.ConceptBoost = defaults.ConceptBoost
	}
	if c.FastPathMinConfidence <= 0 {
		c.FastPathMinConfidence = defaults.FastPathMinConfidence
	}
}

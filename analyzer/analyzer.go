// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package analyzer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
)

const (
	// defaultCacheTTL bounds how long an analysis may be reused.
	defaultCacheTTL = 10 * time.Minute

	// defaultCacheSize is the LRU entry limit.
	defaultCacheSize = 512

	// llmPreferenceThreshold is the minimum model confidence at which the
	// model analysis is preferred over the rule analysis.
	llmPreferenceThreshold = 0.5

	// maxEntities caps the merged entity list.
	maxEntities = 10
)

// Context carries ambient hints that sharpen analysis.
type Context struct {
	RecentQueries []string
	Categories    []string
}

// Analyzer produces a QueryAnalysis for each query.
type Analyzer struct {
	generator ai.Generator
	cache     *lru.Cache[core.ID, *cacheEntry]
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithGenerator sets the generation model used for the primary analysis
// path. Without one, analysis is rule-based only.
func WithGenerator(generator ai.Generator) Option {
	return func(a *Analyzer) error {
		a.generator = generator
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithCacheTTL sets how long analyses are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(a *Analyzer) error {
		if ttl > 0 {
			a.ttl = ttl
		}
		return nil
	}
}

// New creates an Analyzer.
func New(opts ...Option) (*Analyzer, error) {
	cache, err := lru.New[core.ID, *cacheEntry](defaultCacheSize)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		cache:  cache,
		ttl:    defaultCacheTTL,
		logger: slog.Default().With("component", "analyzer"),
		now:    time.Now,
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Analyze classifies the query. It never fails: when the model path is
// unavailable or returns unusable output, the rule analysis stands alone.
func (a *Analyzer) Analyze(ctx context.Context, query string, qctx Context) core.QueryAnalysis {
	query = strings.TrimSpace(query)

	key := cacheKey(query, qctx)
	if cached, ok := a.cached(key); ok {
		return cached
	}

	result := analyzeWithRules(query)

	if a.generator != nil {
		llm, err := a.analyzeWithLLM(ctx, query, qctx)
		if err != nil {
			a.logger.Warn("model analysis unavailable, using rules", "err", err)
		} else {
			result = mergeAnalyses(llm, result)
		}
	}

	if len(result.SuggestedQueries) == 0 {
		result.SuggestedQueries = suggestedQueries(result.Entities)
	}

	a.store(key, result)
	return result
}

// mergeAnalyses combines the model and rule analyses. The model result is
// preferred only when it is confident enough; entity lists are unioned
// case-insensitively either way.
func mergeAnalyses(llm, rules core.QueryAnalysis) core.QueryAnalysis {
	base, other := rules, llm
	if float64(llm.Confidence) >= llmPreferenceThreshold {
		base, other = llm, rules
	}

	base.Entities = unionEntities(base.Entities, other.Entities, maxEntities)
	if len(base.SuggestedQueries) == 0 {
		base.SuggestedQueries = other.SuggestedQueries
	}
	return base
}

func unionEntities(primary, secondary []string, limit int) []string {
	seen := make(map[string]bool, len(primary)+len(secondary))
	out := make([]string, 0, limit)
	for _, list := range [][]string{primary, secondary} {
		for _, e := range list {
			e = strings.TrimSpace(e)
			if e == "" {
				continue
			}
			lower := strings.ToLower(e)
			if seen[lower] {
				continue
			}
			seen[lower] = true
			out = append(out, e)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

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


package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/analyzer"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/vector"
	"golang.org/x/sync/errgroup"
)

const (
	// snippetRunes bounds result snippets.
	snippetRunes = 400

	// maxAnalysisCategories bounds the category hints passed to analysis.
	maxAnalysisCategories = 10
)

// IndexProvider yields the lexical index for an owner's corpus.
// A nil index means the owner has no indexed documents.
type IndexProvider interface {
	Index(ownerId string) *index.Index
}

// EmbedderSource selects an embedder, failing when no provider is usable.
// *ai.Selector satisfies this.
type EmbedderSource interface {
	Embedder(ctx context.Context) (ai.Embedder, error)
}

// QueryAnalyzer classifies queries ahead of retrieval.
type QueryAnalyzer interface {
	Analyze(ctx context.Context, query string, qctx analyzer.Context) core.QueryAnalysis
}

// Options are per-request knobs.
type Options struct {
	MaxResults    int
	RecentQueries []string
}

// Response is the coordinator's output. Degraded is set when a retrieval
// source failed and the results cover less than the chosen strategy.
type Response struct {
	Results   []core.ScoredResult
	Analysis  core.QueryAnalysis
	Answer    string // set only by the curated fast path
	Degraded  bool
	ElapsedMs int64
}

// Coordinator orchestrates lexical and semantic retrieval.
type Coordinator struct {
	indexes   IndexProvider
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	embedders EmbedderSource
	analyzer  QueryAnalyzer
	fastPath  *FastPath
	config    Config
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithConfig replaces the default tuning. Zero fields keep their defaults.
func WithConfig(config Config) Option {
	return func(c *Coordinator) error {
		config.normalize()
		c.config = config
		return nil
	}
}

// WithFastPath installs a curated fast path table.
func WithFastPath(fp *FastPath) Option {
	return func(c *Coordinator) error {
		c.fastPath = fp
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates a hybrid retrieval coordinator.
func NewCoordinator(
	indexes IndexProvider,
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	embedders EmbedderSource,
	queryAnalyzer QueryAnalyzer,
	opts ...Option,
) (*Coordinator, error) {
	if indexes == nil {
		return nil, ErrIndexProviderRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedders == nil {
		return nil, ErrEmbedderSourceRequired
	}
	if queryAnalyzer == nil {
		return nil, ErrAnalyzerRequired
	}

	c := &Coordinator{
		indexes:   indexes,
		documents: documents,
		chunks:    chunks,
		embedders: embedders,
		analyzer:  queryAnalyzer,
		config:    DefaultConfig(),
		logger:    slog.Default().With("component", "coordinator"),
		now:       time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Search runs the retrieval pipeline for one query. The only hard failure is
// an empty query; every other problem degrades the response instead.
func (c *Coordinator) Search(ctx context.Context, query, ownerId string, opts Options) (*Response, error) {
	start := c.now()

	if err := core.ValidateQuery(query); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = c.config.MaxResults
	}

	if resp := c.tryFastPath(query); resp != nil {
		resp.ElapsedMs = time.Since(start).Milliseconds()
		return resp, nil
	}

	// Known categories sharpen the analyzer's filter extraction.
	var categories []string
	if ix := c.indexes.Index(ownerId); ix != nil {
		categories = ix.Categories(maxAnalysisCategories)
	}
	analysis := c.analyzer.Analyze(ctx, query, analyzer.Context{
		RecentQueries: opts.RecentQueries,
		Categories:    categories,
	})

	runLexical := analysis.SearchType != core.SearchTypeSemantic
	runSemantic := analysis.SearchType != core.SearchTypeLexical

	var (
		lexical  []index.Match
		semantic []vector.ChunkMatch
		docsById map[core.ID]*core.Document
		semErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	if runLexical {
		g.Go(func() error {
			lexical = c.searchLexical(query, ownerId, analysis, maxResults)
			return nil
		})
	}
	if runSemantic {
		g.Go(func() error {
			semantic, docsById, semErr = c.searchSemantic(gctx, query, ownerId, maxResults)
			return nil
		})
	}
	g.Wait()

	degraded := false
	if semErr != nil {
		c.logger.Warn("semantic retrieval unavailable", "err", semErr)
		degraded = true
	}

	results := c.merge(lexical, semantic, docsById)
	c.hydrate(ctx, results)
	c.rerank(results, analysis.Intent)

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentId < results[j].DocumentId
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return &Response{
		Results:   results,
		Analysis:  analysis,
		Degraded:  degraded,
		ElapsedMs: time.Since(start).Milliseconds(),
	}, nil
}

func (c *Coordinator) tryFastPath(query string) *Response {
	if c.fastPath == nil {
		return nil
	}
	entry, ok := c.fastPath.Match(query)
	if !ok || entry.Confidence < c.config.FastPathMinConfidence || entry.Answer == "" {
		return nil
	}
	return &Response{
		Answer: entry.Answer,
		Analysis: core.QueryAnalysis{
			Intent:     entry.Intent,
			SearchType: core.SearchTypeLexical,
			Complexity: "simple",
			Confidence: entry.Confidence,
		},
	}
}

func (c *Coordinator) searchLexical(query, ownerId string, analysis core.QueryAnalysis, limit int) []index.Match {
	ix := c.indexes.Index(ownerId)
	if ix == nil {
		return nil
	}
	return ix.Search(query, index.SearchOptions{
		TopK:    limit * 2,
		Filters: analysis.Filters,
	})
}

func (c *Coordinator) searchSemantic(ctx context.Context, query, ownerId string, limit int) ([]vector.ChunkMatch, map[core.ID]*core.Document, error) {
	embedder, err := c.embedders.Embedder(ctx)
	if err != nil {
		return nil, nil, err
	}

	queryVec, err := embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	docs, err := c.documents.GetDocumentsByOwner(ctx, ownerId)
	if err != nil {
		return nil, nil, err
	}
	if len(docs) == 0 {
		return nil, nil, nil
	}

	ids := make([]core.ID, len(docs))
	byId := make(map[core.ID]*core.Document, len(docs))
	for i, doc := range docs {
		ids[i] = doc.Id
		byId[doc.Id] = doc
	}

	chunks, err := c.chunks.GetChunksByDocuments(ctx, ids...)
	if err != nil {
		return nil, nil, err
	}

	matches := vector.Search(queryVec, chunks, vector.SearchOptions{
		Threshold: c.config.SemanticThreshold,
		TopK:      limit * 2,
	})
	return matches, byId, nil
}

// merge combines both sources per document. A document present in both
// sources scores max(existing, lex*0.4 + sem*0.6), so it is never penalized
// relative to its stronger single source and a genuine hybrid hit can
// outrank either source alone.
func (c *Coordinator) merge(lexical []index.Match, semantic []vector.ChunkMatch, docs map[core.ID]*core.Document) []core.ScoredResult {
	byDoc := make(map[core.ID]*core.ScoredResult, len(lexical)+len(semantic))
	order := make([]core.ID, 0, len(lexical)+len(semantic))

	for _, m := range lexical {
		weighted := float32(m.Score * c.config.LexicalWeight)
		byDoc[m.DocumentId] = &core.ScoredResult{
			DocumentId:   m.DocumentId,
			Title:        m.Title,
			Category:     m.Category,
			Tags:         m.Tags,
			CreatedAt:    m.CreatedAt,
			Score:        weighted,
			Provenance:   []core.Provenance{core.ProvenanceLexical},
			MatchedTerms: m.MatchedTerms,
		}
		order = append(order, m.DocumentId)
	}

	for _, m := range semantic {
		weighted := float32(m.Score * c.config.SemanticWeight)
		if existing, ok := byDoc[m.DocumentId]; ok {
			if combined := existing.Score + weighted; combined > existing.Score {
				existing.Score = combined
			}
			existing.Provenance = append(existing.Provenance, core.ProvenanceSemantic)
			existing.ChunkId = m.ChunkId
			if existing.Snippet == "" {
				existing.Snippet = truncateRunes(m.Content, snippetRunes)
			}
			continue
		}

		result := &core.ScoredResult{
			DocumentId: m.DocumentId,
			ChunkId:    m.ChunkId,
			Snippet:    truncateRunes(m.Content, snippetRunes),
			Score:      weighted,
			Provenance: []core.Provenance{core.ProvenanceSemantic},
		}
		if doc := docs[m.DocumentId]; doc != nil {
			result.Title = doc.Title
			result.Category = doc.Category
			result.Tags = doc.Tags
			result.CreatedAt = doc.CreatedAt
		}
		byDoc[m.DocumentId] = result
		order = append(order, m.DocumentId)
	}

	out := make([]core.ScoredResult, 0, len(order))
	for _, id := range order {
		out = append(out, *byDoc[id])
	}
	return out
}

// hydrate fills snippets and metadata for lexical-only results, which carry
// no chunk content. Storage trouble here loses snippets, not results.
func (c *Coordinator) hydrate(ctx context.Context, results []core.ScoredResult) {
	var missing []core.ID
	for i := range results {
		if results[i].Snippet == "" {
			missing = append(missing, results[i].DocumentId)
		}
	}
	if len(missing) == 0 {
		return
	}

	docs, err := c.documents.GetDocuments(ctx, missing...)
	if err != nil {
		c.logger.Warn("snippet hydration failed", "err", err)
		return
	}
	byId := make(map[core.ID]*core.Document, len(docs))
	for _, doc := range docs {
		byId[doc.Id] = doc
	}

	for i := range results {
		if results[i].Snippet != "" {
			continue
		}
		doc := byId[results[i].DocumentId]
		if doc == nil {
			continue
		}
		results[i].Snippet = truncateRunes(doc.RawContent, snippetRunes)
		if results[i].Title == "" {
			results[i].Title = doc.Title
		}
	}
}

// rerank applies intent-specific multiplicative boosts. Scores stay in [0,1].
func (c *Coordinator) rerank(results []core.ScoredResult, intent core.Intent) {
	now := c.now()
	for i := range results {
		mult := 1.0
		switch intent {
		case core.IntentProblemSolving:
			if !results[i].CreatedAt.IsZero() && now.Sub(results[i].CreatedAt) < c.config.RecencyWindow {
				mult = c.config.RecencyBoost
			}
		case core.IntentHowTo:
			if utf8.RuneCountInString(results[i].Snippet) > c.config.DetailMinRunes {
				mult = c.config.DetailBoost
			}
		case core.IntentConceptExplanation:
			if utf8.RuneCountInString(results[i].Snippet) > c.config.DetailMinRunes {
				mult = c.config.ConceptBoost
			}
		}

		score := float64(results[i].Score) * mult
		if score > 1 {
			score = 1
		}
		results[i].Score = float32(score)
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(runes[:limit]))
}

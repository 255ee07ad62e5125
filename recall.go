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

package recall

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/fallback"
	"github.com/poiesic/recall/ai/openai"
	"github.com/poiesic/recall/analyzer"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
	"github.com/poiesic/recall/synthesis"
)

// Assistant wires storage, retrieval, analysis and synthesis into one
// knowledge-search engine. It owns the lifecycle of every component; callers
// create one Assistant per data directory and Close it when done.
type Assistant struct {
	backend     *badger.Backend
	documents   storage.DocumentRepository
	chunks      storage.ChunkRepository
	selector    *ai.Selector
	indexes     *indexSet
	pipeline    *ingestion.Pipeline
	coordinator *search.Coordinator
	synthesizer *synthesis.Synthesizer
	cache       *search.Cache[*SearchResponse]
	logger      *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	aiConfig  *ai.Config
	providers []ai.AIProvider
	fastPath  []search.FastPathEntry
	config    *search.Config
	cacheSize int
	cacheTTL  time.Duration
	poolSize  int
	logger    *slog.Logger
}

// WithAIConfig sets the AI backend configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) AssistantOption {
	return func(o *assistantOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProviders replaces the default provider chain (OpenAI-compatible backend
// plus the deterministic fallback). Providers are tried in the given order.
func WithProviders(providers ...ai.AIProvider) AssistantOption {
	return func(o *assistantOptions) {
		o.providers = providers
	}
}

// WithFastPath installs curated query patterns with precomputed answers.
func WithFastPath(entries []search.FastPathEntry) AssistantOption {
	return func(o *assistantOptions) {
		o.fastPath = entries
	}
}

// WithSearchConfig replaces the default retrieval tuning.
func WithSearchConfig(config search.Config) AssistantOption {
	return func(o *assistantOptions) {
		o.config = &config
	}
}

// WithResultCache sizes the response cache. A non-positive size keeps the
// default; a non-positive TTL keeps search.DefaultCacheTTL.
func WithResultCache(size int, ttl time.Duration) AssistantOption {
	return func(o *assistantOptions) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// WithEmbedPoolSize sets the ingestion worker pool size.
func WithEmbedPoolSize(n int) AssistantOption {
	return func(o *assistantOptions) {
		o.poolSize = n
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) AssistantOption {
	return func(o *assistantOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Assistant backed by a badger store at dataDir. An empty
// dataDir opens an in-memory store that is lost on Close.
func New(dataDir string, opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	backend, err := badger.OpenBackend(dataDir, dataDir == "")
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunks, err := badger.NewChunkRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	providers := options.providers
	if len(providers) == 0 {
		options.aiConfig.Normalize()
		if provider, perr := openai.NewProvider(options.aiConfig); perr != nil {
			logger.Warn("model backend unavailable, using local fallback only", "err", perr)
		} else {
			providers = append(providers, provider)
		}
		providers = append(providers, fallback.NewProvider(options.aiConfig.EmbeddingDimensions))
	}

	selector, err := ai.NewSelector(providers, ai.WithSelectorLogger(logger))
	if err != nil {
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	indexes := newIndexSet(documents, logger)

	pipelineOpts := []ingestion.Option{ingestion.WithLogger(logger)}
	if options.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(options.poolSize))
	}
	embedder := &selectorEmbedder{selector: selector, dimensions: options.aiConfig.EmbeddingDimensions}
	pipeline, err := ingestion.NewPipeline(documents, chunks, indexes, embedder, pipelineOpts...)
	if err != nil {
		selector.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	queryAnalyzer, err := analyzer.New(
		analyzer.WithGenerator(&selectorGenerator{selector: selector}),
		analyzer.WithLogger(logger),
	)
	if err != nil {
		pipeline.Release()
		selector.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	coordinatorOpts := []search.Option{search.WithLogger(logger)}
	if options.config != nil {
		coordinatorOpts = append(coordinatorOpts, search.WithConfig(*options.config))
	}
	if len(options.fastPath) > 0 {
		coordinatorOpts = append(coordinatorOpts, search.WithFastPath(search.NewFastPath(options.fastPath)))
	}
	coordinator, err := search.NewCoordinator(indexes, documents, chunks, selector, queryAnalyzer, coordinatorOpts...)
	if err != nil {
		pipeline.Release()
		selector.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	synthesizer, err := synthesis.NewSynthesizer(selector, synthesis.WithLogger(logger))
	if err != nil {
		pipeline.Release()
		selector.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	cache, err := search.NewCache[*SearchResponse](options.cacheSize, options.cacheTTL)
	if err != nil {
		pipeline.Release()
		selector.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	return &Assistant{
		backend:     backend,
		documents:   documents,
		chunks:      chunks,
		selector:    selector,
		indexes:     indexes,
		pipeline:    pipeline,
		coordinator: coordinator,
		synthesizer: synthesizer,
		cache:       cache,
		logger:      logger,
	}, nil
}

// SearchOptions are per-request knobs for Assistant.Search.
type SearchOptions struct {
	// ResponseType is "comprehensive", "concise", or "detailed".
	ResponseType string

	// IncludeReferences appends a source list to the answer.
	IncludeReferences bool

	// MaxResults caps returned results. Zero uses the configured default.
	MaxResults int

	// RecentQueries provide session context to the analyzer.
	RecentQueries []string

	// DisableCache bypasses the result cache for this request.
	DisableCache bool
}

// SearchMetadata describes how a response was produced.
type SearchMetadata struct {
	TotalResults   int
	ResponseTimeMs int64
	SearchType     core.SearchType
	Intent         core.Intent
	Confidence     float32
	Degraded       bool
	Cached         bool
}

// SearchResponse is the public search result.
type SearchResponse struct {
	Results          []core.ScoredResult
	Answer           string
	SuggestedQueries []string
	Metadata         SearchMetadata
}

// Search runs the full pipeline: analysis, hybrid retrieval, reranking and
// answer synthesis, memoized by query and options for the cache TTL. The only
// error it returns is query validation; degraded backends produce partial
// responses with Metadata.Degraded set.
func (a *Assistant) Search(ctx context.Context, query, ownerId string, opts SearchOptions) (*SearchResponse, error) {
	if err := core.ValidateQuery(query); err != nil {
		return nil, err
	}
	start := time.Now()

	key := search.CacheKey(query, ownerId,
		opts.ResponseType,
		strconv.FormatBool(opts.IncludeReferences),
		strconv.Itoa(opts.MaxResults),
	)
	if !opts.DisableCache {
		if cached, ok := a.cache.Get(key); ok {
			hit := *cached
			// Callers may mutate the returned slice; the cached copy must
			// stay intact for later hits.
			hit.Results = append([]core.ScoredResult(nil), cached.Results...)
			hit.Metadata.Cached = true
			hit.Metadata.ResponseTimeMs = time.Since(start).Milliseconds()
			return &hit, nil
		}
	}

	if err := a.indexes.ensure(ctx, ownerId); err != nil {
		a.logger.Warn("lexical index hydration failed", "owner", ownerId, "err", err)
	}

	resp, err := a.coordinator.Search(ctx, query, ownerId, search.Options{
		MaxResults:    opts.MaxResults,
		RecentQueries: opts.RecentQueries,
	})
	if err != nil {
		return nil, err
	}

	answer := resp.Answer
	if answer == "" {
		answer = a.synthesizer.Synthesize(ctx, query, resp.Results, resp.Analysis, synthesis.Options{
			ResponseType:      opts.ResponseType,
			IncludeReferences: opts.IncludeReferences,
		})
	}

	// No results means no confidence in the answer, whatever the
	// analysis claimed about the query itself.
	confidence := resp.Analysis.Confidence
	if len(resp.Results) == 0 && resp.Answer == "" {
		confidence = 0
	}

	result := &SearchResponse{
		Results:          resp.Results,
		Answer:           answer,
		SuggestedQueries: resp.Analysis.SuggestedQueries,
		Metadata: SearchMetadata{
			TotalResults:   len(resp.Results),
			ResponseTimeMs: time.Since(start).Milliseconds(),
			SearchType:     resp.Analysis.SearchType,
			Intent:         resp.Analysis.Intent,
			Confidence:     confidence,
			Degraded:       resp.Degraded,
		},
	}
	if !opts.DisableCache {
		a.cache.Set(key, result)
	}
	return result, nil
}

// Ingest stores and indexes the document synchronously; chunking and
// embedding happen in the background. Call Wait to block until embeddings
// are searchable.
func (a *Assistant) Ingest(ctx context.Context, doc *core.Document) (*core.Document, error) {
	return a.pipeline.Ingest(ctx, doc)
}

// Delete removes the document from the index, chunk store and document store.
// Cached responses are not invalidated; staleness up to the cache TTL is
// accepted.
func (a *Assistant) Delete(ctx context.Context, ownerId string, id core.ID) error {
	return a.pipeline.Delete(ctx, ownerId, id)
}

// Suggest returns completions for a partial query from the owner's index.
func (a *Assistant) Suggest(ctx context.Context, ownerId, partial string, limit int) []string {
	if err := a.indexes.ensure(ctx, ownerId); err != nil {
		a.logger.Warn("lexical index hydration failed", "owner", ownerId, "err", err)
	}
	ix := a.indexes.Index(ownerId)
	if ix == nil {
		return nil
	}
	return ix.Suggest(partial, limit)
}

// PopularTerms returns the most frequent terms in the owner's index.
func (a *Assistant) PopularTerms(ctx context.Context, ownerId string, limit int) []index.TermFrequency {
	if err := a.indexes.ensure(ctx, ownerId); err != nil {
		a.logger.Warn("lexical index hydration failed", "owner", ownerId, "err", err)
	}
	ix := a.indexes.Index(ownerId)
	if ix == nil {
		return nil
	}
	return ix.PopularTerms(limit)
}

// ExportIndex serializes the owner's lexical index to its versioned binary
// snapshot form.
func (a *Assistant) ExportIndex(ctx context.Context, ownerId string) ([]byte, error) {
	if err := a.indexes.ensure(ctx, ownerId); err != nil {
		return nil, err
	}
	ix := a.indexes.Index(ownerId)
	if ix == nil {
		ix = index.New()
	}
	return ix.Snapshot(), nil
}

// ImportIndex replaces the owner's lexical index with a snapshot previously
// produced by ExportIndex. The snapshot is authoritative; stored documents
// absent from it are not merged back in.
func (a *Assistant) ImportIndex(ownerId string, snapshot []byte) error {
	ix := index.New(index.WithLogger(a.logger))
	if err := ix.Restore(snapshot); err != nil {
		return err
	}
	a.indexes.install(ownerId, ix)
	return nil
}

// Wait blocks until all scheduled background embedding work has finished.
func (a *Assistant) Wait() {
	a.pipeline.Wait()
}

// DocumentRepository exposes the underlying document store.
func (a *Assistant) DocumentRepository() storage.DocumentRepository {
	return a.documents
}

// ChunkRepository exposes the underlying chunk store.
func (a *Assistant) ChunkRepository() storage.ChunkRepository {
	return a.chunks
}

// Close drains background work and releases every component. The backend is
// closed last so in-flight writes land.
func (a *Assistant) Close() error {
	a.pipeline.Release()

	if err := a.selector.Close(); err != nil {
		a.logger.Error("error closing AI providers", "err", err)
	}

	if err := a.chunks.Close(); err != nil {
		a.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := a.documents.Close(); err != nil {
		a.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// selectorEmbedder adapts per-call provider selection to the static Embedder
// interface the ingestion pipeline expects.
type selectorEmbedder struct {
	selector   *ai.Selector
	dimensions int
}

func (e *selectorEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	embedder, err := e.selector.Embedder(ctx)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedText(ctx, text)
}

func (e *selectorEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	embedder, err := e.selector.Embedder(ctx)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedTexts(ctx, texts)
}

func (e *selectorEmbedder) Dimensions() int {
	return e.dimensions
}

// selectorGenerator adapts per-call provider selection to the static
// Generator interface the analyzer expects.
type selectorGenerator struct {
	selector *ai.Selector
}

func (g *selectorGenerator) Generate(ctx context.Context, req ai.GenerationRequest) (string, error) {
	generator, err := g.selector.Generator(ctx)
	if err != nil {
		return "", err
	}
	return generator.Generate(ctx, req)
}

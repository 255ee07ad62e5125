package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelAnalysisJSON = `{
	"intent": "how_to",
	"entities": ["docker", "compose"],
	"search_type": "hybrid",
	"filters": {"time_range": "all", "doc_types": [], "tags": [], "priority": ""},
	"complexity": "moderate",
	"confidence": 0.9,
	"suggested_queries": ["docker compose setup"]
}`

func TestAnalyze_RulesOnly(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	got := a.Analyze(context.Background(), "how to configure nginx", Context{})
	assert.Equal(t, core.IntentHowTo, got.Intent)
	assert.InDelta(t, ruleConfidence, got.Confidence, 1e-6)
	assert.NotEmpty(t, got.SuggestedQueries)
}

func TestAnalyze_ModelPreferredWhenConfident(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = modelAnalysisJSON

	a, err := New(WithGenerator(gen))
	require.NoError(t, err)

	got := a.Analyze(context.Background(), "docker compose setup", Context{})
	assert.Equal(t, core.IntentHowTo, got.Intent)
	assert.InDelta(t, 0.9, float64(got.Confidence), 1e-6)
	assert.Contains(t, got.Entities, "compose")

	req := gen.LastRequest()
	assert.True(t, req.JSONMode)
	assert.Contains(t, req.Prompt, "docker compose setup")
}

func TestAnalyze_LowConfidenceModelLosesToRules(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = `{
		"intent": "concept_explanation",
		"entities": ["daemon"],
		"search_type": "semantic",
		"filters": {"time_range": "all"},
		"complexity": "simple",
		"confidence": 0.2
	}`

	a, err := New(WithGenerator(gen))
	require.NoError(t, err)

	got := a.Analyze(context.Background(), "how to restart the docker daemon", Context{})
	// Rule analysis wins, model entities are still unioned in.
	assert.Equal(t, core.IntentHowTo, got.Intent)
	assert.Contains(t, got.Entities, "daemon")
	assert.Contains(t, got.Entities, "docker")
}

func TestAnalyze_GeneratorErrorFallsBackToRules(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, req ai.GenerationRequest) (string, error) {
		return "", errors.New("model offline")
	}

	a, err := New(WithGenerator(gen))
	require.NoError(t, err)

	got := a.Analyze(context.Background(), "what is a vector index", Context{})
	assert.Equal(t, core.IntentConceptExplanation, got.Intent)
	assert.InDelta(t, ruleConfidence, got.Confidence, 1e-6)
}

func TestAnalyze_UnparsableModelOutputFallsBack(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = "I think this query is about docker."

	a, err := New(WithGenerator(gen))
	require.NoError(t, err)

	got := a.Analyze(context.Background(), "how to tag docker images", Context{})
	assert.Equal(t, core.IntentHowTo, got.Intent)
	assert.InDelta(t, ruleConfidence, got.Confidence, 1e-6)
}

func TestAnalyze_StripsCodeFences(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = "```json\n" + modelAnalysisJSON + "\n```"

	a, err := New(WithGenerator(gen))
	require.NoError(t, err)

	got := a.Analyze(context.Background(), "docker compose setup", Context{})
	assert.InDelta(t, 0.9, float64(got.Confidence), 1e-6)
}

func TestAnalyze_Caches(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = modelAnalysisJSON

	a, err := New(WithGenerator(gen))
	require.NoError(t, err)

	ctx := context.Background()
	first := a.Analyze(ctx, "docker compose setup", Context{})
	second := a.Analyze(ctx, "docker compose setup", Context{})

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.CallCount())

	// Different context misses the cache.
	a.Analyze(ctx, "docker compose setup", Context{Categories: []string{"infra"}})
	assert.Equal(t, 2, gen.CallCount())
}

func TestAnalyze_CacheExpires(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = modelAnalysisJSON

	a, err := New(WithGenerator(gen), WithCacheTTL(time.Minute))
	require.NoError(t, err)

	current := time.Now()
	a.now = func() time.Time { return current }

	ctx := context.Background()
	a.Analyze(ctx, "docker compose setup", Context{})
	current = current.Add(2 * time.Minute)
	a.Analyze(ctx, "docker compose setup", Context{})

	assert.Equal(t, 2, gen.CallCount())
}

func TestSanitize(t *testing.T) {
	t.Run("invalid enums replaced by defaults", func(t *testing.T) {
		got := sanitize(llmAnalysis{
			Intent:     "world_domination",
			SearchType: "psychic",
			Complexity: "fiendish",
			Confidence: 3.5,
		})
		assert.Equal(t, core.IntentInformationSeeking, got.Intent)
		assert.Equal(t, core.SearchTypeHybrid, got.SearchType)
		assert.Equal(t, "moderate", got.Complexity)
		assert.InDelta(t, 1.0, float64(got.Confidence), 1e-6)
		assert.Equal(t, core.TimeRangeAll, got.Filters.TimeRange)
	})

	t.Run("negative confidence clamps to zero", func(t *testing.T) {
		got := sanitize(llmAnalysis{Confidence: -1})
		assert.Zero(t, got.Confidence)
	})

	t.Run("valid fields pass through", func(t *testing.T) {
		in := llmAnalysis{
			Intent:     "problem_solving",
			SearchType: "lexical",
			Complexity: "simple",
			Confidence: 0.6,
			Entities:   []string{" docker ", "", "nginx"},
		}
		in.Filters.TimeRange = "week"
		in.Filters.Priority = "HIGH"

		got := sanitize(in)
		assert.Equal(t, core.IntentProblemSolving, got.Intent)
		assert.Equal(t, core.SearchTypeLexical, got.SearchType)
		assert.Equal(t, []string{"docker", "nginx"}, got.Entities)
		assert.Equal(t, core.TimeRangeWeek, got.Filters.TimeRange)
		assert.Equal(t, "high", got.Filters.Priority)
	})

	t.Run("entity cap", func(t *testing.T) {
		entities := make([]string, 20)
		for i := range entities {
			entities[i] = string(rune('a'+i)) + "term"
		}
		got := sanitize(llmAnalysis{Entities: entities})
		assert.Len(t, got.Entities, maxEntities)
	})
}

func TestMergeAnalyses_EntityCap(t *testing.T) {
	llm := core.QueryAnalysis{Confidence: 0.8}
	rules := core.QueryAnalysis{}
	for i := 0; i < 8; i++ {
		llm.Entities = append(llm.Entities, string(rune('a'+i)))
		rules.Entities = append(rules.Entities, string(rune('m'+i)))
	}

	got := mergeAnalyses(llm, rules)
	assert.Len(t, got.Entities, maxEntities)
	// Preferred side's entities come first.
	assert.Equal(t, "a", got.Entities[0])
}

package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
)

const analysisSystemPrompt = `You classify search queries for a personal knowledge base. Respond with a single JSON object and nothing else:
{
  "intent": one of "information_seeking", "problem_solving", "how_to", "concept_explanation",
  "entities": array of key terms from the query (max 10),
  "search_type": one of "lexical", "semantic", "hybrid",
  "filters": {
    "time_range": one of "all", "recent", "week", "month",
    "doc_types": array of document categories to restrict to,
    "tags": array of tags to restrict to,
    "priority": "" or "high"
  },
  "complexity": one of "simple", "moderate", "complex",
  "confidence": number between 0 and 1,
  "suggested_queries": array of up to 3 reformulations
}`

// llmAnalysis matches the JSON shape requested from the model. All fields
// are untrusted until sanitized.
type llmAnalysis struct {
	Intent     string   `json:"intent"`
	Entities   []string `json:"entities"`
	SearchType string   `json:"search_type"`
	Filters    struct {
		TimeRange string   `json:"time_range"`
		DocTypes  []string `json:"doc_types"`
		Tags      []string `json:"tags"`
		Priority  string   `json:"priority"`
	} `json:"filters"`
	Complexity       string   `json:"complexity"`
	Confidence       float64  `json:"confidence"`
	SuggestedQueries []string `json:"suggested_queries"`
}

func (a *Analyzer) analyzeWithLLM(ctx context.Context, query string, qctx Context) (core.QueryAnalysis, error) {
	raw, err := a.generator.Generate(ctx, ai.GenerationRequest{
		System:      analysisSystemPrompt,
		Prompt:      buildAnalysisPrompt(query, qctx),
		Temperature: 0,
		MaxTokens:   400,
		JSONMode:    true,
	})
	if err != nil {
		return core.QueryAnalysis{}, err
	}

	// Strip markdown code fences if present
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	raw = repairJSON(raw)

	var parsed llmAnalysis
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return core.QueryAnalysis{}, fmt.Errorf("parsing analysis response: %w", err)
	}

	return sanitize(parsed), nil
}

func buildAnalysisPrompt(query string, qctx Context) string {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(query)
	if len(qctx.RecentQueries) > 0 {
		b.WriteString("\nRecent queries: ")
		b.WriteString(strings.Join(qctx.RecentQueries, "; "))
	}
	if len(qctx.Categories) > 0 {
		b.WriteString("\nKnown document categories: ")
		b.WriteString(strings.Join(qctx.Categories, ", "))
	}
	return b.String()
}

// sanitize validates every model-supplied field against an allow-list.
// Invalid values are replaced by safe defaults, never propagated.
func sanitize(parsed llmAnalysis) core.QueryAnalysis {
	result := core.QueryAnalysis{
		Intent:     core.Intent(strings.TrimSpace(parsed.Intent)),
		SearchType: core.SearchType(strings.TrimSpace(parsed.SearchType)),
		Confidence: core.ClampConfidence(float32(parsed.Confidence)),
		Complexity: strings.TrimSpace(parsed.Complexity),
	}

	if !core.ValidateIntent(result.Intent) {
		result.Intent = core.IntentInformationSeeking
	}
	if !core.ValidateSearchType(result.SearchType) {
		result.SearchType = core.SearchTypeHybrid
	}

	switch result.Complexity {
	case "simple", "moderate", "complex":
	default:
		result.Complexity = "moderate"
	}

	result.Entities = cleanStrings(parsed.Entities, maxEntities)
	result.SuggestedQueries = cleanStrings(parsed.SuggestedQueries, 3)

	result.Filters = core.Filters{
		TimeRange: core.TimeRangeAll,
		DocTypes:  cleanStrings(parsed.Filters.DocTypes, 5),
		Tags:      cleanStrings(parsed.Filters.Tags, 5),
	}
	switch core.TimeRange(parsed.Filters.TimeRange) {
	case core.TimeRangeRecent, core.TimeRangeWeek, core.TimeRangeMonth:
		result.Filters.TimeRange = core.TimeRange(parsed.Filters.TimeRange)
	}
	if strings.EqualFold(strings.TrimSpace(parsed.Filters.Priority), "high") {
		result.Filters.Priority = "high"
	}

	return result
}

func cleanStrings(values []string, limit int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

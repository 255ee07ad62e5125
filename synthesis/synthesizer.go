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


package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
)

const (
	// contextCap bounds the prompt context in runes. The least-relevant
	// tail is truncated, never the head.
	contextCap = 4000

	// answerCap bounds generated and extractive answers in runes.
	answerCap = 800

	// maxSources bounds how many results feed the context and the
	// reference list.
	maxSources = 5

	// extractCap bounds the quoted content of an extractive answer.
	extractCap = 400
)

// GeneratorSource selects a generator, failing when no provider can
// generate. *ai.Selector satisfies this.
type GeneratorSource interface {
	Generator(ctx context.Context) (ai.Generator, error)
}

// Options are per-request synthesis knobs.
type Options struct {
	// ResponseType is "comprehensive", "concise", or "detailed".
	// Unknown values fall back to comprehensive.
	ResponseType string

	// IncludeReferences appends a locally built source list.
	IncludeReferences bool
}

// Synthesizer produces answers from ranked results.
type Synthesizer struct {
	generators GeneratorSource
	logger     *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSynthesizer creates a Synthesizer. A nil generator source is allowed;
// every answer is then extractive.
func NewSynthesizer(generators GeneratorSource, opts ...Option) (*Synthesizer, error) {
	s := &Synthesizer{
		generators: generators,
		logger:     slog.Default().With("component", "synthesizer"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Synthesize builds the answer for a query. It never returns an error;
// every failure path yields a locally constructed answer instead.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, results []core.ScoredResult, analysis core.QueryAnalysis, opts Options) string {
	if len(results) == 0 {
		return noResultsAnswer(query, analysis)
	}

	answer := s.generate(ctx, query, results, analysis, opts)
	if answer == "" {
		answer = extractiveAnswer(results, analysis)
	}

	if opts.IncludeReferences {
		answer = answer + "\n\n" + buildReferences(results)
	}
	return answer
}

// generate runs the model path. An empty string means the caller should
// fall back to the extractive path.
func (s *Synthesizer) generate(ctx context.Context, query string, results []core.ScoredResult, analysis core.QueryAnalysis, opts Options) string {
	if s.generators == nil {
		return ""
	}

	generator, err := s.generators.Generator(ctx)
	if err != nil {
		s.logger.Warn("no generator available, answering extractively", "err", err)
		return ""
	}

	raw, err := generator.Generate(ctx, ai.GenerationRequest{
		System:      instructionFor(analysis.Intent, opts.ResponseType),
		Prompt:      buildPrompt(query, results),
		Temperature: 0.3,
		MaxTokens:   600,
	})
	if err != nil {
		s.logger.Warn("generation failed, answering extractively", "err", err)
		return ""
	}

	answer := postProcess(raw)
	if answer == "" {
		return ""
	}
	return truncateAnswer(answer, answerCap)
}

// buildPrompt assembles the query and a bounded context from the top
// results, dropping the least-relevant tail when the cap is hit.
func buildPrompt(query string, results []core.ScoredResult) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nNotes:\n")

	used := 0
	for i, result := range results {
		if i == maxSources {
			break
		}
		passage := result.Snippet
		if passage == "" {
			passage = result.Title
		}
		block := fmt.Sprintf("[%d] %s\n%s\n", i+1, result.Title, passage)

		runes := utf8.RuneCountInString(block)
		if used+runes > contextCap {
			remaining := contextCap - used
			if remaining > 0 {
				block = string([]rune(block)[:remaining])
				b.WriteString(block)
			}
			break
		}
		b.WriteString(block)
		used += runes
	}
	return b.String()
}

// postProcess strips boilerplate lead-ins and normalizes the ending.
func postProcess(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ""
	}

	lowered := strings.ToLower(answer)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lowered, prefix) {
			answer = strings.TrimSpace(answer[len(prefix):])
			break
		}
	}
	if answer == "" {
		return ""
	}

	last, _ := utf8.DecodeLastRuneInString(answer)
	if !strings.ContainsRune(".!?。！？:：", last) {
		answer += "."
	}
	return answer
}

func truncateAnswer(answer string, limit int) string {
	runes := []rune(answer)
	if len(runes) <= limit {
		return answer
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

// extractiveAnswer builds an answer from the top result without a model.
func extractiveAnswer(results []core.ScoredResult, analysis core.QueryAnalysis) string {
	top := results[0]

	content := top.Snippet
	if content == "" {
		content = top.Title
	}
	content = truncateAnswer(strings.TrimSpace(content), extractCap)

	var b strings.Builder
	b.WriteString(extractiveLeadIn(analysis.Intent))
	b.WriteString("\n\n")
	b.WriteString(content)
	if top.Title != "" {
		fmt.Fprintf(&b, "\n\nMore detail is available in %q.", top.Title)
	}
	return b.String()
}

// noResultsAnswer is deterministic and includes reformulations derived
// from the analysis.
func noResultsAnswer(query string, analysis core.QueryAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No relevant content found for %q.", strings.TrimSpace(query))
	if len(analysis.SuggestedQueries) > 0 {
		b.WriteString(" You could try one of these instead:")
		for _, suggestion := range analysis.SuggestedQueries {
			b.WriteString("\n- ")
			b.WriteString(suggestion)
		}
	}
	return b.String()
}

// buildReferences formats the source list. This is always constructed
// locally so citations survive any model failure.
func buildReferences(results []core.ScoredResult) string {
	var b strings.Builder
	b.WriteString("Sources:")
	for i, result := range results {
		if i == maxSources {
			break
		}
		title := result.Title
		if title == "" {
			title = "Untitled document"
		}
		fmt.Fprintf(&b, "\n%d. %s (%.0f%% match", i+1, title, float64(result.Score)*100)
		if !result.CreatedAt.IsZero() {
			b.WriteString(", ")
			b.WriteString(result.CreatedAt.Format("2006-01-02"))
		}
		b.WriteString(")")
	}
	return b.String()
}

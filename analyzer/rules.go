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
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/recall/core"
)

// ruleConfidence is the fixed confidence of a rule-based analysis.
const ruleConfidence = 0.7

// intentRules map keyword patterns to intents. First match wins, so the
// problem patterns come before the how-to patterns ("how to fix an error"
// is problem solving, not a tutorial request).
var intentRules = []struct {
	intent   core.Intent
	keywords []string
}{
	{core.IntentProblemSolving, []string{
		"error", "fail", "broken", "fix", "not working", "crash", "debug",
		"troubleshoot", "报错", "错误", "失败", "修复", "无法", "崩溃",
	}},
	{core.IntentHowTo, []string{
		"how to", "how do", "how can", "guide", "tutorial", "step by step",
		"如何", "怎么", "怎样", "步骤", "教程",
	}},
	{core.IntentConceptExplanation, []string{
		"what is", "what are", "explain", "meaning of", "difference between",
		"是什么", "什么是", "概念", "原理", "区别",
	}},
}

// timeRules map temporal keywords to ranges. The narrower ranges are
// checked first so "this week" does not fall through to "recent".
var timeRules = []struct {
	timeRange core.TimeRange
	keywords  []string
}{
	{core.TimeRangeWeek, []string{"today", "yesterday", "this week", "past week", "本周", "这周", "今天", "昨天"}},
	{core.TimeRangeMonth, []string{"this month", "past month", "last month", "本月", "上个月"}},
	{core.TimeRangeRecent, []string{"recent", "recently", "latest", "newest", "最近", "最新"}},
}

var priorityKeywords = []string{"urgent", "critical", "asap", "important", "紧急", "重要"}

// semanticHints are abstract phrasings that favor embedding search over
// exact term matching.
var semanticHints = []string{
	"why", "concept", "explain", "difference", "similar to", "related to",
	"为什么", "原理", "概念", "相关",
}

// domainTerms are technical nouns worth treating as entities even in
// lowercase.
var domainTerms = []string{
	"docker", "kubernetes", "git", "api", "database", "redis", "nginx",
	"python", "javascript", "typescript", "linux", "deployment", "ssl",
	"oauth", "webhook", "人设", "角色", "提示词",
}

// analyzeWithRules classifies a query without any model. It always
// produces a usable analysis.
func analyzeWithRules(query string) core.QueryAnalysis {
	lower := strings.ToLower(query)

	return core.QueryAnalysis{
		Intent:     ruleIntent(lower),
		Entities:   ruleEntities(query, lower),
		SearchType: ruleSearchType(query, lower),
		Filters:    ruleFilters(lower),
		Complexity: ruleComplexity(query),
		Confidence: ruleConfidence,
	}
}

func ruleIntent(lower string) core.Intent {
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
	}
	return core.IntentInformationSeeking
}

func ruleEntities(query, lower string) []string {
	var entities []string
	seen := make(map[string]bool)
	add := func(e string) {
		e = strings.TrimSpace(e)
		if e == "" || utf8.RuneCountInString(e) < 2 {
			return
		}
		key := strings.ToLower(e)
		if seen[key] || len(entities) >= maxEntities {
			return
		}
		seen[key] = true
		entities = append(entities, e)
	}

	// Quoted phrases are explicit entities.
	for _, quoted := range quotedPhrases(query) {
		add(quoted)
	}

	// Known technical terms.
	for _, term := range domainTerms {
		if strings.Contains(lower, term) {
			add(term)
		}
	}

	// Capitalized words past the first are likely proper nouns.
	words := strings.Fields(query)
	for i, word := range words {
		if i == 0 {
			continue
		}
		trimmed := strings.TrimFunc(word, unicode.IsPunct)
		r, _ := utf8.DecodeRuneInString(trimmed)
		if unicode.IsUpper(r) {
			add(trimmed)
		}
	}

	return entities
}

func ruleSearchType(query, lower string) core.SearchType {
	if len(quotedPhrases(query)) > 0 {
		return core.SearchTypeLexical
	}
	for _, hint := range semanticHints {
		if strings.Contains(lower, hint) {
			return core.SearchTypeSemantic
		}
	}
	if len(strings.Fields(query)) > 8 {
		return core.SearchTypeSemantic
	}
	return core.SearchTypeHybrid
}

func ruleFilters(lower string) core.Filters {
	filters := core.Filters{TimeRange: core.TimeRangeAll}

	for _, rule := range timeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				filters.TimeRange = rule.timeRange
				return ruleFiltersPriority(lower, filters)
			}
		}
	}
	return ruleFiltersPriority(lower, filters)
}

func ruleFiltersPriority(lower string, filters core.Filters) core.Filters {
	for _, kw := range priorityKeywords {
		if strings.Contains(lower, kw) {
			filters.Priority = "high"
			break
		}
	}
	return filters
}

// ruleComplexity grades by length. Rune length matters for CJK queries,
// which rarely contain spaces.
func ruleComplexity(query string) string {
	words := len(strings.Fields(query))
	runes := utf8.RuneCountInString(query)
	switch {
	case words > 8 || runes > 60:
		return "complex"
	case words > 3 || runes > 20:
		return "moderate"
	default:
		return "simple"
	}
}

// quotedPhrases extracts non-empty phrases wrapped in straight or CJK
// double quotes.
func quotedPhrases(query string) []string {
	var phrases []string
	var current []rune
	inQuote := false
	for _, r := range query {
		switch r {
		case '"', '“', '”':
			if inQuote {
				if phrase := strings.TrimSpace(string(current)); phrase != "" {
					phrases = append(phrases, phrase)
				}
				current = current[:0]
			}
			inQuote = !inQuote
		default:
			if inQuote {
				current = append(current, r)
			}
		}
	}
	return phrases
}

// suggestedQueries derives reformulations from extracted entities for the
// no-results path.
func suggestedQueries(entities []string) []string {
	if len(entities) == 0 {
		return nil
	}
	templates := []string{"how to use %s", "%s examples", "%s best practices"}
	out := make([]string, 0, len(templates))
	for i, tmpl := range templates {
		out = append(out, fmt.Sprintf(tmpl, entities[i%len(entities)]))
	}
	return out
}

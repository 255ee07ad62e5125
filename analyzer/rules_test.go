package analyzer

import (
	"testing"

	"github.com/poiesic/recall/core"
	"github.com/stretchr/testify/assert"
)

func TestRuleIntent(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		intent core.Intent
	}{
		{"plain lookup", "docker compose reference", core.IntentInformationSeeking},
		{"error report", "nginx returns 502 error after deploy", core.IntentProblemSolving},
		{"fix beats how-to", "how to fix a broken migration", core.IntentProblemSolving},
		{"how-to", "how to configure ssl certificates", core.IntentHowTo},
		{"concept", "what is a reverse proxy", core.IntentConceptExplanation},
		{"chinese how-to", "如何创建人设", core.IntentHowTo},
		{"chinese problem", "部署失败怎么办", core.IntentProblemSolving},
		{"chinese concept", "什么是提示词工程", core.IntentConceptExplanation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzeWithRules(tt.query)
			assert.Equal(t, tt.intent, got.Intent)
		})
	}
}

func TestRuleEntities(t *testing.T) {
	t.Run("domain terms", func(t *testing.T) {
		got := analyzeWithRules("how to use docker with nginx")
		assert.Contains(t, got.Entities, "docker")
		assert.Contains(t, got.Entities, "nginx")
	})

	t.Run("quoted phrases first", func(t *testing.T) {
		got := analyzeWithRules(`notes about "connection pooling" in postgres`)
		assert.Equal(t, "connection pooling", got.Entities[0])
	})

	t.Run("proper nouns past the first word", func(t *testing.T) {
		got := analyzeWithRules("deploying with Terraform on Hetzner")
		assert.Contains(t, got.Entities, "Terraform")
		assert.Contains(t, got.Entities, "Hetzner")
	})

	t.Run("case-insensitive dedupe", func(t *testing.T) {
		got := analyzeWithRules("Docker tips for docker beginners")
		count := 0
		for _, e := range got.Entities {
			if e == "docker" || e == "Docker" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestRuleSearchType(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  core.SearchType
	}{
		{"default hybrid", "docker volume setup", core.SearchTypeHybrid},
		{"quotes force lexical", `"exact error message"`, core.SearchTypeLexical},
		{"abstract favors semantic", "why does garbage collection pause", core.SearchTypeSemantic},
		{"long query favors semantic", "notes from the meeting where we discussed the new storage layer rollout plan", core.SearchTypeSemantic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzeWithRules(tt.query)
			assert.Equal(t, tt.want, got.SearchType)
		})
	}
}

func TestRuleFilters(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		timeRange core.TimeRange
		priority  string
	}{
		{"no filters", "docker basics", core.TimeRangeAll, ""},
		{"week", "notes from this week", core.TimeRangeWeek, ""},
		{"month", "decisions from last month", core.TimeRangeMonth, ""},
		{"recent", "latest deployment notes", core.TimeRangeRecent, ""},
		{"priority", "urgent production issue notes", core.TimeRangeAll, "high"},
		{"chinese recent", "最近的会议记录", core.TimeRangeRecent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzeWithRules(tt.query)
			assert.Equal(t, tt.timeRange, got.Filters.TimeRange)
			assert.Equal(t, tt.priority, got.Filters.Priority)
		})
	}
}

func TestRuleComplexity(t *testing.T) {
	assert.Equal(t, "simple", ruleComplexity("docker logs"))
	assert.Equal(t, "moderate", ruleComplexity("how to rotate docker logs daily"))
	assert.Equal(t, "complex", ruleComplexity("how do I configure log rotation for all containers on the staging host without downtime"))
	assert.Equal(t, "simple", ruleComplexity("如何创建人设"))
	assert.Equal(t, "moderate", ruleComplexity("如何在不影响线上服务的情况下完成数据迁移"))
}

func TestRuleConfidence(t *testing.T) {
	got := analyzeWithRules("anything at all")
	assert.InDelta(t, ruleConfidence, got.Confidence, 1e-6)
}

func TestSuggestedQueries(t *testing.T) {
	t.Run("from entities", func(t *testing.T) {
		got := suggestedQueries([]string{"docker"})
		assert.Equal(t, []string{
			"how to use docker",
			"docker examples",
			"docker best practices",
		}, got)
	})

	t.Run("cycles entities", func(t *testing.T) {
		got := suggestedQueries([]string{"docker", "nginx"})
		assert.Len(t, got, 3)
		assert.Contains(t, got[1], "nginx")
	})

	t.Run("empty entities", func(t *testing.T) {
		assert.Nil(t, suggestedQueries(nil))
	})
}

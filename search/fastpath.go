package search

import (
	"strings"

	"github.com/poiesic/recall/core"
)

// FastPathEntry is a curated question with a precomputed answer. Patterns
// are lowercase substrings; any one of them matching triggers the entry.
type FastPathEntry struct {
	Patterns   []string
	Answer     string
	Intent     core.Intent
	Confidence float32
}

// FastPath short-circuits retrieval for a small set of known questions.
// The table is data, not code, so deployments can curate their own.
type FastPath struct {
	entries []FastPathEntry
}

// NewFastPath builds a fast path over the given entries. Entries without
// patterns or an answer are dropped.
func NewFastPath(entries []FastPathEntry) *FastPath {
	kept := make([]FastPathEntry, 0, len(entries))
	for _, e := range entries {
		if len(e.Patterns) == 0 || e.Answer == "" {
			continue
		}
		if e.Intent == "" {
			e.Intent = core.IntentInformationSeeking
		}
		kept = append(kept, e)
	}
	return &FastPath{entries: kept}
}

// Match returns the first entry whose pattern appears in the query.
func (fp *FastPath) Match(query string) (FastPathEntry, bool) {
	lower := strings.ToLower(strings.TrimSpace(query))
	if lower == "" {
		return FastPathEntry{}, false
	}
	for _, entry := range fp.entries {
		for _, pattern := range entry.Patterns {
			if strings.Contains(lower, pattern) {
				return entry, true
			}
		}
	}
	return FastPathEntry{}, false
}

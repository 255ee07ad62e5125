package analyzer

import (
	"strings"
	"time"

	"github.com/poiesic/recall/core"
)

// cacheEntry pairs an analysis with its expiry. Entries are evicted lazily
// on read; the LRU handles size pressure.
type cacheEntry struct {
	analysis  core.QueryAnalysis
	expiresAt time.Time
}

func (a *Analyzer) cached(key core.ID) (core.QueryAnalysis, bool) {
	entry, ok := a.cache.Get(key)
	if !ok {
		return core.QueryAnalysis{}, false
	}
	if a.now().After(entry.expiresAt) {
		a.cache.Remove(key)
		return core.QueryAnalysis{}, false
	}
	return entry.analysis, true
}

func (a *Analyzer) store(key core.ID, analysis core.QueryAnalysis) {
	a.cache.Add(key, &cacheEntry{
		analysis:  analysis,
		expiresAt: a.now().Add(a.ttl),
	})
}

// cacheKey hashes the query together with its context so the same query
// under different context is analyzed afresh.
func cacheKey(query string, qctx Context) core.ID {
	var b strings.Builder
	b.WriteString(query)
	b.WriteByte(0)
	b.WriteString(strings.Join(qctx.RecentQueries, "\x1f"))
	b.WriteByte(0)
	b.WriteString(strings.Join(qctx.Categories, "\x1f"))
	return core.IDFromContent(b.String())
}

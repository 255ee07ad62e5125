package index

import (
	"sort"
	"strings"
)

// TermFrequency pairs an index term with its document frequency.
type TermFrequency struct {
	Term      string
	Frequency int
}

// Suggest returns up to limit completions for the last token of the partial
// query, ranked by document frequency.
func (ix *Index) Suggest(partial string, limit int) []string {
	if limit <= 0 {
		limit = 5
	}

	tokens := Tokenize(partial)
	if len(tokens) == 0 {
		return nil
	}
	last := tokens[len(tokens)-1]

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var candidates []TermFrequency
	for term, pl := range ix.postings {
		if term != last && strings.HasPrefix(term, last) {
			candidates = append(candidates, TermFrequency{Term: term, Frequency: len(pl.entries)})
		}
	}

	sortByFrequency(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Term
	}
	return out
}

// PopularTerms returns the most frequent index terms.
func (ix *Index) PopularTerms(limit int) []TermFrequency {
	if limit <= 0 {
		limit = 20
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	terms := make([]TermFrequency, 0, len(ix.postings))
	for term, pl := range ix.postings {
		terms = append(terms, TermFrequency{Term: term, Frequency: len(pl.entries)})
	}

	sortByFrequency(terms)
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

// Categories returns the distinct categories of live documents, most
// populous first. Documents without a category are skipped.
func (ix *Index) Categories(limit int) []string {
	if limit <= 0 {
		limit = 20
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	counts := make(map[string]int)
	for _, info := range ix.docs {
		if info.alive && info.category != "" {
			counts[info.category]++
		}
	}

	categories := make([]TermFrequency, 0, len(counts))
	for category, count := range counts {
		categories = append(categories, TermFrequency{Term: category, Frequency: count})
	}

	sortByFrequency(categories)
	if len(categories) > limit {
		categories = categories[:limit]
	}

	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.Term
	}
	return out
}

// sortByFrequency orders by descending frequency, breaking ties
// lexicographically so output does not depend on map iteration order.
func sortByFrequency(terms []TermFrequency) {
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Frequency != terms[j].Frequency {
			return terms[i].Frequency > terms[j].Frequency
		}
		return terms[i].Term < terms[j].Term
	})
}

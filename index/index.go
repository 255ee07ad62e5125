package index

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/recall/core"
)

// BM25 parameters: k1 controls term-frequency saturation, b the strength of
// document-length normalization.
const (
	k1 = 1.5
	b  = 0.75
)

// Field identifies a document field for weighting and boosting.
type Field int

const (
	FieldTitle Field = iota
	FieldTags
	FieldFilename
	FieldContent
	numFields
)

var fieldWeights = [numFields]float64{3.0, 2.0, 1.5, 1.0}

// docInfo is an arena entry. Slots are never reused; a removed document's
// slot is marked dead and its postings are dropped.
type docInfo struct {
	id        core.ID
	title     string
	category  string
	tags      []string
	createdAt time.Time
	length    float64 // field-weighted token count
	alive     bool
}

type postingEntry struct {
	slot      int32
	tf        float64 // field-weighted term frequency
	fieldHits [numFields]uint32
}

type postingList struct {
	entries []postingEntry // insertion order
}

// Index is an inverted index over a single corpus with BM25 scoring.
// Reads may run concurrently; mutations must be serialized by the caller.
type Index struct {
	mu          sync.RWMutex
	docs        []docInfo
	slots       map[core.ID]int32
	postings    map[string]*postingList
	totalLength float64
	liveDocs    int
	logger      *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
	}
}

// New creates an empty index.
func New(opts ...Option) *Index {
	ix := &Index{
		slots:    make(map[core.ID]int32),
		postings: make(map[string]*postingList),
		logger:   slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add tokenizes the document's fields, updates postings with field-weighted
// term frequencies and per-field hit counts, and refreshes the corpus average
// document length. Adding an already-indexed document replaces it.
func (ix *Index) Add(doc *core.Document) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.slots[doc.Id]; exists {
		ix.removeLocked(doc.Id)
	}

	fields := [numFields][]string{
		FieldTitle:    Tokenize(doc.Title),
		FieldTags:     tokenizeTags(doc.Tags),
		FieldFilename: Tokenize(doc.Filename),
		FieldContent:  Tokenize(doc.RawContent),
	}

	var length float64
	for f, tokens := range fields {
		length += float64(len(tokens)) * fieldWeights[f]
	}

	slot := int32(len(ix.docs))
	ix.docs = append(ix.docs, docInfo{
		id:        doc.Id,
		title:     doc.Title,
		category:  doc.Category,
		tags:      doc.Tags,
		createdAt: doc.CreatedAt,
		length:    length,
		alive:     true,
	})
	ix.slots[doc.Id] = slot
	ix.liveDocs++
	ix.totalLength += length

	type termStat struct {
		tf        float64
		fieldHits [numFields]uint32
	}
	stats := make(map[string]*termStat)
	order := make([]string, 0)
	for f, tokens := range fields {
		weight := fieldWeights[f]
		for _, tok := range tokens {
			st := stats[tok]
			if st == nil {
				st = &termStat{}
				stats[tok] = st
				order = append(order, tok)
			}
			st.tf += weight
			st.fieldHits[f]++
		}
	}

	// Insert postings in first-seen order so snapshots are deterministic.
	for _, term := range order {
		st := stats[term]
		pl := ix.postings[term]
		if pl == nil {
			pl = &postingList{}
			ix.postings[term] = pl
		}
		pl.entries = append(pl.entries, postingEntry{
			slot:      slot,
			tf:        st.tf,
			fieldHits: st.fieldHits,
		})
	}

	return nil
}

// Remove deletes all postings for the document, decrementing document
// frequencies and dropping terms whose posting lists become empty. Removing
// an unknown document is a no-op.
func (ix *Index) Remove(id core.ID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
}

func (ix *Index) removeLocked(id core.ID) {
	slot, ok := ix.slots[id]
	if !ok {
		return
	}

	for term, pl := range ix.postings {
		kept := pl.entries[:0]
		for _, e := range pl.entries {
			if e.slot != slot {
				kept = append(kept, e)
			}
		}
		pl.entries = kept
		if len(pl.entries) == 0 {
			delete(ix.postings, term)
		}
	}

	ix.totalLength -= ix.docs[slot].length
	ix.docs[slot].alive = false
	ix.liveDocs--
	delete(ix.slots, id)
}

// Update replaces a document's postings. Equivalent to Remove followed by Add.
func (ix *Index) Update(doc *core.Document) error {
	ix.Remove(doc.Id)
	return ix.Add(doc)
}

// SearchOptions tunes a lexical search.
type SearchOptions struct {
	TopK     int
	Filters  core.Filters
	Boost    map[Field]float64
	MinScore float64 // applied to the raw summed score, default 0.1
}

// Match is a single lexical search hit.
type Match struct {
	DocumentId   core.ID
	Title        string
	Category     string
	Tags         []string
	CreatedAt    time.Time
	Score        float64 // normalized to [0,1]
	MatchedTerms []string
}

// Search tokenizes the query and ranks matching documents with BM25.
// An empty corpus or a query with no indexable terms yields an empty result,
// never an error. Results are ordered by score descending with ties broken
// by insertion order.
func (ix *Index) Search(query string, opts SearchOptions) []Match {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.MinScore == 0 {
		opts.MinScore = 0.1
	}

	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 || ix.liveDocs == 0 {
		return nil
	}

	n := float64(ix.liveDocs)
	avgLen := ix.totalLength / n

	scores := make(map[int32]float64)
	matched := make(map[int32][]string)
	var candidateOrder []int32

	for _, term := range queryTerms {
		pl := ix.postings[term]
		if pl == nil {
			continue
		}

		df := float64(len(pl.entries))
		idf := math.Log((n - df + 0.5) / (df + 0.5))

		for _, e := range pl.entries {
			doc := &ix.docs[e.slot]
			if !doc.alive {
				// A posting referencing a removed document means the index
				// got out of sync; skip it rather than failing the search.
				ix.logger.Warn("skipping posting", "err", ErrStaleDocument, "term", term, "slot", e.slot)
				continue
			}
			if !passesFilters(doc, opts.Filters) {
				continue
			}

			normalizedTF := e.tf * (k1 + 1) / (e.tf + k1*(1-b+b*(doc.length/avgLen)))
			score := idf * normalizedTF

			boosted := score
			for f := Field(0); f < numFields; f++ {
				if e.fieldHits[f] > 0 && opts.Boost[f] > 0 {
					boosted += score * opts.Boost[f] * float64(e.fieldHits[f])
				}
			}

			if _, seen := scores[e.slot]; !seen {
				candidateOrder = append(candidateOrder, e.slot)
			}
			scores[e.slot] += boosted
			matched[e.slot] = append(matched[e.slot], term)
		}
	}

	// Candidates are collected in term-then-posting order; re-establish
	// insertion order so the stable sort has a deterministic base.
	sort.Slice(candidateOrder, func(i, j int) bool {
		return candidateOrder[i] < candidateOrder[j]
	})

	results := make([]Match, 0, len(candidateOrder))
	for _, slot := range candidateOrder {
		if scores[slot] < opts.MinScore {
			continue
		}
		doc := &ix.docs[slot]
		results = append(results, Match{
			DocumentId:   doc.id,
			Title:        doc.title,
			Category:     doc.category,
			Tags:         doc.tags,
			CreatedAt:    doc.createdAt,
			Score:        math.Min(scores[slot]/float64(len(queryTerms)), 1.0),
			MatchedTerms: dedupeTerms(matched[slot]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results
}

// Len returns the number of live documents in the index.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.liveDocs
}

// Has reports whether the document is indexed.
func (ix *Index) Has(id core.ID) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.slots[id]
	return ok
}

// Stats describes the index's current shape.
type Stats struct {
	TotalDocuments int
	TotalTerms     int
	AvgDocLength   float64
	PostingCount   int
}

// IndexStats returns corpus statistics.
func (ix *Index) IndexStats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	postings := 0
	for _, pl := range ix.postings {
		postings += len(pl.entries)
	}
	avg := 0.0
	if ix.liveDocs > 0 {
		avg = ix.totalLength / float64(ix.liveDocs)
	}
	return Stats{
		TotalDocuments: ix.liveDocs,
		TotalTerms:     len(ix.postings),
		AvgDocLength:   avg,
		PostingCount:   postings,
	}
}

func passesFilters(doc *docInfo, f core.Filters) bool {
	switch f.TimeRange {
	case "", core.TimeRangeAll:
	case core.TimeRangeRecent, core.TimeRangeWeek:
		if time.Since(doc.createdAt) > 7*24*time.Hour {
			return false
		}
	case core.TimeRangeMonth:
		if time.Since(doc.createdAt) > 30*24*time.Hour {
			return false
		}
	}

	if len(f.DocTypes) > 0 {
		category := doc.category
		if category == "" {
			category = "general"
		}
		found := false
		for _, dt := range f.DocTypes {
			if strings.EqualFold(dt, category) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.Tags) > 0 {
		found := false
	outer:
		for _, want := range f.Tags {
			for _, have := range doc.tags {
				if strings.Contains(strings.ToLower(have), strings.ToLower(want)) {
					found = true
					break outer
				}
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func tokenizeTags(tags []string) []string {
	var tokens []string
	for _, tag := range tags {
		tokens = append(tokens, Tokenize(tag)...)
	}
	return tokens
}

func dedupeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

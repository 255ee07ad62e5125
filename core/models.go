package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is an owned, indexed text document. Once indexed it is immutable;
// an update is expressed as a remove followed by a re-add.
type Document struct {
	Id         ID
	OwnerId    string
	Title      string
	Filename   string
	RawContent string
	Category   string
	Tags       []string
	CreatedAt  time.Time
	InsertedAt time.Time // When the document was inserted into storage
	Length     int       // Derived rune length of RawContent
}

// Chunk is a bounded slice of a document's content with small overlap between
// adjacent chunks. It is the unit over which embeddings are computed. A chunk
// without a vector is not yet searchable semantically.
type Chunk struct {
	Id         ID
	DocumentId ID
	Seq        int
	Content    string
	Vector     []float32
}

// Intent classifies what the user is trying to accomplish with a query.
type Intent string

const (
	IntentInformationSeeking Intent = "information_seeking"
	IntentProblemSolving     Intent = "problem_solving"
	IntentHowTo              Intent = "how_to"
	IntentConceptExplanation Intent = "concept_explanation"
)

// Intents lists the valid intent values.
var Intents = []Intent{
	IntentInformationSeeking,
	IntentProblemSolving,
	IntentHowTo,
	IntentConceptExplanation,
}

// SearchType selects the retrieval strategy for a query.
type SearchType string

const (
	SearchTypeLexical  SearchType = "lexical"
	SearchTypeSemantic SearchType = "semantic"
	SearchTypeHybrid   SearchType = "hybrid"
)

// SearchTypes lists the valid search type values.
var SearchTypes = []SearchType{SearchTypeLexical, SearchTypeSemantic, SearchTypeHybrid}

// TimeRange restricts results by document age.
type TimeRange string

const (
	TimeRangeAll    TimeRange = "all"
	TimeRangeRecent TimeRange = "recent"
	TimeRangeWeek   TimeRange = "week"
	TimeRangeMonth  TimeRange = "month"
)

// Filters restricts a search to a subset of the corpus.
type Filters struct {
	TimeRange TimeRange
	DocTypes  []string
	Tags      []string
	Priority  string
}

// QueryAnalysis is the per-query output of the query analyzer.
// It exists only for the lifetime of a request (or the analyzer cache TTL).
type QueryAnalysis struct {
	Intent           Intent
	Entities         []string
	SearchType       SearchType
	Filters          Filters
	Complexity       string
	Confidence       float32 // clamped to [0,1]
	SuggestedQueries []string
}

// Provenance tags which retrieval sources contributed to a result.
type Provenance string

const (
	ProvenanceLexical  Provenance = "lexical"
	ProvenanceSemantic Provenance = "semantic"
)

// ScoredResult is a ranked passage returned from retrieval. Ephemeral.
type ScoredResult struct {
	DocumentId   ID
	ChunkId      ID // zero when the match is document-level (lexical only)
	Title        string
	Snippet      string
	Score        float32
	Provenance   []Provenance
	MatchedTerms []string
	Category     string
	Tags         []string
	CreatedAt    time.Time
}

// HasProvenance reports whether the result carries the given provenance tag.
func (r *ScoredResult) HasProvenance(p Provenance) bool {
	for _, have := range r.Provenance {
		if have == p {
			return true
		}
	}
	return false
}

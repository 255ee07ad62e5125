// Package search coordinates hybrid retrieval.
//
// The Coordinator validates the query, consults the analyzer for a retrieval
// strategy, runs lexical and semantic retrieval (concurrently for hybrid),
// merges the two result sets under a max rule so a document present in both
// sources is never penalized, applies intent-specific reranking, and
// truncates to the requested size. Component failures degrade the result set
// instead of failing the request; only query validation errors reach the
// caller.
//
// The package also provides a curated fast path for known high-confidence
// questions and a TTL cache used to memoize whole responses.
package search

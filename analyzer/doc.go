// Package analyzer classifies search queries before retrieval.
//
// Analysis determines the user's intent, extracts entities and filters, and
// selects a retrieval strategy. The primary path asks a generation model for
// a strict JSON analysis; every field of the model's output is validated
// against allow-lists before use. A deterministic rule table provides the
// fallback when no model is available or its output cannot be parsed, so
// analysis always succeeds. Results are cached for a short TTL keyed by the
// query and its context.
package analyzer

// Package synthesis turns ranked retrieval results into an answer.
//
// The Synthesizer builds a bounded context from the top results and asks a
// generation model for prose shaped by the query's intent. When no model is
// reachable the answer is extractive, built from the top result locally.
// Reference lists and the no-results message are always constructed locally
// and never depend on the model. Synthesis never fails; it degrades.
package synthesis

// Package ingestion provides the document ingestion pipeline.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Validating and adding documents to storage
//   - Adding documents to the lexical index synchronously
//   - Chunking content and generating embeddings asynchronously
//
// Index and storage mutations for a given owner are serialized so that
// concurrent ingests and deletes cannot interleave. Errors during async
// processing are logged but do not fail the ingestion operation.
package ingestion

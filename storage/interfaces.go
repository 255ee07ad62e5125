package storage

import (
	"context"

	"github.com/poiesic/recall/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, derives a content-based ID.
	// Sets InsertedAt and the derived rune Length if not already set.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Also removes the owner index entries.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// GetDocumentsByOwner retrieves all documents belonging to an owner,
	// ordered by ID.
	GetDocumentsByOwner(ctx context.Context, ownerId string) ([]*core.Document, error)

	// CountByOwner returns the number of documents an owner holds.
	CountByOwner(ctx context.Context, ownerId string) (int, error)
}

// ChunkRepository provides operations for managing document chunks.
type ChunkRepository interface {
	Repository

	// PutChunks stores chunks, overwriting any existing chunk with the same ID.
	// For chunks with ID=0, derives a content-based ID.
	PutChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunksByDocument retrieves all chunks of a document ordered by Seq.
	// Returns an empty slice when the document has no chunks.
	GetChunksByDocument(ctx context.Context, docId core.ID) ([]*core.Chunk, error)

	// GetChunksByDocuments retrieves the chunks of multiple documents.
	// Order is by document ID, then Seq.
	GetChunksByDocuments(ctx context.Context, docIds ...core.ID) ([]*core.Chunk, error)

	// DeleteChunksByDocument removes all chunks of a document.
	// Deleting chunks of an unknown document is a no-op.
	DeleteChunksByDocument(ctx context.Context, docId core.ID) error
}

package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// embedProcessor chunks document content and generates chunk embeddings.
type embedProcessor struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	embedder  ai.Embedder
	logger    *slog.Logger
}

var _ processor = (*embedProcessor)(nil)

func newEmbedProcessor(documents storage.DocumentRepository, chunks storage.ChunkRepository, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embedProcessor{
		documents: documents,
		chunks:    chunks,
		embedder:  embedder,
		logger:    logger.With("processor", "embeddings"),
	}, nil
}

// process chunks and embeds the documents identified by the given IDs.
// Documents that disappeared since ingestion are skipped.
func (ep *embedProcessor) process(ctx context.Context, ids ...core.ID) error {
	ep.logger.Info("processing documents for embeddings", "documents", len(ids))

	docs, err := ep.documents.GetDocuments(ctx, ids...)
	if err != nil {
		ep.logger.Error("error retrieving documents", "err", err)
		return err
	}

	var firstErr error
	for _, doc := range docs {
		if err := ep.processDocument(ctx, doc); err != nil {
			ep.logger.Error("error embedding document", "err", err, "document", doc.Id)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (ep *embedProcessor) processDocument(ctx context.Context, doc *core.Document) error {
	chunks := SplitIntoChunks(doc.Id, doc.RawContent)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	ep.logger.Debug("generating chunk embeddings", "document", doc.Id, "chunks", len(texts))

	vectors, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding document %d: %w", doc.Id, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding document %d: got %d vectors for %d chunks", doc.Id, len(vectors), len(chunks))
	}

	for i, chunk := range chunks {
		chunk.Vector = vectors[i]
	}

	// Re-ingested content may chunk differently; clear the old set so no
	// stale tail chunks survive.
	if err := ep.chunks.DeleteChunksByDocument(ctx, doc.Id); err != nil {
		return err
	}
	_, err = ep.chunks.PutChunks(ctx, chunks...)
	return err
}

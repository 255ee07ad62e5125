package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// Indexer is the lexical index surface the pipeline mutates. Implementations
// route each call to the owner's index.
type Indexer interface {
	// Add indexes the document for its owner, replacing any prior version.
	Add(doc *core.Document) error

	// Remove drops the document from the owner's index. Unknown IDs are a no-op.
	Remove(ownerId string, id core.ID)
}

// Pipeline orchestrates document ingestion. Storage and index updates happen
// synchronously; chunking and embedding run on a worker pool afterward.
type Pipeline struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	indexer   Indexer
	embedPool *ants.Pool
	embedProc processor
	ownerMu   sync.Map // ownerId -> *sync.Mutex
	pending   sync.WaitGroup
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for async embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embedPool != nil {
			p.embedPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embedPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	indexer Indexer,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents: documents,
		chunks:    chunks,
		indexer:   indexer,
		embedPool: pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create the processor after options are applied so it gets the final logger.
	proc, err := newEmbedProcessor(documents, chunks, embedder, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embedProc = proc

	return p, nil
}

// Ingest validates and stores the document, adds it to the owner's index, and
// schedules chunking and embedding in the background. A re-ingest of existing
// content replaces the prior version. Returns the stored document with its
// assigned ID.
func (p *Pipeline) Ingest(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc != nil && doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	mu := p.ownerLock(doc.OwnerId)
	mu.Lock()
	defer mu.Unlock()

	added, err := p.documents.AddDocuments(ctx, doc)
	if err != nil {
		return nil, err
	}
	stored := added[0]

	if err := p.indexer.Add(stored); err != nil {
		// Keep storage and index in step; an unindexed stored document
		// would be unreachable lexically.
		if delErr := p.documents.DeleteDocuments(ctx, stored.Id); delErr != nil {
			p.logger.Error("error rolling back stored document", "err", delErr, "document", stored.Id)
		}
		return nil, err
	}

	p.pending.Add(1)
	submitErr := p.embedPool.Submit(func() {
		defer p.pending.Done()
		if err := p.embedProc.process(context.Background(), stored.Id); err != nil {
			p.logger.Error("error processing embeddings", "err", err, "document", stored.Id)
		}
	})
	if submitErr != nil {
		p.pending.Done()
		p.logger.Error("error scheduling embedding work", "err", submitErr, "document", stored.Id)
	}

	return stored, nil
}

// Delete removes the document, its chunks, and its index postings. The
// document must belong to the given owner.
func (p *Pipeline) Delete(ctx context.Context, ownerId string, id core.ID) error {
	mu := p.ownerLock(ownerId)
	mu.Lock()
	defer mu.Unlock()

	doc, err := p.documents.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	if doc.OwnerId != ownerId {
		return ErrDocumentNotFound
	}

	// Index first so searches stop surfacing the document immediately.
	p.indexer.Remove(ownerId, id)

	if err := p.chunks.DeleteChunksByDocument(ctx, id); err != nil {
		return err
	}
	return p.documents.DeleteDocuments(ctx, id)
}

// Wait blocks until all scheduled embedding work has completed.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release releases the worker pool after draining scheduled work.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.pending.Wait()
	if p.embedPool != nil {
		p.embedPool.Release()
	}
}

func (p *Pipeline) ownerLock(ownerId string) *sync.Mutex {
	mu, _ := p.ownerMu.LoadOrStore(ownerId, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

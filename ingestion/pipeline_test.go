package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ownerIndexes is a test Indexer that keeps one lexical index per owner.
type ownerIndexes struct {
	mu      sync.Mutex
	byOwner map[string]*index.Index
	addErr  error
}

func newOwnerIndexes() *ownerIndexes {
	return &ownerIndexes{byOwner: make(map[string]*index.Index)}
}

func (o *ownerIndexes) Add(doc *core.Document) error {
	if o.addErr != nil {
		return o.addErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	ix, ok := o.byOwner[doc.OwnerId]
	if !ok {
		ix = index.New()
		o.byOwner[doc.OwnerId] = ix
	}
	return ix.Add(doc)
}

func (o *ownerIndexes) Remove(ownerId string, id core.ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ix, ok := o.byOwner[ownerId]; ok {
		ix.Remove(id)
	}
}

func (o *ownerIndexes) has(ownerId string, id core.ID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	ix, ok := o.byOwner[ownerId]
	return ok && ix.Has(id)
}

func setupPipeline(t *testing.T, indexer Indexer) (*Pipeline, storage.DocumentRepository, storage.ChunkRepository) {
	t.Helper()

	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewMockEmbedderWithDimensions(8)

	p, err := NewPipeline(docRepo, chunkRepo, indexer, embedder, WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(p.Release)

	return p, docRepo, chunkRepo
}

func pipelineDoc(owner, title, content string) *core.Document {
	return &core.Document{
		OwnerId:    owner,
		Title:      title,
		RawContent: content,
		Category:   "notes",
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
	}
}

func TestNewPipeline(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	embedder := mock.NewMockEmbedder()
	indexer := newOwnerIndexes()

	t.Run("requires document repository", func(t *testing.T) {
		_, err := NewPipeline(nil, chunkRepo, indexer, embedder)
		assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)
	})

	t.Run("requires chunk repository", func(t *testing.T) {
		_, err := NewPipeline(docRepo, nil, indexer, embedder)
		assert.ErrorIs(t, err, ErrChunkRepositoryRequired)
	})

	t.Run("requires indexer", func(t *testing.T) {
		_, err := NewPipeline(docRepo, chunkRepo, nil, embedder)
		assert.ErrorIs(t, err, ErrIndexerRequired)
	})

	t.Run("requires embedder", func(t *testing.T) {
		_, err := NewPipeline(docRepo, chunkRepo, indexer, nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("creates with options", func(t *testing.T) {
		p, err := NewPipeline(docRepo, chunkRepo, indexer, embedder,
			WithPoolSize(0), WithLogger(nil))
		require.NoError(t, err)
		p.Release()
	})
}

func TestIngest(t *testing.T) {
	indexer := newOwnerIndexes()
	p, docRepo, chunkRepo := setupPipeline(t, indexer)
	ctx := context.Background()

	stored, err := p.Ingest(ctx, pipelineDoc("alice", "Docker Setup", "Install docker. Configure the daemon. Start a container."))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotZero(t, stored.Id)

	// Synchronous effects: stored and indexed.
	got, err := docRepo.GetDocument(ctx, stored.Id)
	require.NoError(t, err)
	assert.Equal(t, "Docker Setup", got.Title)
	assert.True(t, indexer.has("alice", stored.Id))

	// Async effects: chunks with embeddings.
	p.Wait()
	chunks, err := chunkRepo.GetChunksByDocument(ctx, stored.Id)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Len(t, chunk.Vector, 8)
	}
}

func TestIngest_DefaultsCreatedAt(t *testing.T) {
	indexer := newOwnerIndexes()
	p, _, _ := setupPipeline(t, indexer)

	doc := pipelineDoc("alice", "Untimestamped", "Some content worth keeping.")
	doc.CreatedAt = time.Time{}

	stored, err := p.Ingest(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestIngest_InvalidDocument(t *testing.T) {
	indexer := newOwnerIndexes()
	p, _, _ := setupPipeline(t, indexer)

	_, err := p.Ingest(context.Background(), pipelineDoc("alice", "Empty", ""))
	assert.Error(t, err)
}

func TestIngest_IndexFailureRollsBackStorage(t *testing.T) {
	indexer := newOwnerIndexes()
	indexer.addErr = errors.New("index full")
	p, docRepo, _ := setupPipeline(t, indexer)
	ctx := context.Background()

	doc := pipelineDoc("alice", "Doomed", "This document will not survive indexing.")
	_, err := p.Ingest(ctx, doc)
	require.Error(t, err)

	_, err = docRepo.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIngest_LongContentProducesOrderedChunks(t *testing.T) {
	indexer := newOwnerIndexes()
	p, _, chunkRepo := setupPipeline(t, indexer)
	ctx := context.Background()

	content := strings.Repeat("Kubernetes schedules pods onto nodes in the cluster. ", 40)
	stored, err := p.Ingest(ctx, pipelineDoc("alice", "K8s Notes", content))
	require.NoError(t, err)

	p.Wait()
	chunks, err := chunkRepo.GetChunksByDocument(ctx, stored.Id)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Seq)
		assert.Equal(t, stored.Id, chunk.DocumentId)
	}
}

func TestIngest_ReingestReplacesChunks(t *testing.T) {
	indexer := newOwnerIndexes()
	p, _, chunkRepo := setupPipeline(t, indexer)
	ctx := context.Background()

	long := pipelineDoc("alice", "Shrinking", strings.Repeat("A sentence that pads out the first version. ", 40))
	stored, err := p.Ingest(ctx, long)
	require.NoError(t, err)
	p.Wait()

	before, err := chunkRepo.GetChunksByDocument(ctx, stored.Id)
	require.NoError(t, err)
	require.Greater(t, len(before), 1)

	// Same identity fields, shorter content: same ID, fewer chunks.
	short := pipelineDoc("alice", "Shrinking", strings.Repeat("A sentence that pads out the first version. ", 40))
	short.RawContent = short.RawContent[:100]
	short.Id = stored.Id
	_, err = p.Ingest(ctx, short)
	require.NoError(t, err)
	p.Wait()

	after, err := chunkRepo.GetChunksByDocument(ctx, stored.Id)
	require.NoError(t, err)
	assert.Less(t, len(after), len(before))
}

func TestDelete(t *testing.T) {
	indexer := newOwnerIndexes()
	p, docRepo, chunkRepo := setupPipeline(t, indexer)
	ctx := context.Background()

	stored, err := p.Ingest(ctx, pipelineDoc("alice", "Ephemeral", "Here today. Gone tomorrow."))
	require.NoError(t, err)
	p.Wait()

	require.NoError(t, p.Delete(ctx, "alice", stored.Id))

	assert.False(t, indexer.has("alice", stored.Id))

	chunks, err := chunkRepo.GetChunksByDocument(ctx, stored.Id)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = docRepo.GetDocument(ctx, stored.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete_UnknownDocument(t *testing.T) {
	indexer := newOwnerIndexes()
	p, _, _ := setupPipeline(t, indexer)

	err := p.Delete(context.Background(), "alice", core.ID(12345))
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDelete_WrongOwner(t *testing.T) {
	indexer := newOwnerIndexes()
	p, _, _ := setupPipeline(t, indexer)
	ctx := context.Background()

	stored, err := p.Ingest(ctx, pipelineDoc("alice", "Private", "Only alice may remove this."))
	require.NoError(t, err)
	p.Wait()

	err = p.Delete(ctx, "bob", stored.Id)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.True(t, indexer.has("alice", stored.Id))
}

package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDoc(owner, title, content string) *core.Document {
	return &core.Document{
		OwnerId:    owner,
		Title:      title,
		RawContent: content,
		CreatedAt:  time.Now().UTC().Add(-time.Minute),
	}
}

func TestDocumentRepository_Add(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()
	ctx := context.Background()

	t.Run("populates id, timestamps, and length", func(t *testing.T) {
		doc := newTestDoc("owner-1", "First Note", "内容 and words")
		added, err := docRepo.AddDocuments(ctx, doc)
		require.NoError(t, err)
		require.Len(t, added, 1)

		assert.NotZero(t, added[0].Id)
		assert.False(t, added[0].InsertedAt.IsZero())
		assert.Equal(t, 12, added[0].Length) // rune count, not byte count
	})

	t.Run("content-addressed ids are stable", func(t *testing.T) {
		a := newTestDoc("owner-1", "Same Doc", "same content")
		b := newTestDoc("owner-1", "Same Doc", "same content")
		_, err := docRepo.AddDocuments(ctx, a)
		require.NoError(t, err)
		_, err = docRepo.AddDocuments(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, a.Id, b.Id)

		c := newTestDoc("owner-2", "Same Doc", "same content")
		_, err = docRepo.AddDocuments(ctx, c)
		require.NoError(t, err)
		assert.NotEqual(t, a.Id, c.Id, "different owners must get different ids")
	})

	t.Run("rejects invalid documents", func(t *testing.T) {
		_, err := docRepo.AddDocuments(ctx, &core.Document{Title: "no owner"})
		assert.ErrorIs(t, err, core.ErrInvalidDocument)
	})
}

func TestDocumentRepository_GetAndDelete(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()
	ctx := context.Background()

	doc := newTestDoc("owner-1", "Fetch Me", "retrievable content")
	_, err = docRepo.AddDocuments(ctx, doc)
	require.NoError(t, err)

	t.Run("get round trip", func(t *testing.T) {
		got, err := docRepo.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, doc.Title, got.Title)
		assert.Equal(t, doc.RawContent, got.RawContent)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := docRepo.GetDocument(ctx, core.ID(424242))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("get many skips missing", func(t *testing.T) {
		docs, err := docRepo.GetDocuments(ctx, doc.Id, core.ID(424242))
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("delete removes document and index", func(t *testing.T) {
		require.NoError(t, docRepo.DeleteDocuments(ctx, doc.Id))

		_, err := docRepo.GetDocument(ctx, doc.Id)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		owned, err := docRepo.GetDocumentsByOwner(ctx, "owner-1")
		require.NoError(t, err)
		assert.Empty(t, owned)
	})

	t.Run("delete missing", func(t *testing.T) {
		err := docRepo.DeleteDocuments(ctx, core.ID(424242))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestDocumentRepository_Update(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()
	ctx := context.Background()

	doc := newTestDoc("owner-1", "Draft", "first version")
	_, err = docRepo.AddDocuments(ctx, doc)
	require.NoError(t, err)

	t.Run("updates content and recomputes length", func(t *testing.T) {
		doc.RawContent = "the second, longer version"
		_, err := docRepo.UpdateDocuments(ctx, doc)
		require.NoError(t, err)

		got, err := docRepo.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, "the second, longer version", got.RawContent)
		assert.Equal(t, len("the second, longer version"), got.Length)
	})

	t.Run("update missing", func(t *testing.T) {
		missing := newTestDoc("owner-1", "Ghost", "never added")
		missing.Id = core.ID(999999)
		_, err := docRepo.UpdateDocuments(ctx, missing)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestDocumentRepository_OwnerIsolation(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()
	ctx := context.Background()

	for i, owner := range []string{"alice", "alice", "bob"} {
		doc := newTestDoc(owner, "Doc", string(rune('a'+i))+" content")
		_, err := docRepo.AddDocuments(ctx, doc)
		require.NoError(t, err)
	}
	// "alice" must not shadow a hypothetical "alice2" prefix.
	_, err = docRepo.AddDocuments(ctx, newTestDoc("alice2", "Doc", "other corpus"))
	require.NoError(t, err)

	aliceDocs, err := docRepo.GetDocumentsByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, aliceDocs, 2)
	for _, d := range aliceDocs {
		assert.Equal(t, "alice", d.OwnerId)
	}

	count, err := docRepo.CountByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = docRepo.CountByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

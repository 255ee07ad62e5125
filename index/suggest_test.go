package index

import (
	"testing"

	"github.com/poiesic/recall/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(testDoc("Deploy Guide", "deployment steps and deploys checklist")))
	require.NoError(t, ix.Add(testDoc("Deployment Pipeline", "deployment automation notes")))
	require.NoError(t, ix.Add(testDoc("Garden Journal", "tomato seedlings progress")))

	t.Run("completes the last token", func(t *testing.T) {
		suggestions := ix.Suggest("how to deploy", 5)
		assert.Contains(t, suggestions, "deployment")
		assert.Contains(t, suggestions, "deploys")
		assert.NotContains(t, suggestions, "deploy")
	})

	t.Run("ranks by document frequency", func(t *testing.T) {
		suggestions := ix.Suggest("deplo", 5)
		require.NotEmpty(t, suggestions)
		assert.Equal(t, "deployment", suggestions[0])
	})

	t.Run("respects limit", func(t *testing.T) {
		suggestions := ix.Suggest("deplo", 1)
		assert.Len(t, suggestions, 1)
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, ix.Suggest("zzz", 5))
	})

	t.Run("empty partial", func(t *testing.T) {
		assert.Empty(t, ix.Suggest("", 5))
		assert.Empty(t, ix.Suggest("   ", 5))
	})

	t.Run("stable order across calls", func(t *testing.T) {
		first := ix.Suggest("deplo", 5)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, ix.Suggest("deplo", 5))
		}
	})
}

func TestPopularTerms(t *testing.T) {
	ix := New()

	t.Run("empty index", func(t *testing.T) {
		assert.Empty(t, ix.PopularTerms(10))
	})

	require.NoError(t, ix.Add(testDoc("First", "shared vocabulary here")))
	require.NoError(t, ix.Add(testDoc("Second", "shared vocabulary there")))
	require.NoError(t, ix.Add(testDoc("Third", "unique wording only")))

	t.Run("most frequent first", func(t *testing.T) {
		terms := ix.PopularTerms(2)
		require.Len(t, terms, 2)
		assert.Equal(t, 2, terms[0].Frequency)
	})

	t.Run("default limit", func(t *testing.T) {
		terms := ix.PopularTerms(0)
		assert.NotEmpty(t, terms)
	})
}

func TestCategories(t *testing.T) {
	ix := New()

	t.Run("empty index", func(t *testing.T) {
		assert.Empty(t, ix.Categories(10))
	})

	withCategory := func(title, category string) *core.Document {
		doc := testDoc(title, "some content for "+title)
		doc.Category = category
		return doc
	}
	require.NoError(t, ix.Add(withCategory("A", "notes")))
	require.NoError(t, ix.Add(withCategory("B", "notes")))
	require.NoError(t, ix.Add(withCategory("C", "recipes")))
	require.NoError(t, ix.Add(testDoc("D", "no category at all")))

	t.Run("most populous first, uncategorized skipped", func(t *testing.T) {
		assert.Equal(t, []string{"notes", "recipes"}, ix.Categories(10))
	})

	t.Run("respects limit", func(t *testing.T) {
		assert.Equal(t, []string{"notes"}, ix.Categories(1))
	})

	t.Run("removal drops empty categories", func(t *testing.T) {
		ix.Remove(core.IDFromContent("C"))
		assert.Equal(t, []string{"notes"}, ix.Categories(10))
	})
}

package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reci/internal/model"
)

func recipe(id string) model.Recipe {
	return model.Recipe{
		ID:          model.RecipeID(id),
		Title:       "Recipe " + id,
		Description: "desc",
		MimeType:    model.MimePNG,
		Steps:       []string{"a", "b", "c"},
	}
}

func page(ids ...string) []model.Recipe {
	out := make([]model.Recipe, 0, len(ids))
	for _, id := range ids {
		out = append(out, recipe(id))
	}
	return out
}

func TestMergeFetchedPageKeepsLockstep(t *testing.T) {
	s := New()
	pages := [][]model.Recipe{
		page("66f0000000000a", "66f0000000000b", "66f0000000000c"),
		page("66e0000000000a", "66e0000000000b"),
		page("66d0000000000a"),
	}
	cursors := []string{"66f0000000000c", "66e0000000000b", ""}

	for i, p := range pages {
		s.MergeFetchedPage(p, cursors[i])
		require.NoError(t, s.CheckInvariant())
		assert.Equal(t, len(s.byID), len(s.Order()))
	}

	assert.Equal(t, 6, s.Len())
	assert.Equal(t, []model.RecipeID{
		"66f0000000000a", "66f0000000000b", "66f0000000000c",
		"66e0000000000a", "66e0000000000b", "66d0000000000a",
	}, s.Order())
	assert.False(t, s.HasMore())
}

func TestMergeFetchedPageIsIdempotent(t *testing.T) {
	s := New()
	first := page("66f0000000000a", "66f0000000000b")
	s.MergeFetchedPage(first, "66f0000000000b")
	before := s.Order()

	updated := recipe("66f0000000000a")
	updated.Title = "changed upstream"
	added := s.MergeFetchedPage([]model.Recipe{updated, recipe("66f0000000000c")}, "")

	assert.Equal(t, 1, added)
	assert.Equal(t, append(before, "66f0000000000c"), s.Order())
	got, ok := s.Get("66f0000000000a")
	require.True(t, ok)
	assert.Equal(t, "Recipe 66f0000000000a", got.Title, "existing entry must not be mutated")
	require.NoError(t, s.CheckInvariant())
}

func TestMergeFetchedPageUpdatesCursor(t *testing.T) {
	s := New()
	_, ok := s.Cursor()
	assert.False(t, ok)

	s.MergeFetchedPage(page("66f0000000000a"), "66f0000000000a")
	cursor, ok := s.Cursor()
	assert.True(t, ok)
	assert.Equal(t, "66f0000000000a", cursor)

	s.MergeFetchedPage(nil, "")
	assert.False(t, s.HasMore())
}

func TestMergeFetchedPageSkipsDrafts(t *testing.T) {
	s := New()
	draft := model.BlankRecipe()
	added := s.MergeFetchedPage([]model.Recipe{draft, recipe("66f0000000000a")}, "")
	assert.Equal(t, 1, added)
	require.NoError(t, s.CheckInvariant())
}

func TestMergeCreatedRecipe(t *testing.T) {
	s := New()
	s.MergeFetchedPage(page("66f0000000000a", "66f0000000000b"), "66f0000000000b")

	fresh := recipe("670000000000ff")
	require.True(t, s.MergeCreatedRecipe(fresh))
	assert.Equal(t, model.RecipeID("670000000000ff"), s.Order()[0])
	require.NoError(t, s.CheckInvariant())

	before := s.Order()
	assert.False(t, s.MergeCreatedRecipe(fresh), "second merge of the same id is rejected")
	assert.Equal(t, before, s.Order())
	assert.Equal(t, 3, s.Len())
}

func TestMergeCreatedRecipeRejectsDraft(t *testing.T) {
	s := New()
	assert.False(t, s.MergeCreatedRecipe(model.BlankRecipe()))
	assert.Equal(t, 0, s.Len())
}

func TestMergeCreatedRecipeAlreadyFetched(t *testing.T) {
	s := New()
	s.MergeFetchedPage(page("66f0000000000a"), "")
	assert.False(t, s.MergeCreatedRecipe(recipe("66f0000000000a")))
	assert.Equal(t, 1, s.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	s.MergeFetchedPage(page("66f0000000000a"), "")

	got, ok := s.Get("66f0000000000a")
	require.True(t, ok)
	got.Steps[0] = "mutated"

	again, _ := s.Get("66f0000000000a")
	assert.Equal(t, "a", again.Steps[0])

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestLockstepAcrossManyMerges(t *testing.T) {
	s := New()
	for p := 0; p < 20; p++ {
		var batch []model.Recipe
		for i := 0; i < 5; i++ {
			batch = append(batch, recipe(fmt.Sprintf("%08x%06x", 0x66000000-p, i)))
		}
		s.MergeFetchedPage(batch, "next")
		if p%3 == 0 {
			s.MergeCreatedRecipe(recipe(fmt.Sprintf("%08x%06x", 0x67000000+p, 0)))
		}
		require.NoError(t, s.CheckInvariant())
	}
	assert.Equal(t, 100+7, s.Len())
}

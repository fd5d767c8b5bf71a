package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reci/internal/model"
)

type fakeLister struct {
	pages map[string]model.Page
	calls []string
	err   error
}

func (f *fakeLister) ListRecipes(_ context.Context, cursor string) (model.Page, error) {
	f.calls = append(f.calls, cursor)
	if f.err != nil {
		return model.Page{}, f.err
	}
	return f.pages[cursor], nil
}

func recipe(id string) model.Recipe {
	return model.Recipe{
		ID:          model.RecipeID(id),
		Title:       "Recipe " + id,
		Description: "desc",
		MimeType:    model.MimePNG,
		Steps:       []string{"a", "b", "c"},
	}
}

func TestCollectRecipesFirstPageOnly(t *testing.T) {
	lister := &fakeLister{pages: map[string]model.Page{
		"": {Recipes: []model.Recipe{recipe("00000002000001"), recipe("00000001000001")}, LastKey: "00000001000001"},
	}}

	st, err := collectRecipes(context.Background(), lister, false)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Len())
	assert.True(t, st.HasMore())
	assert.Equal(t, []string{""}, lister.calls)
}

func TestCollectRecipesFollowsCursor(t *testing.T) {
	lister := &fakeLister{pages: map[string]model.Page{
		"":               {Recipes: []model.Recipe{recipe("00000003000001")}, LastKey: "00000003000001"},
		"00000003000001": {Recipes: []model.Recipe{recipe("00000002000001")}, LastKey: "00000002000001"},
		"00000002000001": {Recipes: []model.Recipe{recipe("00000001000001")}},
	}}

	st, err := collectRecipes(context.Background(), lister, true)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Len())
	assert.False(t, st.HasMore())
	assert.Equal(t, []string{"", "00000003000001", "00000002000001"}, lister.calls)
	require.NoError(t, st.CheckInvariant())
}

func TestCollectRecipesStopsOnRepeatedCursor(t *testing.T) {
	lister := &fakeLister{pages: map[string]model.Page{
		"":               {Recipes: []model.Recipe{recipe("00000003000001")}, LastKey: "00000003000001"},
		"00000003000001": {Recipes: []model.Recipe{recipe("00000003000001")}, LastKey: "00000003000001"},
	}}

	st, err := collectRecipes(context.Background(), lister, true)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
	assert.Len(t, lister.calls, 2)
}

func TestCollectRecipesError(t *testing.T) {
	lister := &fakeLister{err: errors.New("boom")}
	_, err := collectRecipes(context.Background(), lister, true)
	require.Error(t, err)
}

func TestRenderRecipeTable(t *testing.T) {
	withImage := recipe("00000002000001")
	withImage.MimeType = model.MimeJPEG
	withImage.ImageURL = "http://example.com/images/00000002000001.jpg"

	out := renderRecipeTable([]model.Recipe{withImage, recipe("00000001000001")})
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "00000002000001")
	assert.Contains(t, out, "jpeg")
	assert.Contains(t, out, "—")
	assert.Contains(t, out, fmt.Sprintf("%d", 3))
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reci/internal/api"
	"reci/internal/draft"
	"reci/internal/model"
	"reci/internal/submit"
)

type fakeSubmitter struct {
	got    model.Recipe
	images model.RecipeImages
	calls  int
	err    error
}

func (f *fakeSubmitter) Submit(_ context.Context, r model.Recipe, images model.RecipeImages) (submit.Result, error) {
	f.calls++
	f.got = r
	f.images = images
	if f.err != nil {
		return submit.Result{}, f.err
	}
	r.ID = "00000001abcdef"
	return submit.Result{Recipe: r, Uploaded: images.Count()}, nil
}

type fakeLoader struct {
	images model.RecipeImages
	mime   model.MimeType
	err    error
}

func (f fakeLoader) Load(string) (model.RecipeImages, model.MimeType, error) {
	return f.images, f.mime, f.err
}

func validAdd() addOptions {
	return addOptions{
		title:       "Tea",
		description: "A cup of tea",
		steps:       []string{"Boil water", " Steep ", "Pour"},
	}
}

func TestRunAddSubmitsDraft(t *testing.T) {
	s := &fakeSubmitter{}
	res, err := runAdd(context.Background(), validAdd(), s, fakeLoader{})
	require.NoError(t, err)

	assert.Equal(t, 1, s.calls)
	assert.Equal(t, []string{"Boil water", "Steep", "Pour"}, s.got.Steps)
	assert.Equal(t, model.DefaultMimeType, s.got.MimeType)
	assert.True(t, s.got.IsDraft())
	assert.Equal(t, model.RecipeID("00000001abcdef"), res.Recipe.ID)
	assert.Zero(t, res.Uploaded)
}

func TestRunAddRejectsInvalidDraftBeforeNetwork(t *testing.T) {
	tests := []struct {
		name string
		edit func(*addOptions)
		want draft.Warning
	}{
		{"missing title", func(o *addOptions) { o.title = " " }, draft.WarnHeader},
		{"two steps", func(o *addOptions) { o.steps = o.steps[:2] }, draft.WarnStepCount},
		{"blank step", func(o *addOptions) { o.steps[1] = "  " }, draft.WarnEmptySteps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validAdd()
			opts.steps = append([]string{}, opts.steps...)
			tt.edit(&opts)

			s := &fakeSubmitter{}
			_, err := runAdd(context.Background(), opts, s, fakeLoader{})
			require.Error(t, err)
			assert.Equal(t, string(tt.want), err.Error())
			assert.Zero(t, s.calls)
		})
	}
}

func TestRunAddAttachesImages(t *testing.T) {
	images := model.RecipeImages{
		Image:     &model.ImageMeta{Blob: []byte("large"), Size: 5, ContentHash: "x"},
		Thumbnail: &model.ImageMeta{Blob: []byte("small"), Size: 5, ContentHash: "y"},
	}
	opts := validAdd()
	opts.imagePath = "tea.jpg"

	s := &fakeSubmitter{}
	res, err := runAdd(context.Background(), opts, s, fakeLoader{images: images, mime: model.MimeJPEG})
	require.NoError(t, err)
	assert.Equal(t, model.MimeJPEG, s.got.MimeType)
	assert.Equal(t, 2, res.Uploaded)
}

func TestRunAddRejectedImage(t *testing.T) {
	opts := validAdd()
	opts.imagePath = "notes.txt"

	s := &fakeSubmitter{}
	_, err := runAdd(context.Background(), opts, s, fakeLoader{err: errors.New("unsupported image")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image rejected")
	assert.Zero(t, s.calls)
}

func TestRunAddBackendError(t *testing.T) {
	s := &fakeSubmitter{err: &api.BackendError{Message: "Invalid MIME type."}}
	_, err := runAdd(context.Background(), validAdd(), s, fakeLoader{})
	require.Error(t, err)
	assert.Equal(t, "submit recipe: Invalid MIME type.", err.Error())

	var backendErr *api.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "Invalid MIME type.", backendErr.Message)
}

func TestRunAddKeepsNetworkCause(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:9: connect: connection refused")
	s := &fakeSubmitter{err: cause}
	_, err := runAdd(context.Background(), validAdd(), s, fakeLoader{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), api.UnreachableMessage)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRunAddMalformedResponse(t *testing.T) {
	s := &fakeSubmitter{err: fmt.Errorf("%w: status 502", api.ErrMalformedResponse)}
	_, err := runAdd(context.Background(), validAdd(), s, fakeLoader{})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrMalformedResponse)
	assert.Equal(t, "submit recipe: Invalid request.: status 502", err.Error())
}

// Package submit sends a validated draft to the backend and uploads its
// images to the targets the backend hands back.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reci/internal/api"
	"reci/internal/draft"
	"reci/internal/model"
)

// ErrInvalidDraft is returned when a draft that fails validation reaches the
// pipeline.
var ErrInvalidDraft = errors.New("draft is not ready to submit")

// Backend is the part of api.Client the pipeline needs.
type Backend interface {
	CreateRecipe(ctx context.Context, payload model.CreatePayload) (api.CreateResult, error)
	Upload(ctx context.Context, desc model.UploadDescriptor, blob []byte) error
}

// Result is a created recipe. UploadErrors lists image uploads that failed
// after the recipe itself was stored.
type Result struct {
	Recipe       model.Recipe
	Uploaded     int
	UploadErrors []error
}

// Pipeline runs create then image upload then thumbnail upload.
type Pipeline struct {
	backend Backend
	logger  *slog.Logger
}

func New(backend Backend, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{backend: backend, logger: logger}
}

// BuildPayload serializes a draft. Sizes and hashes are included only when
// both images are attached.
func BuildPayload(r model.Recipe, images model.RecipeImages) model.CreatePayload {
	steps := append([]string{}, r.Steps...)
	mt := r.MimeType
	if !mt.Valid() {
		mt = model.DefaultMimeType
	}

	p := model.CreatePayload{
		Title:        r.Title,
		Description:  r.Description,
		MimeType:     mt,
		Steps:        steps,
		ImagesLoaded: images.Complete(),
	}
	if images.Complete() {
		imageSize := images.Image.Size
		thumbSize := images.Thumbnail.Size
		p.ImageFileSize = &imageSize
		p.ImageMD5 = images.Image.ContentHash
		p.ThumbnailFileSize = &thumbSize
		p.ThumbnailMD5 = images.Thumbnail.ContentHash
	} else {
		p.MimeType = model.DefaultMimeType
	}
	return p
}

// Submit creates the recipe and, when the backend returns upload targets,
// uploads the image and then the thumbnail. It returns only after the last
// upload has finished. A create failure returns the error untouched so the
// caller can tell a *api.BackendError from api.ErrMalformedResponse.
func (p *Pipeline) Submit(ctx context.Context, r model.Recipe, images model.RecipeImages) (Result, error) {
	if !r.IsDraft() {
		return Result{}, fmt.Errorf("%w: recipe %s already exists", ErrInvalidDraft, r.ID)
	}
	if w, ok := draft.Validate(r); !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidDraft, w)
	}

	payload := BuildPayload(r, images)
	created, err := p.backend.CreateRecipe(ctx, payload)
	if err != nil {
		p.logger.Warn("create recipe failed", "title", r.Title, "error", err)
		return Result{}, err
	}

	res := Result{Recipe: created.Recipe}
	p.logger.Info("recipe created", "id", created.Recipe.ID, "images", payload.ImagesLoaded)

	if created.Targets == nil {
		return res, nil
	}

	uploads := []struct {
		name string
		desc model.UploadDescriptor
		meta *model.ImageMeta
	}{
		{"image", created.Targets.Image, images.Image},
		{"thumbnail", created.Targets.Thumbnail, images.Thumbnail},
	}
	for _, u := range uploads {
		if u.meta == nil {
			res.UploadErrors = append(res.UploadErrors, fmt.Errorf("%s upload skipped: no %s attached", u.name, u.name))
			continue
		}
		if err := p.backend.Upload(ctx, u.desc, u.meta.Blob); err != nil {
			p.logger.Warn("upload failed", "id", created.Recipe.ID, "object", u.name, "error", err)
			res.UploadErrors = append(res.UploadErrors, fmt.Errorf("%s upload failed: %w", u.name, err))
			continue
		}
		res.Uploaded++
		p.logger.Debug("upload finished", "id", created.Recipe.ID, "object", u.name, "bytes", u.meta.Size)
	}
	return res, nil
}

// UploadWarning summarizes failed uploads for a notification, or "" when
// every upload succeeded.
func (r Result) UploadWarning() string {
	switch len(r.UploadErrors) {
	case 0:
		return ""
	case 1:
		return "Recipe saved, but one image failed to upload."
	default:
		return "Recipe saved, but its images failed to upload."
	}
}

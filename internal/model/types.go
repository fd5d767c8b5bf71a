package model

import (
	"errors"
	"strings"
)

// RecipeID is the backend-issued recipe key: 8 hex digits of creation time
// followed by 6 random hex digits. The client treats it as opaque.
type RecipeID string

// RecipeIDLength is the length of every backend-issued id.
const RecipeIDLength = 14

// IsValid reports whether the id has the backend's shape.
func (id RecipeID) IsValid() bool {
	if len(id) != RecipeIDLength {
		return false
	}
	for _, c := range id {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

// MimeType is one of the image formats a recipe may carry.
type MimeType string

const (
	MimeJPEG MimeType = "image/jpeg"
	MimePNG  MimeType = "image/png"
	MimeWEBP MimeType = "image/webp"

	// DefaultMimeType matches the "no image" placeholder.
	DefaultMimeType = MimePNG
)

// Valid reports whether m is an allowed image type.
func (m MimeType) Valid() bool {
	switch m {
	case MimeJPEG, MimePNG, MimeWEBP:
		return true
	}
	return false
}

// Extension returns the file extension used for stored objects.
func (m MimeType) Extension() string {
	switch m {
	case MimeJPEG:
		return "jpg"
	case MimeWEBP:
		return "webp"
	default:
		return "png"
	}
}

// Recipe is a recipe as exchanged with the backend. An empty ID marks a draft.
type Recipe struct {
	ID           RecipeID `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	MimeType     MimeType `json:"mimeType"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	Steps        []string `json:"steps"`
}

// IsDraft reports whether the recipe has not been accepted by the backend.
func (r Recipe) IsDraft() bool {
	return r.ID == ""
}

// Clone returns a copy that shares no slices with r.
func (r Recipe) Clone() Recipe {
	r.Steps = append([]string{}, r.Steps...)
	return r
}

// BlankRecipe returns an empty draft.
func BlankRecipe() Recipe {
	return Recipe{
		MimeType: DefaultMimeType,
		Steps:    []string{},
	}
}

// ImageMeta describes one accepted image blob.
type ImageMeta struct {
	Blob        []byte
	Size        int64
	ContentHash string // base64 MD5, sent as Content-MD5
}

// RecipeImages holds the draft-scoped image pair. Never persisted.
type RecipeImages struct {
	Image     *ImageMeta
	Thumbnail *ImageMeta
}

// Complete reports whether both variants are attached.
func (ri RecipeImages) Complete() bool {
	return ri.Image != nil && ri.Thumbnail != nil
}

// Count returns the number of attached variants.
func (ri RecipeImages) Count() int {
	n := 0
	if ri.Image != nil {
		n++
	}
	if ri.Thumbnail != nil {
		n++
	}
	return n
}

// UploadDescriptor is a pre-signed storage upload target.
type UploadDescriptor struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// UploadTargets pairs the descriptors issued for a new recipe.
type UploadTargets struct {
	Image     UploadDescriptor `json:"image"`
	Thumbnail UploadDescriptor `json:"thumbnail"`
}

// Page is one batch returned by the list endpoint.
type Page struct {
	Recipes []Recipe `json:"recipes"`
	LastKey string   `json:"lastKey,omitempty"`
}

// CreatePayload is the body sent to the create endpoint.
type CreatePayload struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	MimeType          MimeType `json:"mimeType"`
	Steps             []string `json:"steps"`
	ImagesLoaded      bool     `json:"imagesLoaded"`
	ImageFileSize     *int64   `json:"imageFileSize,omitempty"`
	ImageMD5          string   `json:"imageMd5,omitempty"`
	ThumbnailFileSize *int64   `json:"thumbnailFileSize,omitempty"`
	ThumbnailMD5      string   `json:"thumbnailMd5,omitempty"`
}

// Sentinel errors used across layers.
var (
	ErrNotFound  = errors.New("recipe not found")
	ErrDuplicate = errors.New("recipe already present")
	ErrDraft     = errors.New("recipe has no id")
)

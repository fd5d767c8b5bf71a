// Package intake turns image files into the draft's image pair: it sniffs the
// real format from magic bytes, derives the thumbnail variant and hashes both.
package intake

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"

	"reci/internal/model"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrIncompletePair    = errors.New("need an image and a thumbnail")
	ErrMixedFormats      = errors.New("image and thumbnail formats differ")
)

var (
	jpegSOI = []byte{0xFF, 0xD8, 0xFF}
	jpegEOI = []byte{0xFF, 0xD9}
)

// Classify identifies a blob by its leading and trailing bytes. The rules are
// checked in order: PNG, JPEG, WEBP.
func Classify(blob []byte) (model.MimeType, error) {
	if len(blob) >= 4 && string(blob[1:4]) == "PNG" {
		return model.MimePNG, nil
	}
	if len(blob) >= 10 {
		marker := string(blob[6:10])
		if (marker == "JFIF" || marker == "EXIF") &&
			bytes.HasPrefix(blob, jpegSOI) &&
			bytes.HasSuffix(blob, jpegEOI) {
			return model.MimeJPEG, nil
		}
	}
	if len(blob) >= 12 && string(blob[0:4]) == "RIFF" && string(blob[8:12]) == "WEBP" {
		return model.MimeWEBP, nil
	}
	return "", ErrUnsupportedFormat
}

// ContentHash returns the base64 MD5 digest a storage target expects in
// Content-MD5.
func ContentHash(blob []byte) string {
	sum := md5.Sum(blob)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Meta records size and content hash for an accepted blob.
func Meta(blob []byte) model.ImageMeta {
	return model.ImageMeta{
		Blob:        blob,
		Size:        int64(len(blob)),
		ContentHash: ContentHash(blob),
	}
}

// Accept classifies an image and its thumbnail. Anything other than two
// accepted blobs of one format yields empty images and the default MIME type.
func Accept(blobs [][]byte) (model.RecipeImages, model.MimeType, error) {
	if len(blobs) != 2 {
		return model.RecipeImages{}, model.DefaultMimeType, fmt.Errorf("%w: got %d file(s)", ErrIncompletePair, len(blobs))
	}

	var types [2]model.MimeType
	for i, b := range blobs {
		mt, err := Classify(b)
		if err != nil {
			return model.RecipeImages{}, model.DefaultMimeType, err
		}
		types[i] = mt
	}
	if types[0] != types[1] {
		return model.RecipeImages{}, model.DefaultMimeType, fmt.Errorf("%w: %s and %s", ErrMixedFormats, types[0], types[1])
	}

	image := Meta(blobs[0])
	thumb := Meta(blobs[1])
	return model.RecipeImages{Image: &image, Thumbnail: &thumb}, types[0], nil
}

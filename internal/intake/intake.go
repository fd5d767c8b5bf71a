package intake

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/nfnt/resize"
	"golang.org/x/image/webp"

	"reci/internal/model"
)

// DefaultMaxSourceBytes caps the file a user may attach.
const DefaultMaxSourceBytes = 1 << 20

// Variant bounds. Sources smaller than a bound are kept at their size.
const (
	largeWidth  = 640
	largeHeight = 1200
	smallWidth  = 360
	smallHeight = 600

	jpegQuality = 80
)

// jfifAPP0 is a minimal JFIF header. The standard library encoder omits it and
// classification keys on the "JFIF" marker at offset 6.
var jfifAPP0 = []byte{
	0xFF, 0xE0, 0x00, 0x10,
	'J', 'F', 'I', 'F', 0x00,
	0x01, 0x01,
	0x00,
	0x00, 0x01, 0x00, 0x01,
	0x00, 0x00,
}

// Intake loads files from disk into image pairs.
type Intake struct {
	maxBytes int64
	logger   *slog.Logger
}

func New(maxBytes int64, logger *slog.Logger) *Intake {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSourceBytes
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Intake{maxBytes: maxBytes, logger: logger}
}

// Load reads path and returns the accepted image pair. Rejected files yield
// empty images and the default MIME type together with the reason.
func (in *Intake) Load(path string) (model.RecipeImages, model.MimeType, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.RecipeImages{}, model.DefaultMimeType, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.Size() > in.maxBytes {
		return model.RecipeImages{}, model.DefaultMimeType, fmt.Errorf("image is %s, limit is %s",
			humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(in.maxBytes)))
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return model.RecipeImages{}, model.DefaultMimeType, fmt.Errorf("failed to read image: %w", err)
	}

	large, small, err := Variants(src)
	if err != nil {
		in.logger.Info("attachment rejected", "path", path, "error", err)
		return model.RecipeImages{}, model.DefaultMimeType, err
	}

	images, mt, err := Accept([][]byte{large, small})
	if err != nil {
		in.logger.Info("attachment rejected", "path", path, "error", err)
		return images, mt, err
	}
	in.logger.Debug("attachment accepted",
		"path", path,
		"mime_type", mt,
		"image_bytes", images.Image.Size,
		"thumbnail_bytes", images.Thumbnail.Size,
	)
	return images, mt, nil
}

// Variants derives the full-size and thumbnail blobs from a source file.
// WEBP sources are decoded to check them but uploaded as-is for both
// variants, since there is no encoder to write a resized copy.
func Variants(src []byte) (large, small []byte, err error) {
	mt, err := Classify(src)
	if err != nil {
		return nil, nil, err
	}
	if mt == model.MimeWEBP {
		if _, err := webp.DecodeConfig(bytes.NewReader(src)); err != nil {
			return nil, nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return src, src, nil
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image: %w", err)
	}

	large, err = encode(resize.Thumbnail(largeWidth, largeHeight, img, resize.Lanczos3), mt)
	if err != nil {
		return nil, nil, err
	}
	small, err = encode(resize.Thumbnail(smallWidth, smallHeight, img, resize.Lanczos3), mt)
	if err != nil {
		return nil, nil, err
	}
	return large, small, nil
}

func encode(img image.Image, mt model.MimeType) ([]byte, error) {
	var buf bytes.Buffer
	switch mt {
	case model.MimeJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		return withJFIF(buf.Bytes()), nil
	case model.MimePNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, ErrUnsupportedFormat
}

// withJFIF inserts the JFIF segment after SOI unless one is already there.
func withJFIF(b []byte) []byte {
	if len(b) < 2 || (len(b) >= 10 && string(b[6:10]) == "JFIF") {
		return b
	}
	out := make([]byte, 0, len(b)+len(jfifAPP0))
	out = append(out, b[:2]...)
	out = append(out, jfifAPP0...)
	return append(out, b[2:]...)
}

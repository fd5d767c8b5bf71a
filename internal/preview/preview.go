// Package preview renders recipe thumbnails as ASCII art for the detail pane.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/qeesung/image2ascii/convert"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of rendered previews kept in memory.
const DefaultCacheSize = 64

// Fetcher downloads stored objects.
type Fetcher interface {
	FetchObject(ctx context.Context, url string) ([]byte, error)
}

// Renderer fetches, decodes and converts thumbnails. Results are cached per
// URL and size; concurrent requests for one key share a single fetch.
type Renderer struct {
	fetcher Fetcher
	cache   *lru.Cache[string, string]
	group   singleflight.Group
	colored bool
	logger  *slog.Logger
}

func New(f Fetcher, cacheSize int, logger *slog.Logger) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview cache: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{
		fetcher: f,
		cache:   cache,
		colored: SupportsColor(),
		logger:  logger,
	}, nil
}

// SupportsColor reports whether ANSI colors should be used for previews.
func SupportsColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

func cacheKey(url string, width, height int) string {
	return fmt.Sprintf("%s@%dx%d", url, width, height)
}

// Cached returns a previously rendered preview without fetching.
func (r *Renderer) Cached(url string, width, height int) (string, bool) {
	return r.cache.Get(cacheKey(url, width, height))
}

// Render returns the ASCII rendering of the image at url.
func (r *Renderer) Render(ctx context.Context, url string, width, height int) (string, error) {
	if url == "" {
		return "", fmt.Errorf("recipe has no thumbnail")
	}
	key := cacheKey(url, width, height)
	if art, ok := r.cache.Get(key); ok {
		return art, nil
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		data, err := r.fetcher.FetchObject(ctx, url)
		if err != nil {
			return "", fmt.Errorf("failed to fetch thumbnail: %w", err)
		}
		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("failed to decode thumbnail: %w", err)
		}
		art := toASCII(img, width, height, r.colored)
		r.cache.Add(key, art)
		r.logger.Debug("preview rendered", "url", url, "format", format, "bytes", len(data))
		return art, nil
	})
	if err != nil {
		r.logger.Debug("preview unavailable", "url", url, "error", err)
		return "", err
	}
	if shared {
		r.logger.Debug("preview fetch shared", "url", url)
	}
	return v.(string), nil
}

func toASCII(img image.Image, width, height int, colored bool) string {
	converter := convert.NewImageConverter()

	opts := convert.DefaultOptions
	opts.FixedWidth = width
	opts.FixedHeight = height
	opts.Colored = colored
	opts.Ratio = 0.5

	return strings.TrimRight(converter.Image2ASCIIString(img, &opts), "\n")
}

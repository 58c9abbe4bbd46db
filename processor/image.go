package processor

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/pevans/postcrawl/discovery"
)

// defaultImageExt is used when a response declares no image type.
const defaultImageExt = "jpg"

// coverImage picks a cover image candidate, downloads it into the image
// directory and returns its root-relative path. The page's own cover image
// wins over images found in the body.
func (p *Processor) coverImage(ctx context.Context, raw discovery.RawArticle, doc *goquery.Document) (string, error) {
	if p.config.ImageDir == "" || p.fetcher == nil {
		return "", nil
	}

	candidate := raw.CoverImageURL
	if candidate == "" {
		candidate, _ = p.extractor.CoverImage(doc, raw.Link)
	}
	if candidate == "" {
		// the body is a container's inner HTML, so container-scoped
		// selectors may not match; take its first image
		candidate = strings.TrimSpace(doc.Find("img[src]").First().AttrOr("src", ""))
	}
	if candidate == "" {
		return "", ErrNoCoverImage
	}

	resp, err := p.fetcher.Get(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", candidate, err)
	}

	ext, err := imageExt(resp.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", candidate, err)
	}

	if err := os.MkdirAll(p.config.ImageDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	name := uuid.NewString() + "." + ext
	if err := os.WriteFile(filepath.Join(p.config.ImageDir, name), resp.Body, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return path.Join(p.config.ImageURLPrefix, name), nil
}

// imageExt derives a file extension from a Content-Type header:
// "image/png" gives "png", "image/svg+xml" gives "svg". A missing header
// gives "jpg"; a non-image type is an error.
func imageExt(contentType string) (string, error) {
	if strings.TrimSpace(contentType) == "" {
		return defaultImageExt, nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return defaultImageExt, nil
	}

	kind, sub, ok := strings.Cut(mediaType, "/")
	if !ok || kind != "image" {
		return "", fmt.Errorf("not an image: %s", mediaType)
	}

	sub, _, _ = strings.Cut(sub, "+")
	if sub == "" {
		return defaultImageExt, nil
	}
	return sub, nil
}

package content

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/postcrawl/processor"
)

// Writer writes post files into a content directory.
type Writer struct {
	dir    string
	locale string
}

// NewWriter creates a writer for dir, creating the directory if needed.
func NewWriter(dir, locale string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}
	if locale == "" {
		locale = DefaultLocale
	}
	return &Writer{dir: dir, locale: locale}, nil
}

// Dir returns the content directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the file a post published at date with slug is written to.
func (w *Writer) Path(date time.Time, slug string) string {
	return filepath.Join(w.dir, Filename(date, slug))
}

// Exists reports whether a post file for date and slug is already present.
func (w *Writer) Exists(date time.Time, slug string) bool {
	_, err := os.Stat(w.Path(date, slug))
	return err == nil
}

// Write persists article as a new post. An existing file with the same date
// and slug is overwritten.
func (w *Writer) Write(article *processor.ProcessedArticle) (*Post, error) {
	post := NewPost(article, w.locale)

	data, err := post.Marshal()
	if err != nil {
		return nil, err
	}

	post.Path = w.Path(post.Date, post.Slug)
	if err := os.WriteFile(post.Path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write post: %w", err)
	}

	return &post, nil
}

// Package processor turns raw candidate articles into finished article
// records: sanitized HTML converted to Markdown, with an excerpt, tags, a
// slug and a locally stored cover image.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pevans/postcrawl/classify"
	"github.com/pevans/postcrawl/discovery"
	"github.com/pevans/postcrawl/extract"
	"github.com/pevans/postcrawl/logger"
	"github.com/pevans/postcrawl/scraper"
)

var (
	// ErrEmptyContent is returned when an article has nothing left to
	// convert after sanitizing.
	ErrEmptyContent = errors.New("article has no content")
	// ErrNoCoverImage is returned when no cover image candidate exists.
	ErrNoCoverImage = errors.New("no cover image candidate")
)

// ProcessedArticle is a finished article ready to be persisted.
type ProcessedArticle struct {
	Title       string
	Slug        string
	PublishedAt time.Time
	Excerpt     string
	// Content is the article body as Markdown.
	Content    string
	Categories []string
	Tags       []string
	// CoverImage is the root-relative path of the stored cover image, empty
	// when none could be stored.
	CoverImage string
	Source     discovery.Source
}

// Fetcher downloads resources. *discovery.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*discovery.Response, error)
}

// Config holds processor settings.
type Config struct {
	// BaseURL is the base relative links and images are resolved against.
	// When empty the article's own link is used.
	BaseURL string
	// ImageDir is where cover images are written. Empty disables cover
	// image downloads.
	ImageDir string
	// ImageURLPrefix is the root-relative path ImageDir is served under.
	ImageURLPrefix string
	// Tags is the tag vocabulary.
	Tags []string
	// MaxTags caps the generated tags.
	MaxTags   int
	Selectors scraper.Selectors
}

// Processor converts RawArticles into ProcessedArticles.
type Processor struct {
	config    Config
	fetcher   Fetcher
	extractor *extract.Extractor
	tagger    *classify.Tagger
	converter *converter
	log       logger.Logger
	now       func() time.Time
}

// New creates a processor. fetcher may be nil when cover images are not
// downloaded.
func New(cfg Config, fetcher Fetcher, log logger.Logger) *Processor {
	if cfg.Tags == nil {
		cfg.Tags = classify.DefaultTags
	}
	if cfg.ImageURLPrefix == "" {
		cfg.ImageURLPrefix = "/images/posts"
	}

	extractor := extract.New(cfg.Selectors)
	return &Processor{
		config:    cfg,
		fetcher:   fetcher,
		extractor: extractor,
		tagger:    classify.NewTagger(cfg.Tags, cfg.MaxTags),
		converter: newConverter(),
		log:       logger.OrNop(log),
		now:       time.Now,
	}
}

// Process converts raw into a ProcessedArticle. A cover image failure is
// logged and leaves CoverImage empty; any other failure is returned.
func (p *Processor) Process(ctx context.Context, raw discovery.RawArticle) (*ProcessedArticle, error) {
	base := p.config.BaseURL
	if base == "" {
		base = raw.Link
	}

	doc, err := p.sanitize(raw.Content, base)
	if err != nil {
		return nil, fmt.Errorf("failed to sanitize %s: %w", raw.Link, err)
	}

	html, err := doc.Find("body").Html()
	if err != nil {
		return nil, fmt.Errorf("failed to render sanitized HTML: %w", err)
	}

	markdown, err := p.converter.Convert(html)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s to markdown: %w", raw.Link, err)
	}
	if markdown == "" {
		return nil, ErrEmptyContent
	}

	published := raw.PublishedAt
	if published.IsZero() {
		published = p.now()
	}

	article := &ProcessedArticle{
		Title:       strings.TrimSpace(raw.Title),
		Slug:        Slug(raw.Title),
		PublishedAt: published.UTC(),
		Excerpt:     Excerpt(markdown),
		Content:     markdown,
		Categories:  append([]string{}, raw.Categories...),
		Tags:        p.tagger.Tags(raw.Title + " " + markdown),
		Source:      raw.Source,
	}

	cover, err := p.coverImage(ctx, raw, doc)
	if err != nil {
		p.log.Warn("cover image skipped",
			logger.String("url", raw.Link),
			logger.String("title", raw.Title),
			logger.Error(err))
	}
	article.CoverImage = cover

	return article, nil
}

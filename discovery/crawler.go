package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pevans/postcrawl/logger"
)

// ErrAllSourcesFailed is returned when no configured source could be
// crawled.
var ErrAllSourcesFailed = errors.New("every source failed")

// SourceError records a source that failed during a crawl.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// CrawlResult holds the articles of one crawl and the sources that failed.
type CrawlResult struct {
	Articles []RawArticle
	Errors   []SourceError
}

// Crawler visits configured sources in order and collects candidate
// articles until the per-run cap is reached. Sources are crawled one at a
// time; a failing source contributes nothing and the crawl moves on.
type Crawler struct {
	sources     []string
	maxArticles int
	rss         Fetcher
	web         Fetcher
	skip        func(link string) bool
	log         logger.Logger
}

// CrawlerOption configures a Crawler.
type CrawlerOption func(*Crawler)

// WithSkip excludes links for which skip returns true, e.g. links persisted
// by an earlier run.
func WithSkip(skip func(link string) bool) CrawlerOption {
	return func(c *Crawler) {
		c.skip = skip
	}
}

// WithLogger sets the crawler's logger.
func WithLogger(l logger.Logger) CrawlerOption {
	return func(c *Crawler) {
		c.log = logger.OrNop(l)
	}
}

// NewCrawler creates a crawler over sources using rss for feed-shaped URLs
// and web for everything else.
func NewCrawler(sources []string, maxArticles int, rss, web Fetcher, opts ...CrawlerOption) *Crawler {
	c := &Crawler{
		sources:     append([]string(nil), sources...),
		maxArticles: maxArticles,
		rss:         rss,
		web:         web,
		log:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetcherFor picks the fetcher for a source URL.
func (c *Crawler) fetcherFor(sourceURL string) Fetcher {
	if IsFeedURL(sourceURL) {
		return c.rss
	}
	return c.web
}

// Crawl runs one crawl. It returns ErrAllSourcesFailed when every source
// failed, and the context error when ctx is done; any other source failure
// is logged and recorded in the result.
func (c *Crawler) Crawl(ctx context.Context) (*CrawlResult, error) {
	result := &CrawlResult{Articles: make([]RawArticle, 0)}
	if len(c.sources) == 0 {
		return result, fmt.Errorf("%w: no sources configured", ErrAllSourcesFailed)
	}

	seen := make(map[string]bool)
	skip := func(link string) bool {
		if seen[link] {
			return true
		}
		return c.skip != nil && c.skip(link)
	}

	attempted := 0
	for _, source := range c.sources {
		if len(result.Articles) >= c.maxArticles {
			c.log.Info("article cap reached, stopping crawl", logger.Int("max_articles", c.maxArticles))
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		attempted++
		start := time.Now()
		articles, err := c.fetchSource(ctx, source, c.maxArticles-len(result.Articles), skip)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			c.log.Error("failed to crawl source", logger.String("source", source), logger.Error(err))
			result.Errors = append(result.Errors, SourceError{Source: source, Err: err})
			continue
		}

		for _, a := range articles {
			if seen[a.Link] || len(result.Articles) >= c.maxArticles {
				continue
			}
			seen[a.Link] = true
			result.Articles = append(result.Articles, a)
		}

		c.log.Info("crawled source",
			logger.String("source", source),
			logger.Int("articles", len(articles)),
			logger.Duration("duration", time.Since(start)))
	}

	if attempted > 0 && len(result.Errors) == attempted {
		return result, fmt.Errorf("%w: %d sources", ErrAllSourcesFailed, attempted)
	}
	return result, nil
}

// fetchSource runs the fetcher for one source. A fetcher panic is reported
// as that source's error.
func (c *Crawler) fetchSource(
	ctx context.Context,
	source string,
	limit int,
	skip func(string) bool,
) (articles []RawArticle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetcher panic: %v", r)
		}
	}()

	fetcher := c.fetcherFor(source)
	if fetcher == nil {
		return nil, errors.New("no fetcher for source")
	}
	return fetcher.Fetch(ctx, Request{URL: source, Limit: limit, Skip: skip})
}

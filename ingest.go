// Package postcrawl runs one ingestion cycle: crawl the configured sources,
// convert each candidate article to Markdown and persist it with the
// category and tag indices.
package postcrawl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/postcrawl/config"
	"github.com/pevans/postcrawl/content"
	"github.com/pevans/postcrawl/discovery"
	"github.com/pevans/postcrawl/extract"
	"github.com/pevans/postcrawl/filter"
	"github.com/pevans/postcrawl/ledger"
	"github.com/pevans/postcrawl/logger"
	"github.com/pevans/postcrawl/processor"
)

// ArticleError records an article that was dropped after discovery.
type ArticleError struct {
	Link  string
	Title string
	Err   error
}

func (e ArticleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Link, e.Err)
}

// Summary describes one run.
type Summary struct {
	// Discovered is the number of candidate articles the crawl produced.
	Discovered int
	// Processed is the number converted to Markdown, whether or not the
	// post was then written.
	Processed int
	// Written holds the paths of the post files written.
	Written      []string
	Failed       []ArticleError
	SourceErrors []discovery.SourceError
	Duration     time.Duration
}

// Ingestor wires the crawler, processor and writers for one configuration.
type Ingestor struct {
	config    *config.Config
	crawler   *discovery.Crawler
	processor *processor.Processor
	writer    *content.Writer
	indices   *content.Indices
	ledger    *ledger.Ledger
	log       logger.Logger
}

// New builds an ingestor from cfg. The caller must Close it.
func New(cfg *config.Config, log logger.Logger) (*Ingestor, error) {
	log = logger.OrNop(log)

	writer, err := content.NewWriter(cfg.ContentDir, cfg.Locale)
	if err != nil {
		return nil, err
	}

	indexDir := cfg.IndexDir
	if indexDir == "" {
		indexDir = filepath.Dir(cfg.ContentDir)
	}

	var l *ledger.Ledger
	if cfg.LedgerPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LedgerPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
		l, err = ledger.Open(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
	}

	client := discovery.NewClient(discovery.ClientConfig{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
		Attempts:  cfg.RetryAttempts,
	})

	deps := discovery.Deps{
		Client:     client,
		Extractor:  extract.New(cfg.Selectors, extract.WithReadability(cfg.UseReadability)),
		Rules:      filter.NewRules(cfg.Keywords, cfg.ExcludeKeywords, cfg.MinWordCount),
		Categories: cfg.Categories,
		Logger:     log,
	}

	opts := []discovery.CrawlerOption{discovery.WithLogger(log)}
	if cfg.SkipSeenLinks && l != nil {
		opts = append(opts, discovery.WithSkip(seenIn(l, log)))
	}

	crawler := discovery.NewCrawler(
		cfg.Sources,
		cfg.MaxArticlesPerRun,
		discovery.NewRSSFetcher(deps),
		discovery.NewWebFetcher(deps, cfg.Links),
		opts...,
	)

	proc := processor.New(processor.Config{
		BaseURL:        cfg.BaseURL,
		ImageDir:       cfg.ImageDir,
		ImageURLPrefix: cfg.ImageURLPrefix,
		Tags:           cfg.Tags,
		Selectors:      cfg.Selectors,
	}, client, log)

	return &Ingestor{
		config:    cfg,
		crawler:   crawler,
		processor: proc,
		writer:    writer,
		indices:   content.NewIndices(indexDir),
		ledger:    l,
		log:       log,
	}, nil
}

// seenIn reports links already recorded in the ledger. Lookup errors are
// logged and the link is crawled.
func seenIn(l *ledger.Ledger, log logger.Logger) func(string) bool {
	return func(link string) bool {
		seen, err := l.HasLink(link)
		if err != nil {
			log.Warn("ledger lookup failed", logger.String("url", link), logger.Error(err))
			return false
		}
		return seen
	}
}

// Close releases the ledger.
func (in *Ingestor) Close() error {
	if in.ledger == nil {
		return nil
	}
	return in.ledger.Close()
}

// Run performs one crawl cycle. Articles that fail to process or write are
// recorded in the summary and skipped. The returned error is non-nil only
// when every source failed or ctx was cancelled.
func (in *Ingestor) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	result, err := in.crawler.Crawl(ctx)
	if result != nil {
		summary.Discovered = len(result.Articles)
		summary.SourceErrors = result.Errors
	}
	if err != nil {
		summary.Duration = time.Since(start)
		return summary, fmt.Errorf("crawl failed: %w", err)
	}

	in.log.Info("crawl finished",
		logger.Int("articles", len(result.Articles)),
		logger.Int("failed_sources", len(result.Errors)))

	for _, raw := range result.Articles {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		article, err := in.processor.Process(ctx, raw)
		if err != nil {
			in.skip(summary, raw, fmt.Errorf("failed to process article: %w", err))
			continue
		}
		summary.Processed++

		path, err := in.persist(raw, article)
		if err != nil {
			in.skip(summary, raw, err)
			continue
		}
		summary.Written = append(summary.Written, path)
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

func (in *Ingestor) skip(summary *Summary, raw discovery.RawArticle, err error) {
	in.log.Warn("article skipped",
		logger.String("source", raw.Source.URL),
		logger.String("url", raw.Link),
		logger.String("title", raw.Title),
		logger.Error(err))
	summary.Failed = append(summary.Failed, ArticleError{Link: raw.Link, Title: raw.Title, Err: err})
}

// persist writes one processed article and returns the post path. Index and
// ledger failures are logged; the post file stays.
func (in *Ingestor) persist(raw discovery.RawArticle, article *processor.ProcessedArticle) (string, error) {
	in.checkCollision(article, raw.Link)

	post, err := in.writer.Write(article)
	if err != nil {
		return "", err
	}

	in.log.Info("article saved",
		logger.String("url", raw.Link),
		logger.String("title", article.Title),
		logger.String("path", post.Path))

	if err := in.indices.Record(article.Categories, article.Tags); err != nil {
		in.log.Error("failed to update indices",
			logger.String("path", post.Path),
			logger.Error(err))
	}

	if in.ledger != nil {
		record := ledger.Record{
			ID:     post.ID.String(),
			Link:   raw.Link,
			Slug:   post.Slug,
			Date:   post.Date,
			Path:   post.Path,
			Source: post.Source.URL,
		}
		if err := in.ledger.Add(record); err != nil {
			in.log.Error("failed to record article in ledger",
				logger.String("url", raw.Link),
				logger.Error(err))
		}
	}

	return post.Path, nil
}

// checkCollision warns when a post with the same date and slug already
// exists. The new post still replaces it.
func (in *Ingestor) checkCollision(article *processor.ProcessedArticle, link string) {
	if !in.writer.Exists(article.PublishedAt, article.Slug) {
		return
	}

	fields := []logger.Field{
		logger.String("url", link),
		logger.String("slug", article.Slug),
		logger.String("path", in.writer.Path(article.PublishedAt, article.Slug)),
	}
	if in.ledger != nil {
		prev, err := in.ledger.FindBySlug(article.PublishedAt, article.Slug)
		switch {
		case err == nil:
			fields = append(fields, logger.String("previous_url", prev.Link))
		case !errors.Is(err, ledger.ErrNotFound):
			fields = append(fields, logger.Error(err))
		}
	}

	in.log.Warn("slug collision, overwriting existing post", fields...)
}

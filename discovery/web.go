package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/pevans/postcrawl/logger"
	"github.com/pevans/postcrawl/scraper"
)

// WebFetcher discovers articles by crawling the anchors of an HTML listing
// page. Every qualifying link is fetched and must pass the keyword and length
// gates on its extracted body.
type WebFetcher struct {
	deps     Deps
	patterns scraper.LinkPatterns
}

// NewWebFetcher creates an HTML fetcher. Empty pattern fields take the
// defaults.
func NewWebFetcher(deps Deps, patterns scraper.LinkPatterns) *WebFetcher {
	return &WebFetcher{
		deps:     deps.withDefaults(),
		patterns: patterns.Merge(scraper.DefaultLinkPatterns()),
	}
}

// Links visits a listing page and returns every anchor with its href
// resolved to an absolute URL, in document order.
func (f *WebFetcher) Links(ctx context.Context, pageURL string) ([]Link, error) {
	cfg := f.deps.Client.Config()
	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(cfg.Timeout)

	var links []Link
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		abs := e.Request.AbsoluteURL(e.Attr("href"))
		if abs == "" {
			return
		}
		links = append(links, Link{
			URL:  abs,
			Text: strings.Join(strings.Fields(e.Text), " "),
		})
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("failed to crawl listing page: %w", err)
	}
	return links, nil
}

// ArticleLinks returns the links on a listing page that qualify as article
// links.
func (f *WebFetcher) ArticleLinks(ctx context.Context, pageURL string) ([]Link, error) {
	links, err := f.Links(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ArticleLinks(links, f.patterns), nil
}

// Fetch implements Fetcher.
func (f *WebFetcher) Fetch(ctx context.Context, req Request) ([]RawArticle, error) {
	log := f.deps.Logger.With(logger.String("source", req.URL))

	links, err := f.ArticleLinks(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	log.Debug("article links found", logger.Int("links", len(links)))

	source := NewSource(req.URL)
	articles := make([]RawArticle, 0)
	for _, link := range links {
		if len(articles) >= req.Limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return articles, err
		}
		if req.skip(link.URL) {
			continue
		}

		article, err := f.article(ctx, link.URL, source)
		if err != nil {
			log.Warn("failed to fetch article", logger.String("url", link.URL), logger.Error(err))
			continue
		}
		if article == nil {
			continue
		}
		articles = append(articles, *article)
	}

	return articles, nil
}

// article fetches one linked page. It returns nil without error when the page
// fails a gate.
func (f *WebFetcher) article(ctx context.Context, link string, source Source) (*RawArticle, error) {
	doc, content, err := f.deps.fetchPage(ctx, link)
	if err != nil {
		return nil, err
	}

	title := f.deps.Extractor.Title(doc)
	text := title + " " + content.Text
	if !f.deps.Rules.Keywords(text) {
		return nil, nil
	}
	if !f.deps.Rules.Length(content.Text) {
		return nil, nil
	}

	article := &RawArticle{
		Title:         title,
		Link:          link,
		Content:       content.HTML,
		Categories:    f.deps.classify(text),
		Source:        source,
		CoverImageURL: f.deps.coverImage(doc, link),
	}
	if t, ok := f.deps.Extractor.PublishDate(doc); ok {
		article.PublishedAt = t
	}
	return article, nil
}

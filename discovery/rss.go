package discovery

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pevans/postcrawl/logger"
)

// RSSFetcher discovers articles from an RSS or Atom feed. Each item passes
// the keyword gates on its title and description before its page is fetched;
// the length gate and classification run on the page body.
type RSSFetcher struct {
	deps Deps
}

// NewRSSFetcher creates an RSS fetcher.
func NewRSSFetcher(deps Deps) *RSSFetcher {
	return &RSSFetcher{deps: deps.withDefaults()}
}

// FetchFeed fetches and parses a feed. gofeed detects RSS and Atom.
func (f *RSSFetcher) FetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	resp, err := f.deps.Client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

// Fetch implements Fetcher.
func (f *RSSFetcher) Fetch(ctx context.Context, req Request) ([]RawArticle, error) {
	log := f.deps.Logger.With(logger.String("source", req.URL))

	feed, err := f.FetchFeed(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	source := NewSource(req.URL)
	articles := make([]RawArticle, 0)
	for _, item := range feed.Items {
		if len(articles) >= req.Limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return articles, err
		}

		link := strings.TrimSpace(item.Link)
		if link == "" || req.skip(link) {
			continue
		}

		title := strings.TrimSpace(item.Title)
		if !f.deps.Rules.Keywords(title + " " + item.Description) {
			log.Debug("item filtered by keywords", logger.String("url", link))
			continue
		}

		article, ok := f.article(ctx, item, link, title, source, log)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// article fetches the item's page and applies the length gate. An unreachable
// page drops the item; a page with no body text falls back to the item's own
// content.
func (f *RSSFetcher) article(
	ctx context.Context,
	item *gofeed.Item,
	link, title string,
	source Source,
	log logger.Logger,
) (RawArticle, bool) {
	article := RawArticle{
		Title:  title,
		Link:   link,
		Source: source,
	}

	doc, content, err := f.deps.fetchPage(ctx, link)
	if err != nil {
		log.Warn("failed to fetch article page", logger.String("url", link), logger.Error(err))
		return RawArticle{}, false
	}
	text := content.Text
	article.Content = content.HTML
	article.CoverImageURL = f.deps.coverImage(doc, link)

	if strings.TrimSpace(text) == "" {
		article.Content = itemContent(item)
		text = htmlText(article.Content)
	}

	if !f.deps.Rules.Length(text) {
		log.Debug("item below minimum word count", logger.String("url", link))
		return RawArticle{}, false
	}

	article.Categories = f.deps.classify(title + " " + text)
	article.PublishedAt = itemDate(item)
	if article.PublishedAt.IsZero() {
		if t, ok := f.deps.Extractor.PublishDate(doc); ok {
			article.PublishedAt = t
		}
	}

	return article, true
}

// itemContent returns the richest body a feed item carries.
func itemContent(item *gofeed.Item) string {
	if strings.TrimSpace(item.Content) != "" {
		return item.Content
	}
	return item.Description
}

// itemDate returns the item's published or updated date, or the zero time.
func itemDate(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed
	}
	return time.Time{}
}

package discovery

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/postcrawl/classify"
	"github.com/pevans/postcrawl/extract"
	"github.com/pevans/postcrawl/filter"
	"github.com/pevans/postcrawl/logger"
	"github.com/pevans/postcrawl/scraper"
)

// Request asks a fetcher for articles from one source.
type Request struct {
	URL string
	// Limit is the most articles the fetcher may return.
	Limit int
	// Skip reports links that must not be fetched. May be nil.
	Skip func(link string) bool
}

func (r Request) skip(link string) bool {
	return r.Skip != nil && r.Skip(link)
}

// Fetcher produces candidate articles from one source. An error means the
// source as a whole failed; per-article failures are logged and skipped.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]RawArticle, error)
}

// Deps are the collaborators shared by both fetchers.
type Deps struct {
	Client     *Client
	Extractor  *extract.Extractor
	Rules      *filter.Rules
	Categories []string
	Logger     logger.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Client == nil {
		d.Client = NewClient(DefaultClientConfig())
	}
	if d.Extractor == nil {
		d.Extractor = extract.New(scraper.Selectors{})
	}
	if d.Rules == nil {
		d.Rules = filter.NewRules(nil, nil, 0)
	}
	d.Logger = logger.OrNop(d.Logger)
	return d
}

// fetchPage downloads an article page and extracts its main body.
func (d Deps) fetchPage(ctx context.Context, link string) (*goquery.Document, extract.Content, error) {
	doc, err := d.Client.GetDocument(ctx, link)
	if err != nil {
		return nil, extract.Content{}, err
	}
	return doc, d.Extractor.Extract(doc, link), nil
}

func (d Deps) coverImage(doc *goquery.Document, link string) string {
	u, _ := d.Extractor.CoverImage(doc, link)
	return u
}

func (d Deps) classify(text string) []string {
	return classify.Classify(text, d.Categories)
}

// htmlText returns the text of an HTML fragment, or the input itself when it
// does not parse.
func htmlText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}

// Package extract isolates the main body, publish date and cover image of an
// article page. Each concern is an ordered list of strategies; the first
// strategy that yields a result wins.
package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
	"github.com/pevans/postcrawl/scraper"
)

// Content is the main body of a page after boilerplate removal.
type Content struct {
	Text string
	HTML string
	// Source names the strategy that produced the content.
	Source string
}

// ContentStrategy tries to isolate the article body of doc.
type ContentStrategy func(doc *goquery.Document) (Content, bool)

// DateStrategy tries to find the publish date of doc.
type DateStrategy func(doc *goquery.Document) (time.Time, bool)

// ImageStrategy tries to find a cover image URL in doc. The URL may be
// relative.
type ImageStrategy func(doc *goquery.Document) (string, bool)

// FirstContent applies strategies in order and returns the first success.
func FirstContent(doc *goquery.Document, strategies []ContentStrategy) (Content, bool) {
	for _, s := range strategies {
		if c, ok := s(doc); ok {
			return c, true
		}
	}
	return Content{}, false
}

// FirstDate applies strategies in order and returns the first success.
func FirstDate(doc *goquery.Document, strategies []DateStrategy) (time.Time, bool) {
	for _, s := range strategies {
		if t, ok := s(doc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// FirstImage applies strategies in order and returns the first success.
func FirstImage(doc *goquery.Document, strategies []ImageStrategy) (string, bool) {
	for _, s := range strategies {
		if u, ok := s(doc); ok {
			return u, true
		}
	}
	return "", false
}

// Extractor applies a selector vocabulary to documents.
type Extractor struct {
	selectors      scraper.Selectors
	useReadability bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithReadability inserts a readability pass before the whole-body fallback.
func WithReadability(enabled bool) Option {
	return func(e *Extractor) {
		e.useReadability = enabled
	}
}

// New creates an extractor. Empty selector lists fall back to the defaults.
func New(selectors scraper.Selectors, opts ...Option) *Extractor {
	e := &Extractor{selectors: selectors.Merge(scraper.DefaultSelectors())}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Selectors returns the effective selector vocabulary.
func (e *Extractor) Selectors() scraper.Selectors {
	return e.selectors
}

// ContentStrategies returns the ordered body strategies for a page at
// pageURL: configured containers, then readability when enabled, then the
// whole body.
func (e *Extractor) ContentStrategies(pageURL string) []ContentStrategy {
	strategies := make([]ContentStrategy, 0, len(e.selectors.Content)+2)
	for _, sel := range e.selectors.Content {
		strategies = append(strategies, ContainerStrategy(sel, e.selectors.Remove))
	}
	if e.useReadability {
		strategies = append(strategies, ReadabilityStrategy(pageURL))
	}
	return append(strategies, ContainerStrategy("body", e.selectors.Remove))
}

// Extract returns the main body of doc. The document itself is not
// modified.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string) Content {
	c, _ := FirstContent(doc, e.ContentStrategies(pageURL))
	return c
}

// Text returns the plain text of the main body of doc.
func (e *Extractor) Text(doc *goquery.Document) string {
	return e.Extract(doc, "").Text
}

// DateStrategies returns the ordered publish-date strategies: metadata tags,
// then machine-readable time attributes, then date-labelled containers.
func (e *Extractor) DateStrategies() []DateStrategy {
	var strategies []DateStrategy
	for _, sel := range e.selectors.DateMeta {
		strategies = append(strategies, AttrDateStrategy(sel, "content"))
	}
	for _, sel := range e.selectors.DateTime {
		strategies = append(strategies, AttrDateStrategy(sel, "datetime"))
	}
	for _, sel := range e.selectors.DateText {
		strategies = append(strategies, TextDateStrategy(sel))
	}
	return strategies
}

// PublishDate returns the first date found in doc that parses.
func (e *Extractor) PublishDate(doc *goquery.Document) (time.Time, bool) {
	return FirstDate(doc, e.DateStrategies())
}

// ImageStrategies returns the ordered cover image strategies: social meta
// tags before in-content images.
func (e *Extractor) ImageStrategies() []ImageStrategy {
	var strategies []ImageStrategy
	for _, sel := range e.selectors.ImageMeta {
		strategies = append(strategies, AttrImageStrategy(sel, "content"))
	}
	for _, sel := range e.selectors.ImageContent {
		strategies = append(strategies, AttrImageStrategy(sel, "src"))
	}
	return strategies
}

// CoverImage returns the first cover image candidate of doc resolved
// against baseURL.
func (e *Extractor) CoverImage(doc *goquery.Document, baseURL string) (string, bool) {
	raw, ok := FirstImage(doc, e.ImageStrategies())
	if !ok {
		return "", false
	}
	resolved, err := Resolve(baseURL, raw)
	if err != nil {
		return "", false
	}
	return resolved, true
}

// Title returns the first non-empty title element of doc.
func (e *Extractor) Title(doc *goquery.Document) string {
	for _, sel := range e.selectors.Title {
		if t := normalizeSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// ContainerStrategy selects the first element matching selector and strips
// the remove selectors from a copy of it. An element with no remaining text
// does not count as a match.
func ContainerStrategy(selector string, remove []string) ContentStrategy {
	return func(doc *goquery.Document) (Content, bool) {
		found := doc.Find(selector).First()
		if found.Length() == 0 {
			return Content{}, false
		}

		container := found.Clone()
		for _, r := range remove {
			if r != "" {
				container.Find(r).Remove()
			}
		}

		text := strings.TrimSpace(container.Text())
		if text == "" {
			return Content{}, false
		}
		html, err := container.Html()
		if err != nil {
			return Content{}, false
		}
		return Content{Text: text, HTML: strings.TrimSpace(html), Source: selector}, true
	}
}

// ReadabilityStrategy runs a readability extraction over the whole page.
func ReadabilityStrategy(pageURL string) ContentStrategy {
	return func(doc *goquery.Document) (Content, bool) {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return Content{}, false
		}
		html, err := doc.Html()
		if err != nil {
			return Content{}, false
		}

		article, err := readability.FromReader(strings.NewReader(html), parsed)
		if err != nil {
			return Content{}, false
		}

		text := strings.TrimSpace(article.TextContent)
		if text == "" {
			return Content{}, false
		}
		return Content{Text: text, HTML: strings.TrimSpace(article.Content), Source: "readability"}, true
	}
}

// AttrDateStrategy parses the attr attribute of the first element matching
// selector.
func AttrDateStrategy(selector, attr string) DateStrategy {
	return func(doc *goquery.Document) (time.Time, bool) {
		value, ok := doc.Find(selector).First().Attr(attr)
		if !ok {
			return time.Time{}, false
		}
		return ParseDate(value)
	}
}

// TextDateStrategy parses the text of the first element matching selector.
func TextDateStrategy(selector string) DateStrategy {
	return func(doc *goquery.Document) (time.Time, bool) {
		return ParseDate(doc.Find(selector).First().Text())
	}
}

// AttrImageStrategy returns the attr attribute of the first element matching
// selector.
func AttrImageStrategy(selector, attr string) ImageStrategy {
	return func(doc *goquery.Document) (string, bool) {
		value, ok := doc.Find(selector).First().Attr(attr)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			return "", false
		}
		return value, true
	}
}

// ParseDate parses a date in any common layout. Dates without a zone are
// taken as UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Resolve resolves ref against base. An absolute ref is returned unchanged.
func Resolve(base, ref string) (string, error) {
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	if refURL.IsAbs() || base == "" {
		return refURL.String(), nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

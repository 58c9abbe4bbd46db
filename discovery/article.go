// Package discovery finds candidate articles on configured sources. It holds
// the RSS and HTML fetchers and the orchestrator that runs them in order
// under a per-run article cap.
package discovery

import (
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Source identifies where an article was discovered.
type Source struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// RawArticle is a candidate article before Markdown conversion. Link is
// unique within a run.
type RawArticle struct {
	Title string
	Link  string
	// PublishedAt is the zero time when the source gave no usable date.
	PublishedAt time.Time
	// Content is the article body as HTML, or plain text when only text was
	// available.
	Content    string
	Categories []string
	Source     Source
	// CoverImageURL is the absolute URL of the page's cover image candidate,
	// if any.
	CoverImageURL string
}

// NewSource builds the descriptor for a configured source URL.
func NewSource(sourceURL string) Source {
	return Source{Name: SourceName(sourceURL), URL: sourceURL}
}

// SourceName derives a display name from the second-level domain label of a
// URL, capitalised: "https://blog.openai.com/x" becomes "Openai". An
// unparsable URL is returned unchanged.
func SourceName(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil || u.Hostname() == "" {
		return sourceURL
	}

	host := u.Hostname()
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}

	label := parts[len(parts)-2]
	if label == "" {
		return host
	}
	r, size := utf8.DecodeRuneInString(label)
	return string(unicode.ToUpper(r)) + label[size:]
}

// IsFeedURL reports whether a source URL looks like an RSS feed: it ends in
// ".xml" or mentions "rss".
func IsFeedURL(sourceURL string) bool {
	lower := strings.ToLower(sourceURL)
	return strings.HasSuffix(lower, ".xml") || strings.Contains(lower, "rss")
}

package discovery

import (
	"strings"
	"unicode/utf8"

	"github.com/pevans/postcrawl/scraper"
)

// Link is an anchor found on a listing page.
type Link struct {
	URL  string
	Text string
}

// IsArticleLink decides whether an absolute link points at an article. A
// link matching an exclude pattern is never an article; otherwise it is one
// if its URL contains an article path pattern or its anchor text is longer
// than the configured minimum.
func IsArticleLink(link Link, patterns scraper.LinkPatterns) bool {
	lower := strings.ToLower(link.URL)
	for _, p := range patterns.Exclude {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return false
		}
	}

	for _, p := range patterns.Article {
		if p != "" && strings.Contains(link.URL, p) {
			return true
		}
	}

	return utf8.RuneCountInString(link.Text) > patterns.MinTextLength
}

// ArticleLinks filters links down to article links, keeping first-seen
// order and dropping duplicates.
func ArticleLinks(links []Link, patterns scraper.LinkPatterns) []Link {
	seen := make(map[string]bool, len(links))
	var out []Link
	for _, l := range links {
		if l.URL == "" || seen[l.URL] {
			continue
		}
		if !IsArticleLink(l, patterns) {
			continue
		}
		seen[l.URL] = true
		out = append(out, l)
	}
	return out
}

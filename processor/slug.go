package processor

import (
	"strings"
	"unicode"
)

// MaxSlugLength is the longest slug Slug returns, in characters.
const MaxSlugLength = 50

// fallbackSlug is used for titles with no letters or digits.
const fallbackSlug = "article"

// Slug derives a URL-safe identifier from a title: Slugify cut to
// MaxSlugLength characters. A title with no letters or digits gives
// "article".
func Slug(title string) string {
	slug := Slugify(title)
	if runes := []rune(slug); len(runes) > MaxSlugLength {
		slug = strings.TrimRight(string(runes[:MaxSlugLength]), "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// Slugify lowercases s, strips punctuation and symbols and collapses
// whitespace runs to single hyphens. Letters of any script are kept.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}

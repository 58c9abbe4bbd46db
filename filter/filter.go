// Package filter implements the keyword and length gates applied to candidate
// articles. All predicates are pure and case-insensitive; keywords match as
// plain substrings, never as tokens or stems.
package filter

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Matcher finds which keywords of a fixed set occur in a text in a single
// pass. A Matcher is not safe for concurrent use.
type Matcher struct {
	keywords []string // as configured, in order
	patterns []string // case-folded, deduplicated, non-empty
	matcher  *ahocorasick.Matcher
}

// NewMatcher builds a matcher over keywords. Empty keywords are ignored.
func NewMatcher(keywords []string) *Matcher {
	m := &Matcher{keywords: append([]string(nil), keywords...)}

	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		p := fold(kw)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		m.patterns = append(m.patterns, p)
	}

	if len(m.patterns) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(m.patterns)
	}
	return m
}

// hits returns the set of case-folded patterns found in text.
func (m *Matcher) hits(text string) map[string]bool {
	found := make(map[string]bool)
	if m.matcher == nil {
		return found
	}
	for _, idx := range m.matcher.Match([]byte(fold(text))) {
		if idx >= 0 && idx < len(m.patterns) {
			found[m.patterns[idx]] = true
		}
	}
	return found
}

// Any reports whether at least one keyword occurs in text.
func (m *Matcher) Any(text string) bool {
	return len(m.hits(text)) > 0
}

// Matches returns the keywords found in text, in configured order. A keyword
// listed twice is returned twice.
func (m *Matcher) Matches(text string) []string {
	found := m.hits(text)
	if len(found) == 0 {
		return []string{}
	}

	matched := make([]string, 0, len(found))
	for _, kw := range m.keywords {
		if found[fold(kw)] {
			matched = append(matched, kw)
		}
	}
	return matched
}

// MatchesAny reports whether any keyword is a case-insensitive substring of
// text. An empty keyword set never matches.
func MatchesAny(text string, keywords []string) bool {
	return NewMatcher(keywords).Any(text)
}

// CountWords counts whitespace-delimited tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// MinWordCount reports whether text has at least n words.
func MinWordCount(text string, n int) bool {
	return CountWords(text) >= n
}

// Rules bundles the inclusion, exclusion and length gates of one run.
type Rules struct {
	include  *Matcher
	exclude  *Matcher
	minWords int
}

// NewRules builds the gates from configured keyword lists and word minimum.
func NewRules(include, exclude []string, minWords int) *Rules {
	return &Rules{
		include:  NewMatcher(include),
		exclude:  NewMatcher(exclude),
		minWords: minWords,
	}
}

// Keywords reports whether text passes the keyword gates: at least one
// inclusion keyword and no exclusion keyword. One exclusion hit disqualifies
// regardless of inclusion hits.
func (r *Rules) Keywords(text string) bool {
	if r.exclude.Any(text) {
		return false
	}
	return r.include.Any(text)
}

// Length reports whether text meets the minimum word count.
func (r *Rules) Length(text string) bool {
	return MinWordCount(text, r.minWords)
}

func fold(s string) string {
	return strings.ToLower(s)
}

// Package classify maps article text onto fixed category and tag
// vocabularies by case-insensitive substring containment.
package classify

import (
	"github.com/pevans/postcrawl/filter"
)

// MaxTags is the default cap on generated tags.
const MaxTags = 5

// DefaultCategories is the category vocabulary used when none is configured.
var DefaultCategories = []string{
	"AI", "機器學習", "深度學習", "大語言模型", "電腦視覺", "自然語言處理", "強化學習",
}

// DefaultTags is the tag vocabulary used when none is configured.
var DefaultTags = []string{
	"OpenAI", "GPT", "ChatGPT", "GPT-4", "GPT-5",
	"Gemini", "Claude", "Llama", "Mistral", "Anthropic",
	"AI", "人工智能", "機器學習", "深度學習", "神經網絡",
	"LLM", "大語言模型", "Transformer", "生成式AI",
	"NLP", "自然語言處理", "電腦視覺", "強化學習",
	"TensorFlow", "PyTorch", "Hugging Face", "NVIDIA",
	"AGI", "通用人工智能", "AI安全", "AI倫理",
}

// Classify returns the members of vocabulary found in text, in vocabulary
// order. A name listed twice in the vocabulary is returned twice.
func Classify(text string, vocabulary []string) []string {
	return filter.NewMatcher(vocabulary).Matches(text)
}

// Tagger generates tags from a fixed vocabulary.
type Tagger struct {
	matcher *filter.Matcher
	limit   int
}

// NewTagger builds a tagger over vocabulary returning at most limit tags. A
// limit below 1 means MaxTags.
func NewTagger(vocabulary []string, limit int) *Tagger {
	if limit < 1 {
		limit = MaxTags
	}
	return &Tagger{matcher: filter.NewMatcher(vocabulary), limit: limit}
}

// Tags returns the deduplicated vocabulary entries found in text, in
// vocabulary order, capped at the tagger's limit.
func (t *Tagger) Tags(text string) []string {
	tags := make([]string, 0, t.limit)
	seen := make(map[string]bool)
	for _, tag := range t.matcher.Matches(text) {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == t.limit {
			break
		}
	}
	return tags
}

// Tags is a convenience wrapper over NewTagger(vocabulary, MaxTags).
func Tags(text string, vocabulary []string) []string {
	return NewTagger(vocabulary, MaxTags).Tags(text)
}

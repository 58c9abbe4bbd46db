// Package scraper holds the selector and URL-pattern vocabularies that drive
// content extraction and article-link discovery. Every list is ordered: the
// first entry that yields a result wins.
package scraper

// Selectors defines how to locate article parts in an HTML document.
type Selectors struct {
	// Content containers, semantic article containers before generic ones.
	Content []string `yaml:"content"`
	// Subtrees removed before text is extracted from a container.
	Remove []string `yaml:"remove"`
	// Subtrees removed when sanitizing article HTML before conversion.
	Sanitize []string `yaml:"sanitize"`
	// Meta tags whose content attribute carries a publish date.
	DateMeta []string `yaml:"date_meta"`
	// Elements whose machine-readable datetime attribute carries a date.
	DateTime []string `yaml:"date_time"`
	// Elements whose text is a human-readable date.
	DateText []string `yaml:"date_text"`
	// Meta tags whose content attribute carries a cover image URL.
	ImageMeta []string `yaml:"image_meta"`
	// Image elements inside the content, in priority order.
	ImageContent []string `yaml:"image_content"`
	// Title elements, in priority order.
	Title []string `yaml:"title"`
}

// LinkPatterns defines which anchors on a listing page are article links.
type LinkPatterns struct {
	// URL substrings that disqualify a link (case-insensitive).
	Exclude []string `yaml:"exclude"`
	// URL substrings that qualify a link as an article.
	Article []string `yaml:"article"`
	// Anchor text longer than this qualifies a link on its own.
	MinTextLength int `yaml:"min_text_length"`
}

// DefaultSelectors returns the built-in selector vocabulary.
func DefaultSelectors() Selectors {
	return Selectors{
		Content: []string{
			"article", ".article", ".post", ".content", ".entry-content", "#content", "main",
		},
		Remove: []string{
			"script", "style", "nav", "header", "footer",
			".sidebar", ".comments", ".ad", ".advertisement",
		},
		Sanitize: []string{
			"script", "style", "iframe", "nav", "header", "footer",
			".sidebar", ".comments", ".ad", ".advertisement", ".share", ".social",
		},
		DateMeta: []string{
			`meta[property="article:published_time"]`,
			`meta[name="pubdate"]`,
			`meta[name="publishdate"]`,
			`meta[name="date"]`,
			`meta[name="DC.date.issued"]`,
		},
		DateTime: []string{"time[datetime]"},
		DateText: []string{".date", ".published", ".pubdate", ".post-date", ".entry-date"},
		ImageMeta: []string{
			`meta[property="og:image"]`,
			`meta[name="twitter:image"]`,
		},
		ImageContent: []string{
			".featured-image img", "article img", ".post-thumbnail img", ".entry-content img",
		},
		Title: []string{"h1", "title"},
	}
}

// DefaultLinkPatterns returns the built-in article-link policy.
func DefaultLinkPatterns() LinkPatterns {
	return LinkPatterns{
		Exclude: []string{
			"login", "signin", "signup", "register",
			"facebook", "twitter", "instagram", "linkedin",
			"contact", "about", "terms", "privacy",
			"javascript:", "mailto:", "tel:",
		},
		Article: []string{
			"/article/", "/post/", "/blog/", "/news/",
			"/20", "/read/", "/story/", "/content/",
		},
		MinTextLength: 20,
	}
}

// Merge returns s with every empty list filled from defaults.
func (s Selectors) Merge(defaults Selectors) Selectors {
	pick := func(v, d []string) []string {
		if len(v) > 0 {
			return v
		}
		return d
	}
	return Selectors{
		Content:      pick(s.Content, defaults.Content),
		Remove:       pick(s.Remove, defaults.Remove),
		Sanitize:     pick(s.Sanitize, defaults.Sanitize),
		DateMeta:     pick(s.DateMeta, defaults.DateMeta),
		DateTime:     pick(s.DateTime, defaults.DateTime),
		DateText:     pick(s.DateText, defaults.DateText),
		ImageMeta:    pick(s.ImageMeta, defaults.ImageMeta),
		ImageContent: pick(s.ImageContent, defaults.ImageContent),
		Title:        pick(s.Title, defaults.Title),
	}
}

// Merge returns p with empty fields filled from defaults.
func (p LinkPatterns) Merge(defaults LinkPatterns) LinkPatterns {
	out := p
	if len(out.Exclude) == 0 {
		out.Exclude = defaults.Exclude
	}
	if len(out.Article) == 0 {
		out.Article = defaults.Article
	}
	if out.MinTextLength <= 0 {
		out.MinTextLength = defaults.MinTextLength
	}
	return out
}

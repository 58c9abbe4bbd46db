// Package config defines the crawler configuration: its defaults, loading
// from a YAML file, environment overrides and validation.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/pevans/postcrawl/classify"
	"github.com/pevans/postcrawl/scraper"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the configuration of one crawl run. It is not modified once
// the run starts.
type Config struct {
	// Sources are crawled in order; each is an RSS feed or an HTML page.
	Sources         []string `yaml:"sources"`
	Categories      []string `yaml:"categories"`
	Keywords        []string `yaml:"keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	// Tags is the tag vocabulary.
	Tags              []string `yaml:"tags"`
	MinWordCount      int      `yaml:"min_word_count"`
	MaxArticlesPerRun int      `yaml:"max_articles_per_run"`

	ContentDir     string `yaml:"content_dir"`
	IndexDir       string `yaml:"index_dir"`
	ImageDir       string `yaml:"image_dir"`
	ImageURLPrefix string `yaml:"image_url_prefix"`
	// LedgerPath is the SQLite ledger file. Empty disables the ledger.
	LedgerPath string `yaml:"ledger_path"`
	// BaseURL is the base relative article links are resolved against.
	// Empty means each article's own URL.
	BaseURL string `yaml:"base_url"`
	Locale  string `yaml:"locale"`

	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	UserAgent      string        `yaml:"user_agent"`
	UseReadability bool          `yaml:"use_readability"`
	// SkipSeenLinks skips links already recorded in the ledger.
	SkipSeenLinks bool `yaml:"skip_seen_links"`

	Log       LogConfig            `yaml:"log"`
	Selectors scraper.Selectors    `yaml:"selectors"`
	Links     scraper.LinkPatterns `yaml:"links"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sources: []string{
			"https://openai.com/blog",
			"https://blog.research.google",
			"https://ai.meta.com/blog/",
			"https://www.microsoft.com/en-us/ai/blog",
			"https://huggingface.co/blog",
			"https://www.deeplearning.ai/blog/",
			"https://pytorch.org/blog/",
			"https://www.tensorflow.org/blog",
			"https://aws.amazon.com/blogs/machine-learning/",
			"https://blogs.nvidia.com/blog/category/deep-learning/",
		},
		Categories: append([]string{}, classify.DefaultCategories...),
		Keywords: []string{
			"AI", "人工智能", "機器學習", "LLM", "GPT", "深度學習",
			"神經網絡", "大模型", "Transformer", "生成式AI",
			"ChatGPT", "Gemini", "Claude", "Llama", "Mistral",
		},
		ExcludeKeywords:   []string{"廣告", "贊助", "招聘", "訂閱"},
		Tags:              append([]string{}, classify.DefaultTags...),
		MinWordCount:      500,
		MaxArticlesPerRun: 5,

		ContentDir:     "content/posts",
		IndexDir:       "content",
		ImageDir:       "public/images/posts",
		ImageURLPrefix: "/images/posts",
		LedgerPath:     ".postcrawl/ledger.db",
		Locale:         "zh-TW",

		FetchTimeout:  10 * time.Second,
		RetryAttempts: 2,
		Log:           LogConfig{Level: "info"},
	}
}

// Validate checks the run limits and that there is something to crawl.
func (c *Config) Validate() error {
	if c.MinWordCount < 0 {
		return fmt.Errorf("%w: min_word_count must be >= 0, got %d", ErrInvalidConfig, c.MinWordCount)
	}
	if c.MaxArticlesPerRun < 1 {
		return fmt.Errorf("%w: max_articles_per_run must be >= 1, got %d", ErrInvalidConfig, c.MaxArticlesPerRun)
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("%w: no sources configured", ErrInvalidConfig)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("%w: fetch_timeout must not be negative", ErrInvalidConfig)
	}
	if c.ContentDir == "" {
		return fmt.Errorf("%w: content_dir is required", ErrInvalidConfig)
	}
	return nil
}

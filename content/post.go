// Package content persists processed articles as Markdown files with a YAML
// front matter header, and maintains the category and tag indices the site
// is built from.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/postcrawl/discovery"
	"github.com/pevans/postcrawl/processor"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is the language written into every post header.
const DefaultLocale = "zh-TW"

const delimiter = "---"

// ErrNoFrontMatter is returned when a file does not begin with a front
// matter block.
var ErrNoFrontMatter = errors.New("missing front matter")

// Post is a persisted article.
type Post struct {
	ID         uuid.UUID
	Title      string
	Date       time.Time
	Slug       string
	Excerpt    string
	Categories []string
	Tags       []string
	CoverImage string
	Source     discovery.Source
	Language   string
	// Body is the Markdown article body.
	Body string
	// Path is the file the post was read from or written to.
	Path string
}

// frontMatter mirrors the header of a post file when reading it back.
type frontMatter struct {
	ID         string           `yaml:"id"`
	Title      string           `yaml:"title"`
	Date       string           `yaml:"date"`
	Slug       string           `yaml:"slug"`
	Excerpt    string           `yaml:"excerpt"`
	Categories []string         `yaml:"categories"`
	Tags       []string         `yaml:"tags"`
	CoverImage string           `yaml:"coverImage"`
	Source     discovery.Source `yaml:"source"`
	Language   string           `yaml:"language"`
}

// NewPost builds the post for a processed article with a fresh id.
func NewPost(article *processor.ProcessedArticle, locale string) Post {
	if locale == "" {
		locale = DefaultLocale
	}
	return Post{
		ID:         uuid.New(),
		Title:      article.Title,
		Date:       article.PublishedAt.UTC(),
		Slug:       article.Slug,
		Excerpt:    article.Excerpt,
		Categories: article.Categories,
		Tags:       article.Tags,
		CoverImage: article.CoverImage,
		Source:     article.Source,
		Language:   locale,
		Body:       article.Content,
	}
}

// Filename returns the post's file name, "<YYYY-MM-DD>-<slug>.md".
func (p Post) Filename() string {
	return Filename(p.Date, p.Slug)
}

// Filename returns the file name for a post published at date with slug.
func Filename(date time.Time, slug string) string {
	return date.UTC().Format("2006-01-02") + "-" + slug + ".md"
}

// Marshal renders the post file: the front matter block followed by the
// body. Strings are double-quoted and lists are written inline.
func (p Post) Marshal() ([]byte, error) {
	header := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		header.Content = append(header.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}

	add("id", quoted(p.ID.String()))
	add("title", quoted(p.Title))
	add("date", quoted(p.Date.UTC().Format(time.RFC3339)))
	add("slug", quoted(p.Slug))
	add("excerpt", quoted(p.Excerpt))
	add("categories", flowList(p.Categories))
	add("tags", flowList(p.Tags))
	if p.CoverImage != "" {
		add("coverImage", quoted(p.CoverImage))
	}
	add("source", &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "name"}, quoted(p.Source.Name),
		{Kind: yaml.ScalarNode, Value: "url"}, quoted(p.Source.URL),
	}})
	add("language", quoted(p.Language))

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(header); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(p.Body)
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

func quoted(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: value}
}

func flowList(values []string) *yaml.Node {
	list := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range values {
		list.Content = append(list.Content, quoted(v))
	}
	return list
}

// ParsePost parses a post file.
func ParsePost(data []byte) (*Post, error) {
	open := []byte(delimiter + "\n")
	if !bytes.HasPrefix(data, open) {
		return nil, ErrNoFrontMatter
	}
	rest := data[len(open):]

	end := bytes.Index(rest, []byte("\n"+delimiter+"\n"))
	if end < 0 {
		return nil, ErrNoFrontMatter
	}

	var fm frontMatter
	if err := yaml.Unmarshal(rest[:end+1], &fm); err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}

	post := &Post{
		Title:      fm.Title,
		Slug:       fm.Slug,
		Excerpt:    fm.Excerpt,
		Categories: fm.Categories,
		Tags:       fm.Tags,
		CoverImage: fm.CoverImage,
		Source:     fm.Source,
		Language:   fm.Language,
		Body:       string(bytes.TrimSpace(rest[end+len(delimiter)+2:])),
	}

	if fm.ID != "" {
		id, err := uuid.Parse(fm.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid post id: %w", err)
		}
		post.ID = id
	}
	if fm.Date != "" {
		date, err := time.Parse(time.RFC3339, fm.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid post date: %w", err)
		}
		post.Date = date
	}

	return post, nil
}

// ReadPost reads and parses the post file at path.
func ReadPost(path string) (*Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read post: %w", err)
	}

	post, err := ParsePost(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	post.Path = path
	return post, nil
}

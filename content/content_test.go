package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pevans/postcrawl/discovery"
	"github.com/pevans/postcrawl/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArticle() *processor.ProcessedArticle {
	return &processor.ProcessedArticle{
		Title:       `Say "hello" to GPT-5`,
		Slug:        "say-hello-to-gpt5",
		PublishedAt: time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("X", -3*3600)),
		Excerpt:     "A short excerpt: with colons, #hashes and 深度學習.",
		Content:     "## Heading\n\nBody text.",
		Categories:  []string{"AI", "深度學習"},
		Tags:        []string{"GPT", "GPT-5"},
		CoverImage:  "/images/posts/abc.png",
		Source:      discovery.Source{Name: "Openai", URL: "https://openai.com/blog"},
	}
}

// TestWriter_Write verifies the file name and header of a written post
func TestWriter_Write(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "posts"), "")
	require.NoError(t, err)

	post, err := w.Write(sampleArticle())
	require.NoError(t, err)

	// the date is taken in UTC
	assert.Equal(t, filepath.Join(w.Dir(), "2024-05-02-say-hello-to-gpt5.md"), post.Path)

	data, err := os.ReadFile(post.Path)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "---\n"))
	assert.Contains(t, text, `title: "Say \"hello\" to GPT-5"`)
	assert.Contains(t, text, `date: "2024-05-02T02:30:00Z"`)
	assert.Contains(t, text, `categories: ["AI", "深度學習"]`)
	assert.Contains(t, text, `tags: ["GPT", "GPT-5"]`)
	assert.Contains(t, text, `coverImage: "/images/posts/abc.png"`)
	assert.Contains(t, text, `language: "zh-TW"`)
	assert.True(t, strings.HasSuffix(text, "---\n\n## Heading\n\nBody text.\n"))
}

// TestReadPost_RoundTrip verifies a written post reads back unchanged
func TestReadPost_RoundTrip(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "en")
	require.NoError(t, err)

	written, err := w.Write(sampleArticle())
	require.NoError(t, err)

	read, err := ReadPost(written.Path)
	require.NoError(t, err)

	assert.Equal(t, written.ID, read.ID)
	assert.Equal(t, written.Title, read.Title)
	assert.True(t, written.Date.Equal(read.Date))
	assert.Equal(t, written.Slug, read.Slug)
	assert.Equal(t, written.Excerpt, read.Excerpt)
	assert.Equal(t, written.Categories, read.Categories)
	assert.Equal(t, written.Tags, read.Tags)
	assert.Equal(t, written.CoverImage, read.CoverImage)
	assert.Equal(t, written.Source, read.Source)
	assert.Equal(t, "en", read.Language)
	assert.Equal(t, "## Heading\n\nBody text.", read.Body)
}

func TestWriter_OptionalFields(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "")
	require.NoError(t, err)

	article := sampleArticle()
	article.CoverImage = ""
	article.Tags = nil

	post, err := w.Write(article)
	require.NoError(t, err)

	data, err := os.ReadFile(post.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "coverImage")
	assert.Contains(t, string(data), "tags: []")
}

// TestWriter_SameSlugOverwrites verifies same-day slug collisions replace
// the earlier file
func TestWriter_SameSlugOverwrites(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "")
	require.NoError(t, err)

	first := sampleArticle()
	assert.False(t, w.Exists(first.PublishedAt, first.Slug))
	_, err = w.Write(first)
	require.NoError(t, err)
	assert.True(t, w.Exists(first.PublishedAt, first.Slug))

	second := sampleArticle()
	second.Title = "Another story"
	post, err := w.Write(second)
	require.NoError(t, err)

	entries, err := os.ReadDir(w.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	read, err := ReadPost(post.Path)
	require.NoError(t, err)
	assert.Equal(t, "Another story", read.Title)
}

func TestParsePost_Invalid(t *testing.T) {
	_, err := ParsePost([]byte("no header here"))
	assert.ErrorIs(t, err, ErrNoFrontMatter)

	_, err = ParsePost([]byte("---\ntitle: \"x\"\n"))
	assert.ErrorIs(t, err, ErrNoFrontMatter)

	_, err = ParsePost([]byte("---\ndate: \"yesterday\"\n---\n\nbody"))
	assert.Error(t, err)
}

// TestIndex_AddCounts verifies repeated names increment instead of duplicating
func TestIndex_AddCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), CategoriesFile)

	idx, err := LoadIndex(path, CategoryDescription)
	require.NoError(t, err)
	assert.Empty(t, idx.Entries())

	idx.Add("AI", "深度學習")
	idx.Add("AI")
	require.NoError(t, idx.Save())

	reloaded, err := LoadIndex(path, CategoryDescription)
	require.NoError(t, err)
	entries := reloaded.Entries()
	require.Len(t, entries, 2)

	ai, ok := reloaded.Get("AI")
	require.True(t, ok)
	assert.Equal(t, 2, ai.Count)
	assert.Equal(t, "ai", ai.Slug)
	assert.Equal(t, "AI 相關的文章", ai.Description)
	assert.NotEmpty(t, ai.ID)

	dl, ok := reloaded.Get("深度學習")
	require.True(t, ok)
	assert.Equal(t, 1, dl.Count)
	assert.Equal(t, "深度學習", dl.Slug)
}

// TestIndices_Record verifies both indices across repeated runs
func TestIndices_Record(t *testing.T) {
	dir := t.TempDir()
	in := NewIndices(dir)

	require.NoError(t, in.Record([]string{"AI"}, []string{"Hugging Face", "GPT"}))
	require.NoError(t, in.Record([]string{"AI"}, []string{"GPT"}))

	cats, err := in.Categories()
	require.NoError(t, err)
	require.Len(t, cats.Entries(), 1)
	assert.Equal(t, 2, cats.Entries()[0].Count)

	tags, err := in.Tags()
	require.NoError(t, err)
	require.Len(t, tags.Entries(), 2)
	hf, ok := tags.Get("Hugging Face")
	require.True(t, ok)
	assert.Equal(t, "hugging-face", hf.Slug)
	assert.Empty(t, hf.Description)
	gpt, _ := tags.Get("GPT")
	assert.Equal(t, 2, gpt.Count)

	data, err := os.ReadFile(filepath.Join(dir, TagsFile))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "description")
}

// TestIndices_CorruptIndex verifies one bad index does not block the other
func TestIndices_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CategoriesFile), []byte("{not json"), 0o644))

	err := NewIndices(dir).Record([]string{"AI"}, []string{"GPT"})
	assert.Error(t, err)

	tags, err := NewIndices(dir).Tags()
	require.NoError(t, err)
	assert.Len(t, tags.Entries(), 1)
}

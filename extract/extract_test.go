package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/postcrawl/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!DOCTYPE html>
<html>
<head>
  <title>Page Title</title>
  <meta property="og:image" content="/images/cover.png">
  <meta property="article:published_time" content="2024-03-05T08:00:00Z">
</head>
<body>
  <nav>Home | Blog | About</nav>
  <article>
    <h1>Transformers explained</h1>
    <script>var tracking = true;</script>
    <p>Attention is all you need.</p>
    <div class="ad">Buy now</div>
    <img src="/images/inline.jpg">
  </article>
  <footer>Copyright</footer>
</body>
</html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

// TestExtract_ArticleContainer verifies semantic containers win and
// boilerplate is stripped
func TestExtract_ArticleContainer(t *testing.T) {
	doc := parse(t, articlePage)
	e := New(scraper.Selectors{})

	c := e.Extract(doc, "https://example.com/post/1")

	assert.Equal(t, "article", c.Source)
	assert.Contains(t, c.Text, "Attention is all you need.")
	assert.NotContains(t, c.Text, "tracking")
	assert.NotContains(t, c.Text, "Buy now")
	assert.NotContains(t, c.Text, "Home | Blog")
	assert.Contains(t, c.HTML, "<p>Attention is all you need.</p>")
	assert.NotContains(t, c.HTML, "<script>")
}

// TestExtract_DoesNotMutateDocument verifies extraction works on a copy
func TestExtract_DoesNotMutateDocument(t *testing.T) {
	doc := parse(t, articlePage)

	New(scraper.Selectors{}).Extract(doc, "")

	assert.Equal(t, 1, doc.Find("article script").Length())
}

// TestExtract_GenericFallback verifies ordered selectors
func TestExtract_GenericFallback(t *testing.T) {
	doc := parse(t, `<html><body><div class="sidebar">x</div><div class="entry-content"><p>Body text</p></div><main>Main text</main></body></html>`)

	c := New(scraper.Selectors{}).Extract(doc, "")

	assert.Equal(t, ".entry-content", c.Source)
	assert.Equal(t, "Body text", c.Text)
}

// TestExtract_BodyFallback verifies the whole body is used when no container matches
func TestExtract_BodyFallback(t *testing.T) {
	doc := parse(t, `<html><body><div>Just some <b>text</b></div><script>x()</script></body></html>`)

	c := New(scraper.Selectors{}).Extract(doc, "")

	assert.Equal(t, "body", c.Source)
	assert.Equal(t, "Just some text", c.Text)
}

// TestExtract_EmptyContainerSkipped verifies a container with only
// boilerplate does not win
func TestExtract_EmptyContainerSkipped(t *testing.T) {
	doc := parse(t, `<html><body><article><script>x()</script></article><div class="post">Real post</div></body></html>`)

	c := New(scraper.Selectors{}).Extract(doc, "")

	assert.Equal(t, ".post", c.Source)
	assert.Equal(t, "Real post", c.Text)
}

func TestExtract_Readability(t *testing.T) {
	paragraph := strings.Repeat("Large language models keep improving at reasoning tasks. ", 20)
	doc := parse(t, `<html><head><title>T</title></head><body><div id="story"><p>`+paragraph+`</p><p>`+paragraph+`</p></div></body></html>`)

	c := New(scraper.Selectors{Content: []string{".missing"}}, WithReadability(true)).
		Extract(doc, "https://example.com/story")

	assert.Equal(t, "readability", c.Source)
	assert.Contains(t, c.Text, "Large language models")
}

// TestPublishDate_Order verifies meta before time before text
func TestPublishDate_Order(t *testing.T) {
	tests := []struct {
		name string
		html string
		want time.Time
	}{
		{
			name: "meta",
			html: `<html><head><meta property="article:published_time" content="2024-03-05T08:00:00Z"></head><body><time datetime="2020-01-01">x</time></body></html>`,
			want: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "time element",
			html: `<html><body><time datetime="2023-07-14T10:00:00Z">July</time><span class="date">2020-01-01</span></body></html>`,
			want: time.Date(2023, 7, 14, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "unparseable meta skipped",
			html: `<html><head><meta name="date" content="soon"></head><body><span class="post-date">2022-11-02</span></body></html>`,
			want: time.Date(2022, 11, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	e := New(scraper.Selectors{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.PublishDate(parse(t, tt.html))
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestPublishDate_Absent(t *testing.T) {
	_, ok := New(scraper.Selectors{}).PublishDate(parse(t, `<html><body><p>no date</p></body></html>`))

	assert.False(t, ok)
}

// TestCoverImage_MetaFirst verifies social meta wins and relative URLs resolve
func TestCoverImage_MetaFirst(t *testing.T) {
	got, ok := New(scraper.Selectors{}).CoverImage(parse(t, articlePage), "https://example.com/post/1")

	require.True(t, ok)
	assert.Equal(t, "https://example.com/images/cover.png", got)
}

func TestCoverImage_ContentImage(t *testing.T) {
	doc := parse(t, `<html><body><article><img src="pics/a.jpg"></article></body></html>`)

	got, ok := New(scraper.Selectors{}).CoverImage(doc, "https://example.com/blog/post")

	require.True(t, ok)
	assert.Equal(t, "https://example.com/blog/pics/a.jpg", got)
}

func TestCoverImage_None(t *testing.T) {
	_, ok := New(scraper.Selectors{}).CoverImage(parse(t, `<html><body><p>x</p></body></html>`), "https://example.com")

	assert.False(t, ok)
}

func TestTitle(t *testing.T) {
	e := New(scraper.Selectors{})

	assert.Equal(t, "Transformers explained", e.Title(parse(t, articlePage)))
	assert.Equal(t, "Only Title", e.Title(parse(t, `<html><head><title> Only
	Title </title></head><body></body></html>`)))
}

func TestResolve(t *testing.T) {
	got, err := Resolve("https://example.com/a/b", "../c.png")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/c.png", got)

	got, err = Resolve("https://example.com", "https://cdn.example.com/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/x.png", got)
}

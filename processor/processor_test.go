package processor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pevans/postcrawl/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// imageServer serves a PNG at /img/a.png, text at /page and 404 elsewhere.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img/a.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("\x89PNG fake"))
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestProcessor(t *testing.T, cfg Config) *Processor {
	t.Helper()
	if cfg.ImageDir == "" {
		cfg.ImageDir = t.TempDir()
	}
	p := New(cfg, discovery.NewClient(discovery.ClientConfig{Attempts: 1}), nil)
	p.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return p
}

const articleBody = `<h2>Intro</h2>` +
	`<p>Deep learning with <a href="/docs">the docs</a> and ChatGPT.</p>` +
	`<img src="/img/a.png">` +
	`<script>track()</script><div class="share">Share this</div><iframe src="/ad"></iframe>`

// TestProcess verifies the full conversion of a raw article
func TestProcess(t *testing.T) {
	server := imageServer(t)
	imageDir := t.TempDir()
	p := newTestProcessor(t, Config{ImageDir: imageDir})

	raw := discovery.RawArticle{
		Title:      "ChatGPT meets 深度學習",
		Link:       server.URL + "/post/1",
		Content:    articleBody,
		Categories: []string{"AI"},
		Source:     discovery.Source{Name: "Example", URL: server.URL},
	}

	article, err := p.Process(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "ChatGPT meets 深度學習", article.Title)
	assert.Equal(t, "chatgpt-meets-深度學習", article.Slug)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), article.PublishedAt)
	assert.Equal(t, []string{"AI"}, article.Categories)
	assert.Equal(t, raw.Source, article.Source)

	assert.Contains(t, article.Content, "## Intro")
	assert.Contains(t, article.Content, "[the docs]("+server.URL+"/docs)")
	assert.Contains(t, article.Content, "![Image]("+server.URL+"/img/a.png)")
	assert.NotContains(t, article.Content, "track()")
	assert.NotContains(t, article.Content, "Share this")

	assert.True(t, strings.HasPrefix(article.Excerpt, "Intro Deep learning with the docs and ChatGPT."))

	assert.Contains(t, article.Tags, "ChatGPT")
	assert.Contains(t, article.Tags, "深度學習")
	assert.LessOrEqual(t, len(article.Tags), 5)

	require.True(t, strings.HasPrefix(article.CoverImage, "/images/posts/"))
	assert.True(t, strings.HasSuffix(article.CoverImage, ".png"))
	data, err := os.ReadFile(filepath.Join(imageDir, filepath.Base(article.CoverImage)))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG fake", string(data))
}

// TestProcess_PageCoverWins verifies the page's cover image beats body images
func TestProcess_PageCoverWins(t *testing.T) {
	server := imageServer(t)
	p := newTestProcessor(t, Config{ImageURLPrefix: "/media"})

	article, err := p.Process(context.Background(), discovery.RawArticle{
		Title:         "Post",
		Link:          server.URL + "/post/1",
		Content:       `<p>Body</p><img src="/img/missing.png">`,
		CoverImageURL: server.URL + "/img/a.png",
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(article.CoverImage, "/media/"))
}

// TestProcess_CoverImageFailure verifies a failed download is not fatal
func TestProcess_CoverImageFailure(t *testing.T) {
	server := imageServer(t)
	p := newTestProcessor(t, Config{})

	for _, cover := range []string{server.URL + "/img/missing.png", server.URL + "/page", ""} {
		article, err := p.Process(context.Background(), discovery.RawArticle{
			Title:         "Post",
			Link:          server.URL + "/post/1",
			Content:       "<p>Body without images</p>",
			CoverImageURL: cover,
		})

		require.NoError(t, err)
		assert.Empty(t, article.CoverImage, cover)
	}
}

func TestProcess_FixedBaseURL(t *testing.T) {
	p := New(Config{BaseURL: "https://news.example.com"}, nil, nil)

	article, err := p.Process(context.Background(), discovery.RawArticle{
		Title:       "Post",
		Link:        "https://elsewhere.example.org/a/b",
		Content:     `<p><a href="/docs">docs</a> <a href="#top">top</a> <a href="mailto:x@y.z">mail</a></p>`,
		PublishedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.FixedZone("X", 3600)),
	})

	require.NoError(t, err)
	assert.Contains(t, article.Content, "[docs](https://news.example.com/docs)")
	assert.Contains(t, article.Content, "(#top)")
	assert.Contains(t, article.Content, "(mailto:x@y.z)")
	assert.Equal(t, time.UTC, article.PublishedAt.Location())
	assert.Empty(t, article.CoverImage)
}

func TestProcess_EmptyContent(t *testing.T) {
	p := New(Config{}, nil, nil)

	_, err := p.Process(context.Background(), discovery.RawArticle{
		Title:   "Nothing",
		Content: `<script>only()</script><nav>menu</nav>`,
	})

	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestProcess_PlainTextContent(t *testing.T) {
	p := New(Config{}, nil, nil)

	article, err := p.Process(context.Background(), discovery.RawArticle{
		Title:   "Plain",
		Content: "Just some plain text from a feed.",
	})

	require.NoError(t, err)
	assert.Equal(t, "Just some plain text from a feed.", article.Content)
	assert.Equal(t, "Just some plain text from a feed.", article.Excerpt)
}

func TestImageExt(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{"image/png", "png", false},
		{"image/jpeg; charset=binary", "jpeg", false},
		{"image/svg+xml", "svg", false},
		{"", "jpg", false},
		{"text/html; charset=utf-8", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			got, err := imageExt(tt.contentType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitize_DefaultAlt(t *testing.T) {
	p := New(Config{}, nil, nil)

	doc, err := p.sanitize(`<img src="a.png"><img src="b.png" alt="Chart">`, "https://x.com/post/")

	require.NoError(t, err)
	imgs := doc.Find("img")
	assert.Equal(t, "Image", imgs.Eq(0).AttrOr("alt", ""))
	assert.Equal(t, "https://x.com/post/a.png", imgs.Eq(0).AttrOr("src", ""))
	assert.Equal(t, "Chart", imgs.Eq(1).AttrOr("alt", ""))
}

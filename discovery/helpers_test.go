package discovery

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pevans/postcrawl/filter"
)

// testSite is an httptest server with canned pages that records which
// paths were requested.
type testSite struct {
	*httptest.Server

	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	s := &testSite{pages: map[string]string{}, hits: map[string]int{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		body, ok := s.pages[r.URL.Path]
		s.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, ".xml") {
			w.Header().Set("Content-Type", "application/rss+xml")
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *testSite) set(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = body
}

func (s *testSite) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// articleHTML renders an article page whose body has words words.
func articleHTML(title string, words int, extra string) string {
	body := strings.TrimSpace(strings.Repeat("model ", words))
	return `<html><head><title>` + title + `</title>` +
		`<meta property="og:image" content="/img/cover.png">` +
		`<meta property="article:published_time" content="2024-05-01T09:00:00Z">` +
		`</head><body><nav>menu</nav><article><h1>` + title + `</h1><p>` + body + ` ` + extra + `</p></article></body></html>`
}

func rssFeed(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Test Feed</title>` +
		strings.Join(items, "") + `</channel></rss>`
}

func rssItem(title, link, description, pubDate string) string {
	return `<item><title>` + title + `</title><link>` + link + `</link><description>` +
		description + `</description><pubDate>` + pubDate + `</pubDate></item>`
}

func testDeps(include, exclude []string, minWords int) Deps {
	return Deps{
		Client:     NewClient(ClientConfig{Attempts: 1}),
		Rules:      filter.NewRules(include, exclude, minWords),
		Categories: []string{"AI", "深度學習"},
	}
}

package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
)

// ErrHTTPStatus is wrapped by every non-2xx response error.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// DefaultUserAgent identifies the crawler to remote sites.
const DefaultUserAgent = "postcrawl/1.0 (+article ingestion)"

// maxBodySize caps how much of a response is read.
const maxBodySize = 10 << 20

// StatusError describes a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is makes errors.Is(err, ErrHTTPStatus) hold.
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// Response is a fully read HTTP response body.
type Response struct {
	URL         string
	ContentType string
	Body        []byte
}

// ClientConfig holds HTTP fetch settings.
type ClientConfig struct {
	// Timeout per request attempt.
	Timeout time.Duration
	// UserAgent header sent with every request.
	UserAgent string
	// Attempts is the total number of tries for transient failures.
	Attempts int
	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration
}

// DefaultClientConfig returns the default fetch settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:        10 * time.Second,
		UserAgent:      DefaultUserAgent,
		Attempts:       2,
		InitialBackoff: 500 * time.Millisecond,
	}
}

// Client fetches pages, feeds and images. Network errors and 5xx responses
// are retried with exponential backoff; 4xx responses are not.
type Client struct {
	http   *http.Client
	config ClientConfig
}

// NewClient creates a client. Zero config fields take their defaults.
func NewClient(cfg ClientConfig) *Client {
	def := DefaultClientConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}

	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Config returns the effective client settings.
func (c *Client) Config() ClientConfig {
	return c.config
}

// Get fetches url and reads the whole body.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	var resp *Response
	op := func() error {
		r, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.InitialBackoff
	retries := backoff.WithMaxRetries(policy, uint64(c.config.Attempts-1))

	if err := backoff.Retry(op, backoff.WithContext(retries, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{URL: url, StatusCode: resp.StatusCode}
		if resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// GetDocument fetches url and parses it as HTML.
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

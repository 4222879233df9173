// Package jina wraps the Jina AI reader and search endpoints. The
// discovery pipeline uses Read to enrich sparse brand contexts from the
// brand's own website, and Search as the raw web-search connector behind
// query collection.
package jina

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client is the Jina API surface the pipeline consumes.
type Client interface {
	// Read fetches a page through the reader endpoint and returns its
	// markdown rendering.
	Read(ctx context.Context, targetURL string) (*ReadResponse, error)
	// Search runs a web search and returns ranked results.
	Search(ctx context.Context, query string) (*SearchResponse, error)
}

// ReadResponse is the reader endpoint's envelope.
type ReadResponse struct {
	Code int      `json:"code"`
	Data ReadData `json:"data"`
}

// ReadData carries the rendered page.
type ReadData struct {
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	Content string    `json:"content"`
	Usage   ReadUsage `json:"usage"`
}

// ReadUsage reports token spend per read, logged for cost tracking.
type ReadUsage struct {
	Tokens int `json:"tokens"`
}

// SearchResponse is the search endpoint's envelope.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the reader endpoint.
func WithBaseURL(u string) Option {
	return func(c *client) { c.readerBase = u }
}

// WithSearchBaseURL overrides the search endpoint.
func WithSearchBaseURL(u string) Option {
	return func(c *client) { c.searchBase = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.http = hc }
}

type client struct {
	key        string
	readerBase string
	searchBase string
	http       *http.Client

	// retryWait seeds the backoff between attempts; doubled per retry.
	retryWait time.Duration
}

// NewClient builds a Client against the hosted endpoints. Connector-level
// budgets cap individual calls tighter than the client timeout.
func NewClient(apiKey string, opts ...Option) Client {
	c := &client{
		key:        apiKey,
		readerBase: "https://r.jina.ai",
		searchBase: "https://s.jina.ai",
		retryWait:  time.Second,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Read(ctx context.Context, targetURL string) (*ReadResponse, error) {
	headers := map[string]string{"X-Return-Format": "markdown"}
	var out ReadResponse
	if err := c.getJSON(ctx, c.readerBase+"/"+targetURL, headers, &out); err != nil {
		return nil, eris.Wrap(err, "jina: read")
	}
	return &out, nil
}

func (c *client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.getJSON(ctx, c.searchBase+"/"+url.QueryEscape(query), nil, &out); err != nil {
		// The search endpoint answers 422 when a query yields nothing;
		// that is an empty result set, not a failure.
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusUnprocessableEntity {
			return &SearchResponse{Code: se.code}, nil
		}
		return nil, eris.Wrap(err, "jina: search")
	}
	return &out, nil
}

// statusError is a non-OK terminal response, kept typed so Search can
// recognize the no-results status.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func transientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return true
	}
	return false
}

const retryAttempts = 3

// getJSON issues an authorized GET, retrying transient statuses with
// doubling backoff, and decodes the final body into out.
func (c *client) getJSON(ctx context.Context, reqURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	wait := c.retryWait
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}

		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return eris.Wrap(readErr, "read response body")
		}

		if transientStatus(resp.StatusCode) && attempt < retryAttempts-1 {
			lastErr = &statusError{code: resp.StatusCode, body: string(body)}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return &statusError{code: resp.StatusCode, body: string(body)}
		}
		if err := json.Unmarshal(body, out); err != nil {
			return eris.Wrap(err, "unmarshal response")
		}
		return nil
	}
	return lastErr
}

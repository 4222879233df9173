// Package ddg provides a client for DuckDuckGo's HTML search endpoint,
// used for platform-direct queries and search-based handle validation.
package ddg

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL    = "https://html.duckduckgo.com/html/"
	defaultUserAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultMaxResults = 30
)

// Result is a single parsed search result.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Validation is the verdict of a search-based handle check.
type Validation struct {
	Handle     string   `json:"handle"`
	Platform   string   `json:"platform"`
	IsValid    bool     `json:"is_valid"`
	Confidence float64  `json:"confidence"`
	References int      `json:"references"`
	FoundURLs  []string `json:"found_urls,omitempty"`
	Reason     string   `json:"reason"`
}

// Client defines the DuckDuckGo search operations.
type Client interface {
	// Search runs one query and returns the parsed result list.
	Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error)
	// ValidateHandle checks whether a handle looks like a real account by
	// counting exact references across a small query set.
	ValidateHandle(ctx context.Context, handle, platform string) (*Validation, error)
}

// SearchOption configures a single search call.
type SearchOption func(*searchOpts)

type searchOpts struct {
	maxResults int
}

// WithMaxResults caps the number of parsed results.
func WithMaxResults(n int) SearchOption {
	return func(o *searchOpts) {
		o.maxResults = n
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the HTML endpoint (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUserAgent overrides the request User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a DuckDuckGo HTML search client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	so := &searchOpts{maxResults: defaultMaxResults}
	for _, opt := range opts {
		opt(so)
	}

	reqURL := c.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "ddg: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ddg: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	// The HTML endpoint answers 403 when it throttles a client; surface it
	// with the same vocabulary as a 429 so callers classify it as
	// rate-limiting rather than breakage.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, eris.Errorf("ddg: status %d: rate limited, wait a few minutes", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("ddg: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ddg: parse response")
	}

	var results []Result
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(link.Text()),
			URL:     resolveRedirect(href),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
		return len(results) < so.maxResults
	})
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<target> redirect links.
func resolveRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

// profilePathFragments maps a platform to the URL fragment that marks an
// exact profile reference for a given handle.
func profilePathFragment(platform, handle string) string {
	switch platform {
	case "instagram":
		return "instagram.com/" + handle
	case "tiktok":
		return "tiktok.com/@" + handle
	case "youtube":
		return "youtube.com/@" + handle
	case "linkedin":
		return "linkedin.com/company/" + handle
	case "x":
		return ".com/" + handle // matches both x.com and twitter.com
	case "facebook":
		return "facebook.com/" + handle
	default:
		return platform + ".com/" + handle
	}
}

func (c *httpClient) ValidateHandle(ctx context.Context, handle, platform string) (*Validation, error) {
	handle = strings.ToLower(strings.TrimPrefix(handle, "@"))
	v := &Validation{Handle: handle, Platform: platform}

	var queries []string
	if platform == "instagram" {
		queries = []string{
			fmt.Sprintf(`site:instagram.com "%s"`, handle),
			fmt.Sprintf(`@%s instagram`, handle),
		}
	} else {
		queries = []string{
			fmt.Sprintf(`"%s" %s`, handle, platform),
		}
	}

	fragment := profilePathFragment(platform, handle)
	mention := "@" + handle

	for _, q := range queries {
		results, err := c.Search(ctx, q, WithMaxResults(20))
		if err != nil {
			return nil, eris.Wrapf(err, "ddg: validate %s on %s", handle, platform)
		}
		for _, r := range results {
			href := strings.ToLower(r.URL)
			text := strings.ToLower(r.Title + " " + r.Snippet)
			if strings.Contains(href, fragment) {
				v.References++
				v.FoundURLs = append(v.FoundURLs, r.URL)
			}
			if strings.Contains(text, mention) {
				v.References++
			}
		}
	}

	switch {
	case v.References >= 3:
		v.IsValid = true
		v.Confidence = min(0.95, 0.3+float64(v.References)*0.15)
		v.Reason = fmt.Sprintf("found %d references to @%s", v.References, handle)
	case v.References >= 1:
		v.IsValid = true
		v.Confidence = 0.5 + float64(v.References)*0.1
		v.Reason = fmt.Sprintf("found %d reference(s) to @%s", v.References, handle)
	default:
		v.Confidence = 0.2
		v.Reason = fmt.Sprintf("no clear references found for @%s", handle)
	}
	return v, nil
}

package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/resilience"
)

const (
	defaultProbeUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	probeBodyLimit        = 256 * 1024
)

// Phrases platforms render on soft-404 profile pages that still return
// HTTP 200.
var unavailablePhrases = []string{
	"sorry, this page isn't available",
	"couldn't find this account",
	"account not found",
	"user not found",
	"this account doesn't exist",
	"page not found",
	"profile isn't available",
	"this content isn't available",
}

var profileURLTemplates = map[model.Surface]string{
	model.SurfaceInstagram: "https://www.instagram.com/%s/",
	model.SurfaceTikTok:    "https://www.tiktok.com/@%s",
	model.SurfaceYouTube:   "https://www.youtube.com/@%s",
	model.SurfaceLinkedIn:  "https://www.linkedin.com/company/%s",
	model.SurfaceX:         "https://x.com/%s",
	model.SurfaceFacebook:  "https://www.facebook.com/%s",
	model.SurfaceWebsite:   "https://%s/",
}

// HTTPProber settles handle existence with a direct GET of the public
// profile page.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// ProberOption configures an HTTPProber.
type ProberOption func(*HTTPProber)

// WithProbeClient overrides the HTTP client.
func WithProbeClient(c *http.Client) ProberOption {
	return func(p *HTTPProber) { p.client = c }
}

// WithProbeUserAgent overrides the request User-Agent.
func WithProbeUserAgent(ua string) ProberOption {
	return func(p *HTTPProber) { p.userAgent = ua }
}

// NewHTTPProber builds a prober with the given per-request timeout.
func NewHTTPProber(timeout time.Duration, opts ...ProberOption) *HTTPProber {
	p := &HTTPProber{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultProbeUserAgent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements ProfileProber.
func (p *HTTPProber) Name() string { return "http-probe" }

// ProfileURL returns the public profile URL for a normalized handle.
func ProfileURL(surface model.Surface, handle string) string {
	tpl, ok := profileURLTemplates[surface]
	if !ok {
		return ""
	}
	return fmt.Sprintf(tpl, handle)
}

// Probe implements ProfileProber. Rate limiting and upstream failures
// come back as errors; a definite exists / does-not-exist verdict comes
// back as a ProbeResult.
func (p *HTTPProber) Probe(ctx context.Context, surface model.Surface, handle string) (ProbeResult, error) {
	target := ProfileURL(surface, handle)
	if target == "" {
		return ProbeResult{}, eris.Errorf("probe: no profile url template for surface %q", surface)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return ProbeResult{}, eris.Wrap(err, "probe: build request")
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return ProbeResult{}, resilience.NewTransientError(eris.Wrap(err, "probe: request failed"), 0)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ProbeResult{Exists: false, Confidence: 0.9, Reason: fmt.Sprintf("profile returned %d", resp.StatusCode)}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return ProbeResult{}, resilience.NewTransientError(eris.Errorf("probe: %s returned 429", surface), resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden:
		// Bot walls read as rate limiting, not as a missing profile.
		return ProbeResult{}, resilience.NewTransientError(eris.Errorf("probe: %s returned 403, wait a few minutes", surface), resp.StatusCode)
	case resp.StatusCode >= 500:
		return ProbeResult{}, resilience.NewTransientError(eris.Errorf("probe: %s returned %d", surface, resp.StatusCode), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return ProbeResult{}, eris.Errorf("probe: %s returned unexpected status %d", surface, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, probeBodyLimit))
	if err != nil {
		return ProbeResult{}, eris.Wrap(err, "probe: read body")
	}
	lower := strings.ToLower(string(body))
	for _, phrase := range unavailablePhrases {
		if strings.Contains(lower, phrase) {
			return ProbeResult{Exists: false, Confidence: 0.85, Reason: fmt.Sprintf("profile page reports %q", phrase)}, nil
		}
	}
	return ProbeResult{Exists: true, Confidence: 0.8, Reason: "profile page reachable"}, nil
}

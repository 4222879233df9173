package collect

import (
	"context"
	"strings"

	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/pkg/anthropic"
	"github.com/brandscope/competitor-cli/pkg/ddg"
	"github.com/brandscope/competitor-cli/pkg/jina"
	"github.com/brandscope/competitor-cli/pkg/perplexity"
)

// JinaSearch adapts the Jina Search API to the SearchConnector interface.
// It serves as the raw web search backend.
type JinaSearch struct {
	client jina.Client
}

// NewJinaSearch wraps a Jina client as a search connector.
func NewJinaSearch(client jina.Client) *JinaSearch {
	return &JinaSearch{client: client}
}

// Name implements SearchConnector.
func (j *JinaSearch) Name() string { return "jina_search" }

// Search implements SearchConnector.
func (j *JinaSearch) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error) {
	resp, err := j.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	results := resp.Data
	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		snippet := r.Description
		if snippet == "" {
			snippet = r.Content
		}
		hits = append(hits, SearchHit{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: snippet,
			Query:   query,
		})
	}
	return hits, nil
}

// DDGSearch adapts the DuckDuckGo HTML endpoint to the SearchConnector
// interface. It serves as the platform-direct backend for social surfaces,
// since DDG tolerates site: scoped queries that API search engines reject.
type DDGSearch struct {
	client ddg.Client
}

// NewDDGSearch wraps a DDG client as a search connector.
func NewDDGSearch(client ddg.Client) *DDGSearch {
	return &DDGSearch{client: client}
}

// Name implements SearchConnector.
func (d *DDGSearch) Name() string { return "ddg" }

// Search implements SearchConnector.
func (d *DDGSearch) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error) {
	var ddgOpts []ddg.SearchOption
	if opts.MaxResults > 0 {
		ddgOpts = append(ddgOpts, ddg.WithMaxResults(opts.MaxResults))
	}
	results, err := d.client.Search(ctx, query, ddgOpts...)
	if err != nil {
		return nil, err
	}
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, SearchHit{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Snippet,
			Query:   query,
		})
	}
	return hits, nil
}

// AnthropicSuggester adapts the Claude suggestion prompt to the
// SuggestionConnector interface. It is the primary AI suggestion source.
type AnthropicSuggester struct {
	client anthropic.Client
	cfg    config.AnthropicConfig
}

// NewAnthropicSuggester wraps an Anthropic client as a suggestion connector.
func NewAnthropicSuggester(client anthropic.Client, cfg config.AnthropicConfig) *AnthropicSuggester {
	return &AnthropicSuggester{client: client, cfg: cfg}
}

// Name implements SuggestionConnector.
func (a *AnthropicSuggester) Name() string { return "anthropic_suggest" }

// Suggest implements SuggestionConnector. One model call per requested
// surface; a failed surface aborts the connector so the collector can fall
// back as a whole.
func (a *AnthropicSuggester) Suggest(ctx context.Context, brand *model.BrandContext, opts SuggestOptions) ([]Suggestion, error) {
	maxPer := firstPositive(opts.MaxPerPlatform, a.cfg.MaxPerPlatform, 10)
	minRel := opts.MinRelevance
	if minRel <= 0 {
		minRel = a.cfg.MinRelevance
	}

	var out []Suggestion
	for _, surface := range opts.Surfaces {
		raw, err := anthropic.SuggestCompetitors(ctx, a.client, a.cfg.Model, anthropic.SuggestRequest{
			Handle:   brandHandleFor(brand, surface),
			Bio:      brand.Overview,
			Niche:    brand.Niche,
			Platform: string(surface),
			Count:    maxPer,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, filterSuggestions(surface, toSuggestions(raw), minRel, maxPer)...)
	}
	return out, nil
}

func toSuggestions(raw []anthropic.CompetitorSuggestion) []Suggestion {
	out := make([]Suggestion, 0, len(raw))
	for _, s := range raw {
		out = append(out, Suggestion{
			Platform:  model.Surface(s.Platform),
			Handle:    s.Handle,
			Relevance: s.RelevanceScore,
			Reasoning: s.DiscoveryReason,
		})
	}
	return out
}

// PerplexitySuggester is the secondary AI suggestion source, used when the
// primary connector is degraded.
type PerplexitySuggester struct {
	client perplexity.Client
	cfg    config.AnthropicConfig
}

// NewPerplexitySuggester wraps a Perplexity client as a suggestion
// connector. Relevance and platform caps are shared with the primary
// connector's config so a fallback run keeps the same shape.
func NewPerplexitySuggester(client perplexity.Client, cfg config.AnthropicConfig) *PerplexitySuggester {
	return &PerplexitySuggester{client: client, cfg: cfg}
}

// Name implements SuggestionConnector.
func (p *PerplexitySuggester) Name() string { return "perplexity_suggest" }

// Suggest implements SuggestionConnector.
func (p *PerplexitySuggester) Suggest(ctx context.Context, brand *model.BrandContext, opts SuggestOptions) ([]Suggestion, error) {
	maxPer := firstPositive(opts.MaxPerPlatform, p.cfg.MaxPerPlatform, 10)
	minRel := opts.MinRelevance
	if minRel <= 0 {
		minRel = p.cfg.MinRelevance
	}

	var out []Suggestion
	for _, surface := range opts.Surfaces {
		raw, err := perplexity.SuggestCompetitors(ctx, p.client, perplexity.SuggestRequest{
			Handle:   brandHandleFor(brand, surface),
			Bio:      brand.Overview,
			Niche:    brand.Niche,
			Platform: string(surface),
			Count:    maxPer,
		})
		if err != nil {
			return nil, err
		}
		converted := make([]Suggestion, 0, len(raw))
		for _, s := range raw {
			converted = append(converted, Suggestion{
				Platform:  model.Surface(s.Platform),
				Handle:    s.Handle,
				Relevance: s.RelevanceScore,
				Reasoning: s.DiscoveryReason,
			})
		}
		out = append(out, filterSuggestions(surface, converted, minRel, maxPer)...)
	}
	return out, nil
}

// filterSuggestions drops off-surface and low-relevance entries and caps the
// per-surface count. Model output order is preserved; the models front-load
// their strongest matches.
func filterSuggestions(surface model.Surface, suggestions []Suggestion, minRelevance float64, maxPer int) []Suggestion {
	kept := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Platform != surface {
			continue
		}
		if s.Relevance < minRelevance {
			continue
		}
		kept = append(kept, s)
		if maxPer > 0 && len(kept) >= maxPer {
			break
		}
	}
	return kept
}

// brandHandleFor picks the brand's own handle to anchor the suggestion
// prompt: the handle on the requested surface, else any known social
// handle, else the brand name squashed into handle shape.
func brandHandleFor(brand *model.BrandContext, surface model.Surface) string {
	if h := strings.TrimSpace(brand.Handles[surface]); h != "" {
		return model.NormalizeHandle(surface, h)
	}
	for _, s := range model.SocialSurfaces {
		if h := strings.TrimSpace(brand.Handles[s]); h != "" {
			return model.NormalizeHandle(s, h)
		}
	}
	return strings.ReplaceAll(model.FoldName(brand.BrandName), " ", "")
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

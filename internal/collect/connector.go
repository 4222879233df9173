// Package collect executes the per-surface query plan across pluggable
// search connectors and reduces raw hits into deduplicated candidates.
package collect

import (
	"context"
	"time"

	"github.com/brandscope/competitor-cli/internal/model"
)

// SearchHit is one raw result from a search connector.
type SearchHit struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Query   string `json:"query"`
}

// SearchOptions bound a single connector call.
type SearchOptions struct {
	Timeout    time.Duration
	MaxResults int
}

// SearchConnector is a pluggable search backend (general web search or
// platform-direct search).
type SearchConnector interface {
	Name() string
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error)
}

// Suggestion is one AI-proposed competitor account.
type Suggestion struct {
	Platform  model.Surface `json:"platform"`
	Handle    string        `json:"handle"`
	Relevance float64       `json:"relevance_score"`
	Reasoning string        `json:"reasoning"`
}

// SuggestOptions bound a suggestion call.
type SuggestOptions struct {
	Timeout        time.Duration
	MaxPerPlatform int
	MinRelevance   float64
	Surfaces       []model.Surface
}

// SuggestionConnector proposes competitor handles directly from brand
// context, without a web search round trip.
type SuggestionConnector interface {
	Name() string
	Suggest(ctx context.Context, brand *model.BrandContext, opts SuggestOptions) ([]Suggestion, error)
}

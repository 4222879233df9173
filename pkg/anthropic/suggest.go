package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const suggestSystemPrompt = `You are an expert social media strategist. You propose real, currently
active competitor accounts for a client brand and return only valid JSON.`

// SuggestRequest describes the brand a suggestion call is made for.
type SuggestRequest struct {
	Handle   string
	Bio      string
	Niche    string
	Platform string
	Count    int
}

// CompetitorSuggestion is one AI-proposed competitor account.
type CompetitorSuggestion struct {
	Handle          string  `json:"handle"`
	Platform        string  `json:"platform"`
	DiscoveryReason string  `json:"discovery_reason"`
	RelevanceScore  float64 `json:"relevance_score"`
	CompetitorType  string  `json:"competitor_type"`
}

var titleCaser = cases.Title(language.English)

func buildSuggestPrompt(req SuggestRequest) string {
	platform := titleCaser.String(req.Platform)
	return fmt.Sprintf(`Find %d competitor accounts for this client.

Client Information:
- Handle: @%s
- Platform: %s
- Bio: %s
- Niche: %s

Task:
Find %d REAL %s accounts that are:
1. In the same niche as the client
2. Have similar or larger audience size
3. Create similar content
4. Are active (post regularly)
5. Are direct or indirect competitors

IMPORTANT:
- Return REAL accounts that actually exist
- Use specific, well-known accounts in this niche
- Include a mix of direct competitors, indirect competitors from adjacent
  niches, and aspirational accounts the client wants to emulate

Return JSON array:
[
  {
    "handle": "account_name",
    "platform": "%s",
    "discovery_reason": "Why this is a relevant competitor",
    "relevance_score": 0.0-1.0,
    "competitor_type": "direct/indirect/aspirational"
  }
]

Return ONLY valid JSON, no other text.`,
		req.Count, req.Handle, platform, req.Bio, req.Niche,
		req.Count, platform, req.Platform)
}

// SuggestCompetitors asks the model for competitor accounts on one platform.
func SuggestCompetitors(ctx context.Context, client Client, model string, req SuggestRequest) ([]CompetitorSuggestion, error) {
	if req.Count <= 0 {
		req.Count = 10
	}

	temp := 0.7
	resp, err := client.CreateMessage(ctx, MessageRequest{
		Model:       model,
		MaxTokens:   2048,
		System:      BuildCachedSystemBlocks(suggestSystemPrompt),
		Messages:    []Message{{Role: "user", Content: buildSuggestPrompt(req)}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "anthropic: suggest competitors on %s", req.Platform)
	}
	resp.Usage.LogCost(model, "suggest")

	suggestions, err := parseSuggestions(resp.Text())
	if err != nil {
		return nil, eris.Wrapf(err, "anthropic: parse suggestions on %s", req.Platform)
	}
	for i := range suggestions {
		if suggestions[i].Platform == "" {
			suggestions[i].Platform = req.Platform
		}
		suggestions[i].Handle = strings.TrimPrefix(suggestions[i].Handle, "@")
	}
	return suggestions, nil
}

// parseSuggestions accepts a bare JSON array, an object wrapping one
// ("competitors": [...]), or either wrapped in a markdown fence.
func parseSuggestions(text string) ([]CompetitorSuggestion, error) {
	text = stripFence(strings.TrimSpace(text))
	if text == "" {
		return nil, eris.New("empty response")
	}

	var list []CompetitorSuggestion
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
		return nil, eris.Wrap(err, "not a JSON array or object")
	}
	for _, raw := range wrapped {
		if err := json.Unmarshal(raw, &list); err == nil && list != nil {
			return list, nil
		}
	}
	return nil, eris.New("no suggestion array in response")
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

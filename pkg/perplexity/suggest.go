package perplexity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

const suggestSystemPrompt = "You are a competitor research assistant. " +
	"You answer with valid JSON only, never prose."

// SuggestRequest describes the client account to find competitors for.
type SuggestRequest struct {
	Handle   string
	Bio      string
	Niche    string
	Platform string
	Count    int
}

// CompetitorSuggestion is one account proposed by the model.
type CompetitorSuggestion struct {
	Handle          string  `json:"handle"`
	Platform        string  `json:"platform"`
	DiscoveryReason string  `json:"discovery_reason"`
	RelevanceScore  float64 `json:"relevance_score"`
	CompetitorType  string  `json:"competitor_type"`
}

func buildSuggestPrompt(req SuggestRequest) string {
	return fmt.Sprintf(`Find %d real, currently active %s accounts that compete with this client:

- Handle: @%s
- Bio: %s
- Niche: %s

Include direct competitors, indirect competitors from adjacent niches, and
aspirational accounts the client would want to emulate. Only name accounts
that actually exist.

Answer with a JSON array of objects with these keys:
"handle", "platform", "discovery_reason", "relevance_score" (0.0-1.0),
"competitor_type" ("direct", "indirect" or "aspirational").`,
		req.Count, req.Platform, req.Handle, req.Bio, req.Niche)
}

// SuggestCompetitors asks Perplexity for competitor accounts on one platform.
// Perplexity grounds its answers in live web search, so it serves as the
// second opinion when the primary suggestion source degrades.
func SuggestCompetitors(ctx context.Context, client Client, req SuggestRequest) ([]CompetitorSuggestion, error) {
	if req.Count <= 0 {
		req.Count = 10
	}

	temp := 0.2
	maxTokens := 2048
	resp, err := client.ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []Message{
			{Role: "system", Content: suggestSystemPrompt},
			{Role: "user", Content: buildSuggestPrompt(req)},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "perplexity: suggest competitors on %s", req.Platform)
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("perplexity: empty completion")
	}

	suggestions, err := parseSuggestions(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, eris.Wrapf(err, "perplexity: parse suggestions on %s", req.Platform)
	}
	for i := range suggestions {
		if suggestions[i].Platform == "" {
			suggestions[i].Platform = req.Platform
		}
		suggestions[i].Handle = strings.TrimPrefix(suggestions[i].Handle, "@")
	}
	return suggestions, nil
}

// parseSuggestions extracts the first JSON array from the completion text.
// Perplexity wraps answers in prose or markdown fences often enough that
// strict unmarshalling of the whole body is not workable.
func parseSuggestions(text string) ([]CompetitorSuggestion, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, eris.New("no JSON array in completion")
	}

	var suggestions []CompetitorSuggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &suggestions); err != nil {
		return nil, eris.Wrap(err, "unmarshal suggestion array")
	}
	return suggestions, nil
}

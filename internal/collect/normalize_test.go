package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandscope/competitor-cli/internal/model"
)

func testBrand() *model.BrandContext {
	return &model.BrandContext{
		JobID:      "job-1",
		BrandName:  "Iron Pulse",
		Niche:      "online fitness coaching",
		WebsiteURL: "https://ironpulse.com",
		Handles: map[model.Surface]string{
			model.SurfaceInstagram: "ironpulse",
		},
	}
}

func TestNormalizer_FromHit_ProfileURL(t *testing.T) {
	n := NewNormalizer("job-1", testBrand())

	hit := SearchHit{
		URL:     "https://www.instagram.com/SweatCollective/",
		Title:   "Sweat Collective (@SweatCollective) | Instagram",
		Snippet: "Online fitness coaching for busy professionals.",
		Query:   "site:instagram.com fitness coaching",
	}
	cands := n.FromHit(model.SurfaceInstagram, model.SourcePlatformSearch, "ddg", hit)
	require.Len(t, cands, 1)

	c := cands[0]
	assert.Equal(t, "sweatcollective", c.NormalizedHandle)
	assert.Equal(t, model.SurfaceInstagram, c.Platform)
	assert.Equal(t, "Sweat Collective", c.CanonicalName)
	assert.Equal(t, hit.URL, c.ProfileURL)
	assert.Equal(t, []string{"ddg"}, c.Sources)
	assert.InDelta(t, signalProfileURL, c.BaseSignal, 1e-9)
	require.Len(t, c.Evidence, 1)
	assert.Equal(t, model.SourcePlatformSearch, c.Evidence[0].SourceType)
	assert.Equal(t, hit.Query, c.Evidence[0].Query)
}

func TestNormalizer_FromHit_SnippetMentions(t *testing.T) {
	n := NewNormalizer("job-1", testBrand())

	hit := SearchHit{
		URL:     "https://example.com/top-fitness-accounts",
		Title:   "Top fitness accounts to follow",
		Snippet: "Check out @liftlab and @coachkara for daily workouts.",
	}
	cands := n.FromHit(model.SurfaceInstagram, model.SourceWebSearch, "jina", hit)
	require.Len(t, cands, 2)

	handles := []string{cands[0].NormalizedHandle, cands[1].NormalizedHandle}
	assert.Contains(t, handles, "liftlab")
	assert.Contains(t, handles, "coachkara")
	for _, c := range cands {
		assert.InDelta(t, signalMention, c.BaseSignal, 1e-9)
		assert.Empty(t, c.ProfileURL)
	}
}

func TestNormalizer_FromHit_FiltersNoiseAndSelf(t *testing.T) {
	n := NewNormalizer("job-1", testBrand())

	// The brand's own profile and a navigation path yield nothing.
	self := SearchHit{URL: "https://instagram.com/ironpulse"}
	assert.Empty(t, n.FromHit(model.SurfaceInstagram, model.SourcePlatformSearch, "ddg", self))

	nav := SearchHit{URL: "https://instagram.com/explore"}
	assert.Empty(t, n.FromHit(model.SurfaceInstagram, model.SourcePlatformSearch, "ddg", nav))
}

func TestNormalizer_FromHit_Website(t *testing.T) {
	n := NewNormalizer("job-1", testBrand())

	hit := SearchHit{
		URL:   "https://www.sweatcollective.com/pricing",
		Title: "Sweat Collective - Online Coaching",
	}
	cands := n.FromHit(model.SurfaceWebsite, model.SourceWebSearch, "jina", hit)
	require.Len(t, cands, 1)
	assert.Equal(t, "sweatcollective.com", cands[0].NormalizedHandle)
	assert.Equal(t, "sweatcollective.com", cands[0].WebsiteDomain)
	assert.Equal(t, "Sweat Collective", cands[0].CanonicalName)

	// Aggregators and the brand's own site are dropped.
	agg := SearchHit{URL: "https://www.amazon.com/fitness"}
	assert.Empty(t, n.FromHit(model.SurfaceWebsite, model.SourceWebSearch, "jina", agg))
	self := SearchHit{URL: "https://ironpulse.com/about"}
	assert.Empty(t, n.FromHit(model.SurfaceWebsite, model.SourceWebSearch, "jina", self))
}

func TestNormalizer_FromSuggestion(t *testing.T) {
	n := NewNormalizer("job-1", testBrand())

	cand, ok := n.FromSuggestion("anthropic", Suggestion{
		Platform:  model.SurfaceInstagram,
		Handle:    "@LiftLab",
		Relevance: 0.95,
		Reasoning: "Also sells online strength programs.",
	})
	require.True(t, ok)
	assert.Equal(t, "liftlab", cand.NormalizedHandle)
	require.Len(t, cand.Evidence, 1)
	assert.Equal(t, model.SourceAISuggestion, cand.Evidence[0].SourceType)
	assert.LessOrEqual(t, cand.BaseSignal, 0.85, "suggestion signal capped below direct URL evidence")

	_, ok = n.FromSuggestion("anthropic", Suggestion{
		Platform: model.SurfaceInstagram,
		Handle:   "ironpulse",
	})
	assert.False(t, ok, "self suggestion rejected")
}

func TestCanonicalFromTitle(t *testing.T) {
	assert.Equal(t, "Sweat Collective", canonicalFromTitle("Sweat Collective (@sweatcollective) | Instagram"))
	assert.Equal(t, "Lift Lab", canonicalFromTitle("Lift Lab - Strength Programs"))
	assert.Equal(t, "", canonicalFromTitle(""))
}

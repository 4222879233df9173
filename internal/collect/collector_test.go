package collect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/resilience"
)

type stubSearch struct {
	name  string
	hits  map[string][]SearchHit
	err   error
	calls []string
}

func (s *stubSearch) Name() string { return s.name }

func (s *stubSearch) Search(_ context.Context, query string, _ SearchOptions) ([]SearchHit, error) {
	s.calls = append(s.calls, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.hits[query], nil
}

type stubSuggest struct {
	name        string
	suggestions []Suggestion
	err         error
	calls       int
}

func (s *stubSuggest) Name() string { return s.name }

func (s *stubSuggest) Suggest(_ context.Context, _ *model.BrandContext, _ SuggestOptions) ([]Suggestion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.suggestions, nil
}

func collectorConfig() config.CollectorConfig {
	return config.CollectorConfig{
		BudgetSecsBalanced: 45,
		BudgetSecsHigh:     60,
		PerCallTimeoutMs:   10000,
		SafetyMarginMs:     1500,
		MaxResultsPerQuery: 10,
		SurfaceCapBalanced: 25,
		SurfaceCapHigh:     15,
	}
}

func socialOnlyPolicy() *model.DiscoveryPolicy {
	return &model.DiscoveryPolicy{
		Focus:         model.FocusSocialFirst,
		Surfaces:      []model.Surface{model.SurfaceInstagram},
		WebsitePolicy: model.WebsiteEvidenceOnly,
	}
}

func igHit(handle, query string) SearchHit {
	return SearchHit{
		URL:   "https://instagram.com/" + handle,
		Title: handle + " | Instagram",
		Query: query,
	}
}

func TestCollector_MergesAcrossQueriesAndConnectors(t *testing.T) {
	platform := &stubSearch{name: "ddg", hits: map[string][]SearchHit{
		"q1": {igHit("sweatcollective", "q1"), igHit("liftlab", "q1")},
		"q2": {igHit("sweatcollective", "q2")},
	}}
	web := &stubSearch{name: "jina"}
	health := resilience.NewHealthTracker(resilience.DefaultHealthConfig())

	c := New(collectorConfig(), web, platform, nil, health)
	plan := map[model.Surface][]string{
		model.SurfaceInstagram: {"q1", "q2"},
	}

	res, err := c.Run(context.Background(), "job-1", testBrand(), socialOnlyPolicy(), plan, model.PrecisionBalanced, nil)
	require.NoError(t, err)
	// Two planned queries plus two recovery queries for the thin surface.
	assert.Equal(t, 4, res.Queries)
	assert.False(t, res.Exhausted)

	cands := res.Candidates[model.SurfaceInstagram]
	require.Len(t, cands, 2)

	var sweat *model.Candidate
	for i := range cands {
		if cands[i].NormalizedHandle == "sweatcollective" {
			sweat = &cands[i]
		}
	}
	require.NotNil(t, sweat)
	assert.Len(t, sweat.Evidence, 2, "evidence from both queries merged")
	assert.Equal(t, []string{"ddg"}, sweat.Sources)
}

func TestCollector_SuggestionsWithFallback(t *testing.T) {
	platform := &stubSearch{name: "ddg"}
	web := &stubSearch{name: "jina"}
	primary := &stubSuggest{name: "anthropic", err: errors.New("api error: 529 overloaded")}
	secondary := &stubSuggest{name: "perplexity", suggestions: []Suggestion{
		{Platform: model.SurfaceInstagram, Handle: "liftlab", Relevance: 0.8, Reasoning: "sells coaching"},
	}}
	health := resilience.NewHealthTracker(resilience.DefaultHealthConfig())

	c := New(collectorConfig(), web, platform, primary, health, WithFallbackSuggester(secondary))
	plan := map[model.Surface][]string{model.SurfaceInstagram: {"q1"}}

	res, err := c.Run(context.Background(), "job-1", testBrand(), socialOnlyPolicy(), plan, model.PrecisionBalanced, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)

	cands := res.Candidates[model.SurfaceInstagram]
	require.Len(t, cands, 1)
	assert.Equal(t, "liftlab", cands[0].NormalizedHandle)
	assert.Equal(t, model.SourceAISuggestion, cands[0].Evidence[0].SourceType)
}

func TestCollector_SkipsDegradedPlatformConnector(t *testing.T) {
	platform := &stubSearch{name: "ddg"}
	web := &stubSearch{name: "jina", hits: map[string][]SearchHit{
		"q1": {igHit("sweatcollective", "q1")},
	}}
	health := resilience.NewHealthTracker(resilience.DefaultHealthConfig())
	for i := 0; i < 3; i++ {
		health.ReportDegraded("ddg", "403 forbidden")
	}

	c := New(collectorConfig(), web, platform, nil, health)
	plan := map[model.Surface][]string{model.SurfaceInstagram: {"q1"}}

	res, err := c.Run(context.Background(), "job-1", testBrand(), socialOnlyPolicy(), plan, model.PrecisionBalanced, nil)
	require.NoError(t, err)

	assert.Empty(t, platform.calls, "degraded connector not called")
	assert.NotEmpty(t, web.calls)
	require.Len(t, res.Candidates[model.SurfaceInstagram], 1)
}

func TestCollector_RecoveryQueriesOnLowYield(t *testing.T) {
	// Platform search yields nothing; the web connector recovers the
	// surface with the leading queries.
	platform := &stubSearch{name: "ddg", hits: map[string][]SearchHit{}}
	web := &stubSearch{name: "jina", hits: map[string][]SearchHit{
		"q1": {igHit("sweatcollective", "q1")},
	}}
	health := resilience.NewHealthTracker(resilience.DefaultHealthConfig())

	c := New(collectorConfig(), web, platform, nil, health)
	plan := map[model.Surface][]string{model.SurfaceInstagram: {"q1", "q2", "q3"}}

	res, err := c.Run(context.Background(), "job-1", testBrand(), socialOnlyPolicy(), plan, model.PrecisionBalanced, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"q1", "q2"}, web.calls, "recovery capped at two queries")
	require.Len(t, res.Candidates[model.SurfaceInstagram], 1)
	assert.Equal(t, 5, res.Queries)
}

func TestCollector_ZeroBudgetExhaustsImmediately(t *testing.T) {
	cfg := collectorConfig()
	cfg.BudgetSecsBalanced = 0
	platform := &stubSearch{name: "ddg"}
	web := &stubSearch{name: "jina"}
	health := resilience.NewHealthTracker(resilience.DefaultHealthConfig())

	c := New(cfg, web, platform, nil, health)
	plan := map[model.Surface][]string{model.SurfaceInstagram: {"q1"}}

	res, err := c.Run(context.Background(), "job-1", testBrand(), socialOnlyPolicy(), plan, model.PrecisionBalanced, nil)
	require.NoError(t, err)

	assert.True(t, res.Exhausted)
	assert.Empty(t, platform.calls)
	assert.Empty(t, web.calls)
	assert.Zero(t, res.Total())
}

func TestCollector_SeedsTikTokMirrors(t *testing.T) {
	platform := &stubSearch{name: "ddg", hits: map[string][]SearchHit{
		"ig-q": {igHit("sweatcollective", "ig-q")},
	}}
	web := &stubSearch{name: "jina", hits: map[string][]SearchHit{
		"ig-q": {igHit("sweatcollective", "ig-q")},
	}}
	health := resilience.NewHealthTracker(resilience.DefaultHealthConfig())

	pol := &model.DiscoveryPolicy{
		Focus:         model.FocusSocialFirst,
		Surfaces:      []model.Surface{model.SurfaceInstagram, model.SurfaceTikTok},
		WebsitePolicy: model.WebsiteEvidenceOnly,
	}
	plan := map[model.Surface][]string{
		model.SurfaceInstagram: {"ig-q"},
		model.SurfaceTikTok:    {"tt-q"},
	}

	c := New(collectorConfig(), web, platform, nil, health)
	res, err := c.Run(context.Background(), "job-1", testBrand(), pol, plan, model.PrecisionBalanced, nil)
	require.NoError(t, err)

	tt := res.Candidates[model.SurfaceTikTok]
	require.NotEmpty(t, tt)
	found := false
	for _, cand := range tt {
		if cand.NormalizedHandle == "sweatcollective" {
			found = true
			assert.Equal(t, []string{"mirror_hint"}, cand.Sources)
			require.NotEmpty(t, cand.Evidence)
			assert.Equal(t, model.SourceMirrorHint, cand.Evidence[0].SourceType)
			assert.Less(t, cand.BaseSignal, signalProfileURL, "mirror seeds carry reduced signal")
		}
	}
	assert.True(t, found)
}

func TestTrimSurface(t *testing.T) {
	cands := []model.Candidate{
		{NormalizedHandle: "weak", Sources: []string{"ddg"}, BaseSignal: 0.5,
			Evidence: []model.Evidence{{SignalScore: 0.5}}},
		{NormalizedHandle: "strong", Sources: []string{"ddg", "jina"}, BaseSignal: 0.9,
			Evidence: []model.Evidence{{URL: "https://x", SignalScore: 0.9}, {SignalScore: 0.5}}},
		{NormalizedHandle: "mid", Sources: []string{"ddg"}, BaseSignal: 0.9,
			Evidence: []model.Evidence{{URL: "https://y", SignalScore: 0.9}}},
	}

	trimmed := TrimSurface(cands, 2)
	require.Len(t, trimmed, 2)
	assert.Equal(t, "strong", trimmed[0].NormalizedHandle)
	assert.Equal(t, "mid", trimmed[1].NormalizedHandle)
}

func TestTrimSurface_TieBreaksOnHandle(t *testing.T) {
	cands := []model.Candidate{
		{NormalizedHandle: "bravo", Sources: []string{"ddg"}, BaseSignal: 0.5},
		{NormalizedHandle: "alpha", Sources: []string{"ddg"}, BaseSignal: 0.5},
	}
	trimmed := TrimSurface(cands, 0)
	assert.Equal(t, "alpha", trimmed[0].NormalizedHandle)
	assert.Equal(t, "bravo", trimmed[1].NormalizedHandle)
}

func TestSeedTikTokMirrors_SkipsExisting(t *testing.T) {
	ig := []model.Candidate{
		{NormalizedHandle: "sweatcollective", BaseSignal: 0.9},
		{NormalizedHandle: "liftlab", BaseSignal: 0.8},
	}
	tt := []model.Candidate{{NormalizedHandle: "liftlab"}}

	seeds := SeedTikTokMirrors("job-1", ig, tt)
	require.Len(t, seeds, 1)
	assert.Equal(t, "sweatcollective", seeds[0].NormalizedHandle)
	assert.InDelta(t, 0.45, seeds[0].BaseSignal, 1e-9)
}

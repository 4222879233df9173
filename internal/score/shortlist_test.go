package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandscope/competitor-cli/internal/model"
)

func filteredCandidate(surface model.Surface, handle, reason string, score float64) model.ScoredCandidate {
	return model.ScoredCandidate{
		ResolvedCandidate: model.ResolvedCandidate{
			Candidate: model.Candidate{
				Platform:         surface,
				NormalizedHandle: handle,
				Sources:          []string{"ddg", "jina"},
			},
			Availability:       model.AvailabilityVerified,
			ResolverConfidence: 0.8,
		},
		State:          model.StateFilteredOut,
		StateReason:    reason,
		CompetitorType: model.TypeDirect,
		RelevanceScore: score,
		ScoreBreakdown: model.ScoreBreakdown{
			OfferOverlap:    0.3,
			AudienceOverlap: 0.3,
		},
	}
}

func shortlistedCandidate(handle string, score float64) model.ScoredCandidate {
	c := filteredCandidate(model.SurfaceInstagram, handle, "", score)
	c.State = model.StateShortlisted
	return c
}

func TestAdaptiveFallback_FillsShortfall(t *testing.T) {
	s := scorerWith(peerPolicy(), model.PrecisionHigh) // minimum three

	scored := []model.ScoredCandidate{
		shortlistedCandidate("anchor", 60),
		filteredCandidate(model.SurfaceInstagram, "strongest", reasonPeerGateFailed, 52),
		filteredCandidate(model.SurfaceInstagram, "second", reasonBelowThreshold, 47),
		filteredCandidate(model.SurfaceInstagram, "weakest", reasonBelowThreshold, 41),
	}
	s.adaptiveFallback(scored)

	promoted, _ := promotedCounts(scored)
	assert.Equal(t, 3, promoted)
	assert.Equal(t, model.StateShortlisted, scored[1].State)
	assert.Equal(t, reasonFallbackPromoted, scored[1].StateReason)
	assert.Equal(t, model.StateShortlisted, scored[2].State)
	assert.Equal(t, model.StateFilteredOut, scored[3].State, "stops at the minimum")
}

func TestAdaptiveFallback_RelaxedGatesStillBind(t *testing.T) {
	s := scorerWith(peerPolicy(), model.PrecisionHigh)

	belowFloor := filteredCandidate(model.SurfaceInstagram, "lowscore", reasonBelowThreshold, 39)
	singleSource := filteredCandidate(model.SurfaceInstagram, "thinsource", reasonBelowThreshold, 50)
	singleSource.Sources = []string{"jina"}
	unavailable := filteredCandidate(model.SurfaceInstagram, "ghosthand", reasonProfileUnavailable, 55)
	excludedType := filteredCandidate(model.SurfaceInstagram, "fitnews", reasonPolicyExcludedType, 55)
	noOffer := filteredCandidate(model.SurfaceInstagram, "vague", reasonBelowThreshold, 50)
	noOffer.ScoreBreakdown.OfferOverlap = 0.1

	scored := []model.ScoredCandidate{belowFloor, singleSource, unavailable, excludedType, noOffer}
	s.adaptiveFallback(scored)

	for _, c := range scored {
		assert.Equal(t, model.StateFilteredOut, c.State, "%s must stay filtered", c.NormalizedHandle)
	}
}

func TestAdaptiveFallback_WebsiteHeldNeedsSocialMinimum(t *testing.T) {
	pol := peerPolicy()
	pol.WebsitePolicy = model.WebsiteFallbackOnly
	pol.MinimumSocialForShortlist = 2
	s := scorerWith(pol, model.PrecisionHigh)

	website := filteredCandidate(model.SurfaceWebsite, "liftlab.com", reasonWebsiteHeld, 58)

	// One social shortlisted: website stays held.
	scored := []model.ScoredCandidate{shortlistedCandidate("anchor", 60), website}
	s.adaptiveFallback(scored)
	assert.Equal(t, model.StateFilteredOut, scored[1].State)

	// Two social shortlisted: the website slot opens.
	scored = []model.ScoredCandidate{
		shortlistedCandidate("anchor", 60),
		shortlistedCandidate("second", 58),
		website,
	}
	s.adaptiveFallback(scored)
	assert.Equal(t, model.StateShortlisted, scored[2].State)
}

func TestRepairTopPicks_PromotesStrongestShortlisted(t *testing.T) {
	s := scorerWith(peerPolicy(), model.PrecisionHigh)

	scored := []model.ScoredCandidate{
		shortlistedCandidate("bravo", 60),
		shortlistedCandidate("alpha", 60),
		shortlistedCandidate("weak", 50),
	}
	s.repairTopPicks(scored)

	// Two promotions; the score tie resolves by handle.
	states := map[string]model.CandidateState{}
	for _, c := range scored {
		states[c.NormalizedHandle] = c.State
	}
	assert.Equal(t, model.StateTopPick, states["alpha"])
	assert.Equal(t, model.StateTopPick, states["bravo"])
	assert.Equal(t, model.StateShortlisted, states["weak"])
}

func TestRepairTopPicks_NoOpWhenTopPickExists(t *testing.T) {
	s := scorerWith(peerPolicy(), model.PrecisionHigh)

	pick := shortlistedCandidate("existing", 80)
	pick.State = model.StateTopPick
	scored := []model.ScoredCandidate{pick, shortlistedCandidate("other", 60)}
	s.repairTopPicks(scored)

	assert.Equal(t, model.StateShortlisted, scored[1].State)
}

func TestRepairTopPicks_EmptyShortlistStaysEmpty(t *testing.T) {
	s := scorerWith(peerPolicy(), model.PrecisionHigh)

	scored := []model.ScoredCandidate{
		filteredCandidate(model.SurfaceInstagram, "nobody", reasonBelowThreshold, 30),
	}
	s.repairTopPicks(scored)
	assert.Equal(t, model.StateFilteredOut, scored[0].State)
}

func TestFallbackEligible_HardBlocksNeverReturn(t *testing.T) {
	s := scorerWith(peerPolicy(), model.PrecisionHigh)

	for _, reason := range []string{
		reasonProfileUnavailable, reasonInvalidHandle,
		reasonBrandReferential, reasonPolicyExcludedType, reasonWebsiteEvidence,
	} {
		c := filteredCandidate(model.SurfaceInstagram, "blocked", reason, 90)
		require.False(t, s.fallbackEligible(&c, 5), "reason %q must stay blocked", reason)
	}

	ok := filteredCandidate(model.SurfaceInstagram, "fine", reasonBelowThreshold, 50)
	assert.True(t, s.fallbackEligible(&ok, 5))
}

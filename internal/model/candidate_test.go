package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateMerge_UnionSourcesMaxSignal(t *testing.T) {
	a := &Candidate{
		Platform:         SurfaceInstagram,
		NormalizedHandle: "brandx",
		Sources:          []string{"jina"},
		BaseSignal:       0.4,
		Evidence:         []Evidence{{SourceType: SourceWebSearch, Query: "q1", URL: "https://instagram.com/brandx"}},
	}
	b := &Candidate{
		Platform:         SurfaceInstagram,
		NormalizedHandle: "brandx",
		Sources:          []string{"ddg"},
		BaseSignal:       0.7,
		CanonicalName:    "Brand X",
		Evidence:         []Evidence{{SourceType: SourcePlatformSearch, Query: "q2", URL: "https://instagram.com/brandx"}},
	}

	a.Merge(b)

	assert.Equal(t, []string{"ddg", "jina"}, a.Sources)
	assert.InDelta(t, 0.7, a.BaseSignal, 0.001)
	assert.Equal(t, "Brand X", a.CanonicalName)
	assert.Len(t, a.Evidence, 2)
}

func TestCandidateMerge_Idempotent(t *testing.T) {
	build := func() *Candidate {
		return &Candidate{
			Platform:         SurfaceInstagram,
			NormalizedHandle: "brandx",
			Sources:          []string{"jina"},
			BaseSignal:       0.5,
		}
	}

	a := build()
	a.Merge(build())
	a.Merge(build())

	assert.Equal(t, []string{"jina"}, a.Sources)
	assert.InDelta(t, 0.5, a.BaseSignal, 0.001)
}

func TestCandidateMerge_EvidenceCap(t *testing.T) {
	a := &Candidate{}
	for i := 0; i < MaxEvidencePerCandidate; i++ {
		a.Evidence = append(a.Evidence, Evidence{Query: "q"})
	}
	b := &Candidate{Evidence: []Evidence{{Query: "overflow"}}}

	a.Merge(b)
	assert.Len(t, a.Evidence, MaxEvidencePerCandidate)
}

func TestCandidateKey(t *testing.T) {
	c := &Candidate{Platform: SurfaceTikTok, NormalizedHandle: "brandx"}
	assert.Equal(t, "tiktok/brandx", c.Key())
}

func TestURLEvidenceCount(t *testing.T) {
	c := &Candidate{Evidence: []Evidence{
		{URL: "https://a.example"},
		{URL: ""},
		{URL: "https://b.example"},
	}}
	assert.Equal(t, 2, c.URLEvidenceCount())
}

func TestSurfacePredicates(t *testing.T) {
	assert.True(t, SurfaceInstagram.IsSocial())
	assert.True(t, SurfaceInstagram.ScrapeEligible())
	assert.True(t, SurfaceTikTok.ScrapeEligible())
	assert.False(t, SurfaceYouTube.ScrapeEligible())
	assert.False(t, SurfaceWebsite.IsSocial())
	assert.True(t, SurfaceWebsite.IsSupported())
	assert.False(t, Surface("myspace").IsSupported())
}

func TestStatePromoted(t *testing.T) {
	assert.True(t, StateShortlisted.Promoted())
	assert.True(t, StateTopPick.Promoted())
	assert.True(t, StateApproved.Promoted())
	assert.False(t, StateDiscovered.Promoted())
	assert.False(t, StateFilteredOut.Promoted())
	assert.False(t, StateRejected.Promoted())
}

func TestCompetitorTypePolicyExcluded(t *testing.T) {
	assert.True(t, TypeMedia.PolicyExcluded())
	assert.True(t, TypeCommunity.PolicyExcluded())
	assert.True(t, TypeInfluencer.PolicyExcluded())
	assert.False(t, TypeDirect.PolicyExcluded())
	assert.False(t, TypeMarketplace.PolicyExcluded())
}

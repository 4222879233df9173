package score

import (
	"sort"

	"go.uber.org/zap"

	"github.com/brandscope/competitor-cli/internal/model"
)

// adaptiveFallback fills the shortlist up to the precision minimum with
// the strongest FILTERED_OUT candidates that pass the relaxed gates.
// Hard-blocked candidates never come back.
func (s *Scorer) adaptiveFallback(scored []model.ScoredCandidate) {
	minShort := s.minShortlist()
	if minShort <= 0 {
		return
	}

	promoted, socialPromoted := promotedCounts(scored)
	if promoted >= minShort {
		return
	}

	eligible := make([]int, 0)
	for i := range scored {
		if s.fallbackEligible(&scored[i], socialPromoted) {
			eligible = append(eligible, i)
		}
	}
	sort.SliceStable(eligible, func(a, b int) bool {
		ci, cj := &scored[eligible[a]], &scored[eligible[b]]
		if ci.RelevanceScore != cj.RelevanceScore {
			return ci.RelevanceScore > cj.RelevanceScore
		}
		return ci.NormalizedHandle < cj.NormalizedHandle
	})

	for _, idx := range eligible {
		if promoted >= minShort {
			break
		}
		scored[idx].State = model.StateShortlisted
		scored[idx].StateReason = reasonFallbackPromoted
		promoted++
		s.logger.Info("fallback promotion",
			zap.String("handle", scored[idx].NormalizedHandle),
			zap.String("platform", string(scored[idx].Platform)),
			zap.Float64("score", scored[idx].RelevanceScore))
	}
}

// fallbackEligible applies the relaxed promotion gates: verified
// availability, a score floor, minimum source corroboration, and factor
// floors on the overlap sub-scores.
func (s *Scorer) fallbackEligible(c *model.ScoredCandidate, socialPromoted int) bool {
	if c.State != model.StateFilteredOut {
		return false
	}
	switch c.StateReason {
	case reasonProfileUnavailable, reasonInvalidHandle, reasonBrandReferential,
		reasonPolicyExcludedType, reasonWebsiteEvidence:
		return false
	}
	if c.StateReason == reasonWebsiteHeld && socialPromoted < s.pol.MinimumSocialForShortlist {
		return false
	}
	if c.Availability != model.AvailabilityVerified {
		return false
	}
	if c.RelevanceScore < s.cfg.FallbackScoreFloor {
		return false
	}
	if len(c.Sources) < s.cfg.FallbackMinSources {
		return false
	}
	b := c.ScoreBreakdown
	return b.OfferOverlap >= s.cfg.FallbackFactorFloor &&
		b.AudienceOverlap >= s.cfg.FallbackFactorFloor
}

// repairTopPicks guarantees a non-empty shortlist always carries top
// picks by promoting its strongest members.
func (s *Scorer) repairTopPicks(scored []model.ScoredCandidate) {
	shortlisted := make([]int, 0)
	for i := range scored {
		switch scored[i].State {
		case model.StateTopPick:
			return // already present
		case model.StateShortlisted:
			shortlisted = append(shortlisted, i)
		}
	}
	if len(shortlisted) == 0 {
		return
	}

	sort.SliceStable(shortlisted, func(a, b int) bool {
		ci, cj := &scored[shortlisted[a]], &scored[shortlisted[b]]
		if ci.RelevanceScore != cj.RelevanceScore {
			return ci.RelevanceScore > cj.RelevanceScore
		}
		return ci.NormalizedHandle < cj.NormalizedHandle
	})

	n := s.cfg.TopPickPromotions
	if n <= 0 {
		n = 1
	}
	for i, idx := range shortlisted {
		if i >= n {
			break
		}
		scored[idx].State = model.StateTopPick
		scored[idx].StateReason = reasonTopPickPromoted
	}
}

func promotedCounts(scored []model.ScoredCandidate) (promoted, socialPromoted int) {
	for i := range scored {
		if !scored[i].State.Promoted() {
			continue
		}
		promoted++
		if scored[i].Platform.IsSocial() {
			socialPromoted++
		}
	}
	return promoted, socialPromoted
}

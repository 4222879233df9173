// Package score turns resolved, classified candidates into ranked
// lifecycle states. Scoring is pure: the same inputs always produce the
// same breakdown, composite and state.
package score

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/brandscope/competitor-cli/internal/classify"
	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/query"
)

// State reasons for candidates held out of the shortlist.
const (
	reasonProfileUnavailable = "profile not available on platform"
	reasonInvalidHandle      = "handle not valid on platform"
	reasonBrandReferential   = "refers to the brand itself"
	reasonUnverified         = "availability not verified"
	reasonPolicyExcludedType = "entity type excluded from promotion"
	reasonPeerGateFailed     = "insufficient direct-peer evidence"
	reasonBelowThreshold     = "composite below shortlist threshold"
	reasonWebsiteEvidence    = "website candidates restricted to evidence by policy"
	reasonWebsiteHeld        = "website candidate held for social-shortfall fallback"
	reasonFallbackPromoted   = "promoted by adaptive shortlist fallback"
	reasonTopPickPromoted    = "promoted to top pick as strongest shortlisted candidate"
)

// Scorer scores all candidates of one run against one brand context.
type Scorer struct {
	cfg        config.ScoreConfig
	brand      *model.BrandContext
	pol        *model.DiscoveryPolicy
	precision  model.Precision
	classifier *classify.Classifier

	bizAnchors   []string
	audAnchors   []string
	nicheAnchors []string

	logger *zap.Logger
}

// New builds a Scorer for one run.
func New(cfg config.ScoreConfig, brand *model.BrandContext, pol *model.DiscoveryPolicy, precision model.Precision) *Scorer {
	return &Scorer{
		cfg:          cfg,
		brand:        brand,
		pol:          pol,
		precision:    precision,
		classifier:   classify.New(cfg, brand),
		bizAnchors:   query.TopKeywords(brand.Niche+" "+brand.Overview, 12),
		audAnchors:   query.TopKeywords(brand.Audience, 8),
		nicheAnchors: query.TopKeywords(brand.Niche, 6),
		logger:       zap.L().With(zap.String("phase", "score"), zap.String("job_id", brand.JobID)),
	}
}

// ScoreAll scores and state-assigns every candidate, then repairs the
// shortlist: adaptive fallback fills shortfall, and a non-empty shortlist
// always ends up with at least one TOP_PICK. Output is ordered by score
// descending, then normalized handle ascending.
func (s *Scorer) ScoreAll(resolved []model.ResolvedCandidate) []model.ScoredCandidate {
	scored := make([]model.ScoredCandidate, 0, len(resolved))
	for i := range resolved {
		scored = append(scored, s.scoreOne(&resolved[i]))
	}

	s.adaptiveFallback(scored)
	s.repairTopPicks(scored)

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].RelevanceScore != scored[j].RelevanceScore {
			return scored[i].RelevanceScore > scored[j].RelevanceScore
		}
		return scored[i].NormalizedHandle < scored[j].NormalizedHandle
	})

	promoted := 0
	for i := range scored {
		if scored[i].State.Promoted() {
			promoted++
		}
	}
	s.logger.Info("scoring complete",
		zap.Int("candidates", len(scored)),
		zap.Int("promoted", promoted))
	return scored
}

// scoreOne produces the breakdown, composite, type and provisional state
// for a single candidate.
func (s *Scorer) scoreOne(rc *model.ResolvedCandidate) model.ScoredCandidate {
	cls := s.classifier.Classify(rc, s.precision)
	text := candidateText(rc)
	breakdown := s.breakdown(rc, text)
	composite := s.composite(breakdown, cls.Type, ragAlignment(rc))

	out := model.ScoredCandidate{
		ResolvedCandidate: *rc,
		CompetitorType:    cls.Type,
		TypeConfidence:    cls.Confidence,
		EntityFlags:       cls.Flags,
		RelevanceScore:    composite,
		ScoreBreakdown:    breakdown,
	}
	out.ScoreBreakdown.WeightedTotal = composite

	state, reason := s.assignState(rc, &out.ScoreBreakdown, cls.Type, composite)
	out.State = state
	out.StateReason = reason
	return out
}

func (s *Scorer) breakdown(rc *model.ResolvedCandidate, text string) model.ScoreBreakdown {
	return model.ScoreBreakdown{
		OfferOverlap:       overlapAgainst(s.bizAnchors, text),
		AudienceOverlap:    overlapAgainst(s.audAnchors, text),
		NicheSemanticMatch: overlapAgainst(s.nicheAnchors, text),
		ActivityRecency:    activityRecency(rc),
		SizeSimilarity:     sizeSimilarity(rc),
		SourceConfidence:   sourceConfidence(rc),
	}
}

// composite folds the weighted sub-scores into a 0-100 relevance score,
// applying the policy-exclusion penalty and the AI-alignment boost.
func (s *Scorer) composite(b model.ScoreBreakdown, typ model.CompetitorType, alignment float64) float64 {
	total := b.OfferOverlap*s.cfg.OfferOverlapWeight +
		b.AudienceOverlap*s.cfg.AudienceOverlapWeight +
		b.NicheSemanticMatch*s.cfg.NicheMatchWeight +
		b.ActivityRecency*s.cfg.ActivityRecencyWeight +
		b.SizeSimilarity*s.cfg.SizeSimilarityWeight +
		b.SourceConfidence*s.cfg.SourceConfidenceWeight

	if typ.PolicyExcluded() {
		total -= s.cfg.PolicyExclusionPenalty
	}
	total += s.cfg.RAGAlignmentBoostMax * alignment

	return clamp(total, 0, 100)
}

// assignState applies hard blocks first, then website policy, then the
// peer-evidence gate and the per-surface thresholds.
func (s *Scorer) assignState(rc *model.ResolvedCandidate, b *model.ScoreBreakdown, typ model.CompetitorType, composite float64) (model.CandidateState, string) {
	switch rc.Availability {
	case model.AvailabilityProfileUnavailable:
		return model.StateFilteredOut, reasonProfileUnavailable
	case model.AvailabilityInvalidHandle:
		return model.StateFilteredOut, reasonInvalidHandle
	}
	if s.brandReferential(rc) {
		return model.StateFilteredOut, reasonBrandReferential
	}
	if rc.Platform == model.SurfaceWebsite {
		switch s.pol.WebsitePolicy {
		case model.WebsiteEvidenceOnly:
			return model.StateFilteredOut, reasonWebsiteEvidence
		case model.WebsiteFallbackOnly:
			return model.StateFilteredOut, reasonWebsiteHeld
		}
	}
	if typ.PolicyExcluded() {
		return model.StateFilteredOut, reasonPolicyExcludedType
	}
	if rc.Availability != model.AvailabilityVerified {
		return model.StateFilteredOut, reasonUnverified
	}
	if !s.peerGate(b) {
		return model.StateFilteredOut, reasonPeerGateFailed
	}

	topT, shortT := s.thresholds(rc.Platform)
	switch {
	case composite >= topT:
		return model.StateTopPick, fmt.Sprintf("composite %.1f at or above top-pick threshold %.0f", composite, topT)
	case composite >= shortT:
		return model.StateShortlisted, fmt.Sprintf("composite %.1f at or above shortlist threshold %.0f", composite, shortT)
	default:
		return model.StateFilteredOut, reasonBelowThreshold
	}
}

// peerGate requires real offer and audience evidence so one inflated
// sub-score cannot promote a weak overall match.
func (s *Scorer) peerGate(b *model.ScoreBreakdown) bool {
	if b.OfferOverlap < s.cfg.PeerMinOfferOverlap {
		return false
	}
	if b.AudienceOverlap < s.cfg.PeerMinAudienceOverlap {
		return false
	}
	combined := b.OfferOverlap + b.AudienceOverlap + b.NicheSemanticMatch
	return combined >= s.cfg.PeerCombinedFloor || b.NicheSemanticMatch >= s.cfg.PeerSemanticPeak
}

func (s *Scorer) thresholds(surface model.Surface) (topPick, shortlist float64) {
	if surface == model.SurfaceWebsite {
		if s.precision == model.PrecisionHigh {
			return s.cfg.WebsiteTopPickHigh, s.cfg.WebsiteShortlistHigh
		}
		return s.cfg.WebsiteTopPickBalanced, s.cfg.WebsiteShortlistBalanced
	}
	if s.precision == model.PrecisionHigh {
		return s.cfg.SocialTopPickHigh, s.cfg.SocialShortlistHigh
	}
	return s.cfg.SocialTopPickBalanced, s.cfg.SocialShortlistBalanced
}

func (s *Scorer) minShortlist() int {
	if s.precision == model.PrecisionHigh {
		return s.cfg.MinShortlistHigh
	}
	return s.cfg.MinShortlistBalanced
}

// brandReferential reports whether the candidate is the brand's own
// account or handle under a different spelling.
func (s *Scorer) brandReferential(rc *model.ResolvedCandidate) bool {
	if known, ok := s.brand.Handles[rc.Platform]; ok &&
		model.NormalizeHandle(rc.Platform, known) == rc.NormalizedHandle {
		return true
	}
	collapsed := strings.ReplaceAll(model.FoldName(s.brand.BrandName), " ", "")
	if collapsed != "" && strings.ReplaceAll(rc.NormalizedHandle, ".", "") == collapsed {
		return true
	}
	if rc.Platform == model.SurfaceWebsite && s.brand.HasWebsite() {
		return model.NormalizeDomain(s.brand.WebsiteURL) == rc.NormalizedHandle
	}
	return false
}

func candidateText(rc *model.ResolvedCandidate) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(rc.CanonicalName))
	for _, ev := range rc.Evidence {
		sb.WriteByte(' ')
		sb.WriteString(strings.ToLower(ev.Title))
		sb.WriteByte(' ')
		sb.WriteString(strings.ToLower(ev.Snippet))
	}
	return sb.String()
}

func overlapAgainst(anchors []string, text string) float64 {
	if len(anchors) == 0 {
		return 0
	}
	matched := 0
	for _, kw := range anchors {
		if strings.Contains(text, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(anchors))
}

// activityRecency proxies account liveness from the resolver verdict.
func activityRecency(rc *model.ResolvedCandidate) float64 {
	switch rc.Availability {
	case model.AvailabilityVerified:
		return clamp(0.6+0.4*rc.ResolverConfidence, 0, 1)
	case model.AvailabilityUnverified:
		return 0.4
	case model.AvailabilityRateLimited, model.AvailabilityConnectorError:
		return 0.3
	default:
		return 0
	}
}

// sizeSimilarity proxies audience-size comparability from how broadly the
// candidate surfaced across independent sources.
func sizeSimilarity(rc *model.ResolvedCandidate) float64 {
	return clamp(float64(len(rc.Sources))/3, 0, 1)
}

func sourceConfidence(rc *model.ResolvedCandidate) float64 {
	diversity := clamp(float64(len(rc.Sources))/3, 0, 1)
	return clamp(rc.BaseSignal*0.7+diversity*0.3, 0, 1)
}

// ragAlignment is the strongest AI-suggestion signal attached to the
// candidate, scaling the alignment boost.
func ragAlignment(rc *model.ResolvedCandidate) float64 {
	best := 0.0
	for _, ev := range rc.Evidence {
		if ev.SourceType == model.SourceAISuggestion && ev.SignalScore > best {
			best = ev.SignalScore
		}
	}
	return clamp(best, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

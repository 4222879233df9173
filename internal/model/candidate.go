// Package model defines the domain types shared across the discovery pipeline.
package model

import (
	"fmt"
	"sort"
	"time"
)

// Surface is a platform searched for competitors.
type Surface string

const (
	SurfaceInstagram Surface = "instagram"
	SurfaceTikTok    Surface = "tiktok"
	SurfaceYouTube   Surface = "youtube"
	SurfaceLinkedIn  Surface = "linkedin"
	SurfaceX         Surface = "x"
	SurfaceFacebook  Surface = "facebook"
	SurfaceWebsite   Surface = "website"
)

// SocialSurfaces lists the surfaces that refer to social accounts rather
// than websites.
var SocialSurfaces = []Surface{
	SurfaceInstagram, SurfaceTikTok, SurfaceYouTube,
	SurfaceLinkedIn, SurfaceX, SurfaceFacebook,
}

// IsSupported reports whether s names a searchable surface.
func (s Surface) IsSupported() bool {
	switch s {
	case SurfaceInstagram, SurfaceTikTok, SurfaceYouTube,
		SurfaceLinkedIn, SurfaceX, SurfaceFacebook, SurfaceWebsite:
		return true
	}
	return false
}

// IsSocial reports whether s is a social platform surface.
func (s Surface) IsSocial() bool {
	return s.IsSupported() && s != SurfaceWebsite
}

// ScrapeEligible reports whether profiles on this surface can be enqueued
// for downstream content scraping.
func (s Surface) ScrapeEligible() bool {
	return s == SurfaceInstagram || s == SurfaceTikTok
}

// Precision selects the strictness of discovery thresholds.
type Precision string

const (
	PrecisionHigh     Precision = "high"
	PrecisionBalanced Precision = "balanced"
)

// SourceType identifies which kind of connector produced a piece of evidence.
type SourceType string

const (
	SourceWebSearch      SourceType = "web_search"
	SourcePlatformSearch SourceType = "platform_search"
	SourceAISuggestion   SourceType = "ai_suggestion"
	SourceMirrorHint     SourceType = "mirror_hint"
)

// MaxEvidencePerCandidate caps the evidence list so a single noisy candidate
// cannot grow without bound across merges.
const MaxEvidencePerCandidate = 25

// Evidence is one observation supporting a candidate.
type Evidence struct {
	SourceType  SourceType `json:"source_type" db:"source_type"`
	Query       string     `json:"query" db:"query"`
	Title       string     `json:"title" db:"title"`
	URL         string     `json:"url" db:"url"`
	Snippet     string     `json:"snippet" db:"snippet"`
	SignalScore float64    `json:"signal_score" db:"signal_score"`
}

// Candidate is one potential competitor on one surface. Identity within a
// research job is the (Platform, NormalizedHandle) pair.
type Candidate struct {
	JobID            string     `json:"job_id" db:"job_id"`
	Platform         Surface    `json:"platform" db:"platform"`
	Handle           string     `json:"handle" db:"handle"`
	NormalizedHandle string     `json:"normalized_handle" db:"normalized_handle"`
	ProfileURL       string     `json:"profile_url,omitempty" db:"profile_url"`
	CanonicalName    string     `json:"canonical_name,omitempty" db:"canonical_name"`
	WebsiteDomain    string     `json:"website_domain,omitempty" db:"website_domain"`
	Sources          []string   `json:"sources" db:"sources"`
	Evidence         []Evidence `json:"evidence" db:"evidence"`
	BaseSignal       float64    `json:"base_signal" db:"base_signal"`
}

// Key returns the candidate's identity key within its research job.
func (c *Candidate) Key() string {
	return fmt.Sprintf("%s/%s", c.Platform, c.NormalizedHandle)
}

// AddSource records a connector name in the candidate's source set,
// keeping the set sorted and duplicate-free.
func (c *Candidate) AddSource(name string) {
	for _, s := range c.Sources {
		if s == name {
			return
		}
	}
	c.Sources = append(c.Sources, name)
	sort.Strings(c.Sources)
}

// Merge folds another observation of the same candidate into c: sources are
// unioned, BaseSignal takes the max, and evidence is appended up to the cap.
func (c *Candidate) Merge(other *Candidate) {
	for _, s := range other.Sources {
		c.AddSource(s)
	}
	if other.BaseSignal > c.BaseSignal {
		c.BaseSignal = other.BaseSignal
	}
	if c.CanonicalName == "" {
		c.CanonicalName = other.CanonicalName
	}
	if c.WebsiteDomain == "" {
		c.WebsiteDomain = other.WebsiteDomain
	}
	if c.ProfileURL == "" {
		c.ProfileURL = other.ProfileURL
	}
	for _, ev := range other.Evidence {
		if len(c.Evidence) >= MaxEvidencePerCandidate {
			break
		}
		c.Evidence = append(c.Evidence, ev)
	}
}

// URLEvidenceCount returns the number of evidence entries carrying a URL.
func (c *Candidate) URLEvidenceCount() int {
	n := 0
	for _, ev := range c.Evidence {
		if ev.URL != "" {
			n++
		}
	}
	return n
}

// Availability is the resolver's verdict on whether a candidate exists.
type Availability string

const (
	AvailabilityUnverified         Availability = "UNVERIFIED"
	AvailabilityVerified           Availability = "VERIFIED"
	AvailabilityProfileUnavailable Availability = "PROFILE_UNAVAILABLE"
	AvailabilityInvalidHandle      Availability = "INVALID_HANDLE"
	AvailabilityRateLimited        Availability = "RATE_LIMITED"
	AvailabilityConnectorError     Availability = "CONNECTOR_ERROR"
)

// ResolvedCandidate is a Candidate plus its availability verdict.
type ResolvedCandidate struct {
	Candidate

	Availability       Availability `json:"availability" db:"availability"`
	AvailabilityReason string       `json:"availability_reason,omitempty" db:"availability_reason"`
	ResolverConfidence float64      `json:"resolver_confidence" db:"resolver_confidence"`
}

// CandidateState is the lifecycle state assigned by the scorer.
type CandidateState string

const (
	StateDiscovered  CandidateState = "DISCOVERED"
	StateShortlisted CandidateState = "SHORTLISTED"
	StateTopPick     CandidateState = "TOP_PICK"
	StateApproved    CandidateState = "APPROVED"
	StateRejected    CandidateState = "REJECTED"
	StateFilteredOut CandidateState = "FILTERED_OUT"
)

// Promoted reports whether the state places the candidate on the shortlist.
func (s CandidateState) Promoted() bool {
	return s == StateShortlisted || s == StateTopPick || s == StateApproved
}

// CompetitorType classifies what kind of entity a candidate is.
type CompetitorType string

const (
	TypeDirect      CompetitorType = "DIRECT"
	TypeIndirect    CompetitorType = "INDIRECT"
	TypeAdjacent    CompetitorType = "ADJACENT"
	TypeMedia       CompetitorType = "MEDIA"
	TypeCommunity   CompetitorType = "COMMUNITY"
	TypeInfluencer  CompetitorType = "INFLUENCER"
	TypeMarketplace CompetitorType = "MARKETPLACE"
)

// PolicyExcluded reports whether the type is excluded from promotion by
// default (entities that are not actually competing businesses).
func (t CompetitorType) PolicyExcluded() bool {
	return t == TypeMedia || t == TypeCommunity || t == TypeInfluencer
}

// ScoreBreakdown holds the six named sub-scores (each in [0,1]) and the
// weighted 0-100 composite.
type ScoreBreakdown struct {
	OfferOverlap       float64 `json:"offer_overlap" db:"offer_overlap"`
	AudienceOverlap    float64 `json:"audience_overlap" db:"audience_overlap"`
	NicheSemanticMatch float64 `json:"niche_semantic_match" db:"niche_semantic_match"`
	ActivityRecency    float64 `json:"activity_recency" db:"activity_recency"`
	SizeSimilarity     float64 `json:"size_similarity" db:"size_similarity"`
	SourceConfidence   float64 `json:"source_confidence" db:"source_confidence"`
	WeightedTotal      float64 `json:"weighted_total" db:"weighted_total"`
}

// ScoredCandidate is a ResolvedCandidate plus its state, classification and
// relevance score.
type ScoredCandidate struct {
	ResolvedCandidate

	State          CandidateState `json:"state" db:"state"`
	StateReason    string         `json:"state_reason,omitempty" db:"state_reason"`
	CompetitorType CompetitorType `json:"competitor_type" db:"competitor_type"`
	TypeConfidence float64        `json:"type_confidence" db:"type_confidence"`
	EntityFlags    []string       `json:"entity_flags,omitempty" db:"entity_flags"`
	RelevanceScore float64        `json:"relevance_score" db:"relevance_score"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown" db:"score_breakdown"`

	ArchivedAt *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

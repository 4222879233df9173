package model

// WebsitePolicy controls how website candidates may enter the shortlist.
type WebsitePolicy string

const (
	// WebsiteEvidenceOnly keeps website hits as supporting evidence; website
	// candidates never reach the shortlist.
	WebsiteEvidenceOnly WebsitePolicy = "evidence_only"
	// WebsiteFallbackOnly admits website candidates only when social yield
	// falls short of the minimum.
	WebsiteFallbackOnly WebsitePolicy = "fallback_only"
	// WebsitePeerCandidate treats websites as first-class competitor
	// candidates alongside social accounts.
	WebsitePeerCandidate WebsitePolicy = "peer_candidate"
)

// DiscoveryFocus is the inferred orientation of a discovery run.
type DiscoveryFocus string

const (
	FocusSocialFirst DiscoveryFocus = "social_first"
	FocusHybrid      DiscoveryFocus = "hybrid"
	FocusWebFirst    DiscoveryFocus = "web_first"
)

// DiscoveryPolicy decides which surfaces are searched and how website
// candidates are treated. Produced once per run and immutable afterwards.
type DiscoveryPolicy struct {
	Focus                     DiscoveryFocus `json:"focus"`
	Surfaces                  []Surface      `json:"surfaces"`
	WebsitePolicy             WebsitePolicy  `json:"website_policy"`
	MinimumSocialForShortlist int            `json:"minimum_social_for_shortlist"`
}

// HasSurface reports whether the policy selected the given surface.
func (p *DiscoveryPolicy) HasSurface(s Surface) bool {
	for _, sel := range p.Surfaces {
		if sel == s {
			return true
		}
	}
	return false
}

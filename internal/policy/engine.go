// Package policy decides which surfaces a discovery run searches and how
// website candidates are treated.
package policy

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
)

// defaultSurfaceOrder ranks social surfaces when the brand gives no signal
// about where its audience lives.
var defaultSurfaceOrder = []model.Surface{
	model.SurfaceInstagram,
	model.SurfaceTikTok,
	model.SurfaceYouTube,
	model.SurfaceLinkedIn,
	model.SurfaceX,
	model.SurfaceFacebook,
}

// webFirstGoalKeywords bias focus inference toward web_first.
var webFirstGoalKeywords = []string{
	"seo", "search ranking", "organic traffic", "leads", "lead generation",
	"conversion", "landing page",
}

// Answer is an explicit, structured discovery-method answer from intake.
// Either field may be empty; empty fields fall through to inference.
type Answer struct {
	Focus         model.DiscoveryFocus `json:"focus,omitempty"`
	WebsitePolicy model.WebsitePolicy  `json:"website_policy,omitempty"`
}

// Input carries everything the engine needs to produce a policy.
type Input struct {
	// SurfaceOverride, when non-empty, wins over everything else.
	SurfaceOverride []model.Surface
	// Answer, when set, wins over inference.
	Answer *Answer
	Brand  *model.BrandContext
}

// Engine builds a DiscoveryPolicy for a run.
type Engine struct {
	cfg config.PolicyConfig
}

// NewEngine creates a policy engine with the given thresholds.
func NewEngine(cfg config.PolicyConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Build produces the run's immutable DiscoveryPolicy. Precedence: explicit
// surface override > explicit structured answer > inferred heuristics.
func (e *Engine) Build(in Input) (*model.DiscoveryPolicy, error) {
	if in.Brand == nil {
		return nil, eris.New("policy: brand context is required")
	}

	for _, s := range in.SurfaceOverride {
		if !s.IsSupported() {
			return nil, eris.Errorf("policy: unsupported requested surface %q", s)
		}
	}

	focus := e.resolveFocus(in)
	websitePolicy := e.resolveWebsitePolicy(in, focus)
	surfaces := e.selectSurfaces(in, focus, websitePolicy)
	minSocial := minimumSocial(focus, websitePolicy)

	p := &model.DiscoveryPolicy{
		Focus:                     focus,
		Surfaces:                  surfaces,
		WebsitePolicy:             websitePolicy,
		MinimumSocialForShortlist: minSocial,
	}

	zap.L().Debug("policy built",
		zap.String("focus", string(focus)),
		zap.String("website_policy", string(websitePolicy)),
		zap.Int("surfaces", len(surfaces)),
		zap.Int("min_social", minSocial),
	)
	return p, nil
}

func (e *Engine) resolveFocus(in Input) model.DiscoveryFocus {
	if in.Answer != nil && in.Answer.Focus != "" {
		return in.Answer.Focus
	}

	brand := in.Brand
	socials := brand.KnownSocialCount()

	if hasWebFirstGoal(brand.Goals) && brand.HasWebsite() {
		return model.FocusWebFirst
	}
	switch {
	case socials >= 2:
		return model.FocusSocialFirst
	case socials == 1 && brand.HasWebsite():
		return model.FocusHybrid
	case socials == 1:
		return model.FocusSocialFirst
	case brand.HasWebsite():
		return model.FocusWebFirst
	default:
		return model.FocusHybrid
	}
}

func (e *Engine) resolveWebsitePolicy(in Input, focus model.DiscoveryFocus) model.WebsitePolicy {
	if in.Answer != nil && in.Answer.WebsitePolicy != "" {
		wp := in.Answer.WebsitePolicy
		// peer_candidate is only honored under web_first; a social-first run
		// that asks for it gets the next-strictest admission instead.
		if wp == model.WebsitePeerCandidate && focus != model.FocusWebFirst {
			return model.WebsiteFallbackOnly
		}
		return wp
	}

	if in.Brand.ContextQuality < e.cfg.LowQualityThreshold {
		return model.WebsiteEvidenceOnly
	}
	if focus == model.FocusWebFirst {
		return model.WebsitePeerCandidate
	}
	return model.WebsiteFallbackOnly
}

func (e *Engine) selectSurfaces(in Input, focus model.DiscoveryFocus, wp model.WebsitePolicy) []model.Surface {
	if len(in.SurfaceOverride) > 0 {
		return dedupeSurfaces(in.SurfaceOverride)
	}

	cap := e.surfaceCap(focus)

	// Surfaces the brand already lives on come first, then defaults.
	var pool []model.Surface
	for _, s := range defaultSurfaceOrder {
		if handle, ok := in.Brand.Handles[s]; ok && strings.TrimSpace(handle) != "" {
			pool = append(pool, s)
		}
	}
	for _, s := range defaultSurfaceOrder {
		pool = append(pool, s)
	}
	pool = dedupeSurfaces(pool)

	if len(pool) > cap {
		pool = pool[:cap]
	}

	if in.Brand.HasWebsite() || wp != model.WebsiteEvidenceOnly {
		pool = append(pool, model.SurfaceWebsite)
	}
	return pool
}

func (e *Engine) surfaceCap(focus model.DiscoveryFocus) int {
	var cap int
	switch focus {
	case model.FocusSocialFirst:
		cap = e.cfg.SocialFirstSurfaceCap
	case model.FocusWebFirst:
		cap = e.cfg.WebFirstSurfaceCap
	default:
		cap = e.cfg.HybridSurfaceCap
	}
	if cap <= 0 {
		cap = 3
	}
	return cap
}

// minimumSocial is the count of social candidates that must be on the
// shortlist before a website candidate may fill a slot.
func minimumSocial(focus model.DiscoveryFocus, wp model.WebsitePolicy) int {
	if focus == model.FocusWebFirst && wp == model.WebsitePeerCandidate {
		return 0
	}
	if focus == model.FocusSocialFirst {
		return 3
	}
	return 2
}

func hasWebFirstGoal(goals []string) bool {
	for _, g := range goals {
		lower := strings.ToLower(g)
		for _, kw := range webFirstGoalKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func dedupeSurfaces(in []model.Surface) []model.Surface {
	seen := make(map[model.Surface]bool, len(in))
	var out []model.Surface
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

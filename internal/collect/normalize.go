package collect

import (
	"regexp"
	"strings"

	"github.com/brandscope/competitor-cli/internal/model"
)

// Signal strengths for the different ways a hit can point at an account.
// A profile URL in the result is a much stronger observation than a
// handle mentioned in passing in a snippet.
const (
	signalProfileURL = 0.9
	signalMention    = 0.5
	signalDomain     = 0.7
)

var profileURLPatterns = map[model.Surface]*regexp.Regexp{
	model.SurfaceInstagram: regexp.MustCompile(`instagram\.com/([A-Za-z0-9_.]{2,30})`),
	model.SurfaceTikTok:    regexp.MustCompile(`tiktok\.com/@([A-Za-z0-9_.]{2,24})`),
	model.SurfaceYouTube:   regexp.MustCompile(`youtube\.com/(@[A-Za-z0-9_.-]{3,30}|c/[A-Za-z0-9_.-]{3,30}|channel/[A-Za-z0-9_-]{10,})`),
	model.SurfaceLinkedIn:  regexp.MustCompile(`linkedin\.com/company/([A-Za-z0-9_-]{2,60})`),
	model.SurfaceX:         regexp.MustCompile(`(?:twitter|x)\.com/([A-Za-z0-9_]{2,15})`),
	model.SurfaceFacebook:  regexp.MustCompile(`facebook\.com/([A-Za-z0-9.]{3,50})`),
}

var mentionRE = regexp.MustCompile(`@([A-Za-z0-9_.]{3,30})`)

// parenthetical handle in a title, e.g. "Iron Pulse Fitness (@ironpulse)".
var titleHandleRE = regexp.MustCompile(`\(@([A-Za-z0-9_.]{3,30})\)`)

// Normalizer turns raw search hits into deduplicated candidates for one
// surface, applying noise and self-reference filters as it goes.
type Normalizer struct {
	jobID string
	brand *model.BrandContext
}

// NewNormalizer builds a Normalizer for one research job.
func NewNormalizer(jobID string, brand *model.BrandContext) *Normalizer {
	return &Normalizer{jobID: jobID, brand: brand}
}

// FromHit extracts zero or more candidates from one search hit. A hit can
// yield more than one candidate when the snippet mentions several handles.
func (n *Normalizer) FromHit(surface model.Surface, source model.SourceType, connector string, hit SearchHit) []model.Candidate {
	if surface == model.SurfaceWebsite {
		return n.fromWebsiteHit(source, connector, hit)
	}

	var out []model.Candidate
	seen := map[string]struct{}{}

	add := func(raw string, signal float64, profileURL string) {
		handle := model.NormalizeHandle(surface, raw)
		if handle == "" {
			return
		}
		if _, dup := seen[handle]; dup {
			return
		}
		if _, rejected := RejectHandle(surface, handle); rejected {
			return
		}
		if RejectSelf(n.brand, surface, handle) {
			return
		}
		seen[handle] = struct{}{}
		out = append(out, model.Candidate{
			JobID:            n.jobID,
			Platform:         surface,
			Handle:           raw,
			NormalizedHandle: handle,
			ProfileURL:       profileURL,
			CanonicalName:    canonicalFromTitle(hit.Title),
			Sources:          []string{connector},
			Evidence: []model.Evidence{{
				SourceType:  source,
				Query:       hit.Query,
				Title:       hit.Title,
				URL:         hit.URL,
				Snippet:     hit.Snippet,
				SignalScore: signal,
			}},
			BaseSignal: signal,
		})
	}

	if re, ok := profileURLPatterns[surface]; ok {
		if m := re.FindStringSubmatch(hit.URL); m != nil {
			raw := strings.TrimPrefix(m[1], "@")
			raw = strings.TrimPrefix(raw, "c/")
			raw = strings.TrimPrefix(raw, "channel/")
			add(raw, signalProfileURL, hit.URL)
		}
	}
	for _, m := range titleHandleRE.FindAllStringSubmatch(hit.Title, 3) {
		add(m[1], signalMention, "")
	}
	for _, m := range mentionRE.FindAllStringSubmatch(hit.Snippet, 5) {
		add(m[1], signalMention, "")
	}
	return out
}

func (n *Normalizer) fromWebsiteHit(source model.SourceType, connector string, hit SearchHit) []model.Candidate {
	domain := model.NormalizeDomain(hit.URL)
	if domain == "" {
		return nil
	}
	if _, rejected := RejectHandle(model.SurfaceWebsite, domain); rejected {
		return nil
	}
	if RejectSelf(n.brand, model.SurfaceWebsite, domain) {
		return nil
	}
	return []model.Candidate{{
		JobID:            n.jobID,
		Platform:         model.SurfaceWebsite,
		Handle:           domain,
		NormalizedHandle: domain,
		ProfileURL:       hit.URL,
		CanonicalName:    canonicalFromTitle(hit.Title),
		WebsiteDomain:    domain,
		Sources:          []string{connector},
		Evidence: []model.Evidence{{
			SourceType:  source,
			Query:       hit.Query,
			Title:       hit.Title,
			URL:         hit.URL,
			Snippet:     hit.Snippet,
			SignalScore: signalDomain,
		}},
		BaseSignal: signalDomain,
	}}
}

// FromSuggestion converts an AI competitor suggestion into a candidate.
// Returns false when the suggestion fails noise or self filters.
func (n *Normalizer) FromSuggestion(connector string, s Suggestion) (model.Candidate, bool) {
	handle := model.NormalizeHandle(s.Platform, s.Handle)
	if handle == "" {
		return model.Candidate{}, false
	}
	if _, rejected := RejectHandle(s.Platform, handle); rejected {
		return model.Candidate{}, false
	}
	if RejectSelf(n.brand, s.Platform, handle) {
		return model.Candidate{}, false
	}
	signal := s.Relevance
	if signal > 0.85 {
		signal = 0.85 // suggestions are unverified, cap below URL evidence
	}
	return model.Candidate{
		JobID:            n.jobID,
		Platform:         s.Platform,
		Handle:           s.Handle,
		NormalizedHandle: handle,
		Sources:          []string{connector},
		Evidence: []model.Evidence{{
			SourceType:  model.SourceAISuggestion,
			Snippet:     s.Reasoning,
			SignalScore: signal,
		}},
		BaseSignal: signal,
	}, true
}

// canonicalFromTitle strips the search-result boilerplate platforms append
// to page titles, keeping the leading display name.
func canonicalFromTitle(title string) string {
	t := title
	for _, sep := range []string{" | ", " - ", " – ", " (@"} {
		if i := strings.Index(t, sep); i > 0 {
			t = t[:i]
		}
	}
	t = strings.TrimSpace(t)
	if len(t) > 80 || t == "" {
		return ""
	}
	return t
}

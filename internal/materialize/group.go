package materialize

import (
	"sort"

	"github.com/brandscope/competitor-cli/internal/model"
)

// Borderline floors for the filtered-out display bucket. Filtered rows are
// mostly noise; the view surfaces only the ones an operator might rescue.
const (
	borderlineVerifiedScore   = 40.0
	borderlineUnavailableBase = 0.6
	defaultFilteredDisplayCap = 15
)

// IdentityGroup is a brand-level cluster of candidates across platforms
// that share a canonical name or domain. Grouping is presentation only and
// never feeds back into scoring.
type IdentityGroup struct {
	Key     string                  `json:"key"`
	Name    string                  `json:"name"`
	Members []model.ScoredCandidate `json:"members"`
}

// BestScore returns the highest relevance score among the group's members.
func (g *IdentityGroup) BestScore() float64 {
	best := 0.0
	for i := range g.Members {
		if g.Members[i].RelevanceScore > best {
			best = g.Members[i].RelevanceScore
		}
	}
	return best
}

// GroupedView is the three-bucket shortlist presentation.
type GroupedView struct {
	TopPicks    []IdentityGroup `json:"top_picks"`
	Shortlist   []IdentityGroup `json:"shortlist"`
	FilteredOut []IdentityGroup `json:"filtered_out"`
}

// BuildGroupedView buckets candidates by state and clusters each bucket
// into identity groups. The filtered-out bucket keeps only borderline rows
// and is capped at filteredCap candidates.
func BuildGroupedView(cands []model.ScoredCandidate, filteredCap int) *GroupedView {
	if filteredCap <= 0 {
		filteredCap = defaultFilteredDisplayCap
	}

	var topPicks, shortlist, filtered []model.ScoredCandidate
	for _, c := range cands {
		switch c.State {
		case model.StateTopPick:
			topPicks = append(topPicks, c)
		case model.StateShortlisted, model.StateApproved:
			shortlist = append(shortlist, c)
		case model.StateFilteredOut:
			if borderline(&c) {
				filtered = append(filtered, c)
			}
		}
	}

	sortByScore(filtered)
	if len(filtered) > filteredCap {
		filtered = filtered[:filteredCap]
	}

	return &GroupedView{
		TopPicks:    groupByIdentity(topPicks),
		Shortlist:   groupByIdentity(shortlist),
		FilteredOut: groupByIdentity(filtered),
	}
}

// borderline keeps a filtered row visible when it is still interesting:
// verified with a respectable score, or unavailable yet strongly signaled
// (a likely rename or block worth a second look).
func borderline(c *model.ScoredCandidate) bool {
	switch c.Availability {
	case model.AvailabilityVerified:
		return c.RelevanceScore >= borderlineVerifiedScore
	case model.AvailabilityProfileUnavailable, model.AvailabilityRateLimited:
		return c.BaseSignal >= borderlineUnavailableBase
	}
	return false
}

// groupByIdentity clusters candidates sharing an identity key. Groups are
// ordered by their best score descending, key ascending on ties; members
// within a group follow the same order as the shortlist listing.
func groupByIdentity(cands []model.ScoredCandidate) []IdentityGroup {
	byKey := map[string]*IdentityGroup{}
	order := []string{}
	for _, c := range cands {
		key := identityKey(&c)
		g, ok := byKey[key]
		if !ok {
			g = &IdentityGroup{Key: key, Name: groupName(&c)}
			byKey[key] = g
			order = append(order, key)
		}
		g.Members = append(g.Members, c)
	}

	groups := make([]IdentityGroup, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		sortByScore(g.Members)
		groups = append(groups, *g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		bi, bj := groups[i].BestScore(), groups[j].BestScore()
		if bi != bj {
			return bi > bj
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// identityKey clusters on website domain first, canonical name second, and
// falls back to the per-surface identity so ungrouped candidates still
// appear as singleton groups.
func identityKey(c *model.ScoredCandidate) string {
	if c.WebsiteDomain != "" {
		return c.WebsiteDomain
	}
	if folded := model.FoldName(c.CanonicalName); folded != "" {
		return folded
	}
	return c.Key()
}

func groupName(c *model.ScoredCandidate) string {
	if c.CanonicalName != "" {
		return c.CanonicalName
	}
	if c.WebsiteDomain != "" {
		return c.WebsiteDomain
	}
	return c.Handle
}

func sortByScore(cands []model.ScoredCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].RelevanceScore != cands[j].RelevanceScore {
			return cands[i].RelevanceScore > cands[j].RelevanceScore
		}
		return cands[i].NormalizedHandle < cands[j].NormalizedHandle
	})
}

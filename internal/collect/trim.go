package collect

import (
	"sort"

	"github.com/brandscope/competitor-cli/internal/model"
)

// rankScore orders candidates for trimming. Source diversity dominates,
// then evidence volume, then URL-backed evidence as a strength signal.
func rankScore(c *model.Candidate) float64 {
	ev := len(c.Evidence)
	if ev > 5 {
		ev = 5
	}
	score := float64(len(c.Sources))*2 + float64(ev)
	if c.URLEvidenceCount() > 0 {
		score += 2
	}
	return score + c.BaseSignal
}

// TrimSurface keeps the strongest max candidates for one surface. Ordering
// is deterministic: rank descending, then normalized handle ascending.
func TrimSurface(cands []model.Candidate, max int) []model.Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		ri, rj := rankScore(&cands[i]), rankScore(&cands[j])
		if ri != rj {
			return ri > rj
		}
		return cands[i].NormalizedHandle < cands[j].NormalizedHandle
	})
	if max > 0 && len(cands) > max {
		cands = cands[:max]
	}
	return cands
}

package resolve

import (
	"sort"

	"github.com/brandscope/competitor-cli/internal/model"
)

// Triage reasons recorded on candidates that skip network validation.
const (
	reasonLowSignal       = "low-signal candidate held without validation"
	reasonDeferredCap     = "deferred due to candidate cap"
	reasonBudgetExhausted = "run budget exhausted before validation"
)

// lowSignal reports whether a candidate is too weakly evidenced to spend
// network budget on. Such candidates stay UNVERIFIED.
func lowSignal(c *model.Candidate) bool {
	return c.URLEvidenceCount() == 0 && len(c.Evidence) < 2 && c.BaseSignal < 0.55
}

// priority orders candidates for the validation queue: corroboration
// first, then evidence volume, then signal strength.
func priority(c *model.Candidate) float64 {
	ev := len(c.Evidence)
	if ev > 5 {
		ev = 5
	}
	p := float64(len(c.Sources))*2 + float64(ev)
	if c.URLEvidenceCount() > 0 {
		p += 2
	}
	return p + c.BaseSignal
}

// partition splits one surface's candidates into a validation queue of at
// most maxValidate entries, a low-signal remainder, and a deferred
// overflow, deterministically.
func partition(cands []model.Candidate, maxValidate int) (queue, lowSig, deferred []model.Candidate) {
	sorted := make([]model.Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := priority(&sorted[i]), priority(&sorted[j])
		if pi != pj {
			return pi > pj
		}
		return sorted[i].NormalizedHandle < sorted[j].NormalizedHandle
	})

	for _, c := range sorted {
		if lowSignal(&c) {
			lowSig = append(lowSig, c)
			continue
		}
		if len(queue) < maxValidate {
			queue = append(queue, c)
		} else {
			deferred = append(deferred, c)
		}
	}
	return queue, lowSig, deferred
}

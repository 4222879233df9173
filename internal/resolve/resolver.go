package resolve

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brandscope/competitor-cli/internal/collect"
	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/resilience"
)

// Resolver assigns an availability verdict to every collected candidate.
// Only the strongest candidates per platform spend network budget; the
// rest carry an explicit reason for staying unverified.
type Resolver struct {
	cfg       config.ResolverConfig
	validator HandleValidator
	prober    ProfileProber
	health    *resilience.HealthTracker
	logger    *zap.Logger
}

// New builds a Resolver. validator is the search-based primary check;
// prober is the direct-fetch fallback. Either may be nil, in which case
// that step is skipped.
func New(cfg config.ResolverConfig, validator HandleValidator, prober ProfileProber, health *resilience.HealthTracker) *Resolver {
	return &Resolver{
		cfg:       cfg,
		validator: validator,
		prober:    prober,
		health:    health,
		logger:    zap.L().With(zap.String("phase", "resolve")),
	}
}

// Resolve processes all surfaces of a collection result and returns one
// ResolvedCandidate per input candidate, ordered by surface then handle.
// budget is the run's shared wall-clock allowance, already drawn down by
// collection; once it runs out, queued candidates are held UNVERIFIED
// instead of spending network calls. A nil budget means no pressure.
func (r *Resolver) Resolve(ctx context.Context, jobID string, pol *model.DiscoveryPolicy, bySurface map[model.Surface][]model.Candidate, budget *collect.Budget) ([]model.ResolvedCandidate, error) {
	logger := r.logger.With(zap.String("job_id", jobID))

	var resolved []model.ResolvedCandidate
	var queued []model.Candidate

	for _, surface := range pol.Surfaces {
		cands := bySurface[surface]
		if surface == model.SurfaceWebsite {
			for _, c := range cands {
				resolved = append(resolved, r.resolveWebsite(c, pol))
			}
			continue
		}

		queue, lowSig, deferred := partition(cands, r.cfg.ValidationMaxPerPlatform)
		for _, c := range lowSig {
			resolved = append(resolved, hold(c, reasonLowSignal))
		}
		for _, c := range deferred {
			resolved = append(resolved, hold(c, reasonDeferredCap))
		}
		queued = append(queued, queue...)
	}

	verdicts, err := r.validateAll(ctx, budget, queued)
	if err != nil {
		return nil, err
	}
	resolved = append(resolved, verdicts...)

	sort.SliceStable(resolved, func(i, j int) bool {
		if resolved[i].Platform != resolved[j].Platform {
			return resolved[i].Platform < resolved[j].Platform
		}
		return resolved[i].NormalizedHandle < resolved[j].NormalizedHandle
	})

	counts := map[model.Availability]int{}
	for i := range resolved {
		counts[resolved[i].Availability]++
	}
	logger.Info("resolution complete",
		zap.Int("candidates", len(resolved)),
		zap.Int("verified", counts[model.AvailabilityVerified]),
		zap.Int("unavailable", counts[model.AvailabilityProfileUnavailable]),
		zap.Int("rate_limited", counts[model.AvailabilityRateLimited]))
	return resolved, nil
}

// validateAll runs network validation over the queue with a bounded
// worker pool. Per-candidate failures become availability verdicts, not
// errors; only context cancellation aborts the pool.
func (r *Resolver) validateAll(ctx context.Context, budget *collect.Budget, queue []model.Candidate) ([]model.ResolvedCandidate, error) {
	out := make([]model.ResolvedCandidate, len(queue))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i := range queue {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rc := r.validateOne(gctx, budget, queue[i])
			mu.Lock()
			out[i] = rc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// validateOne settles one candidate: handle grammar first, then the
// search-based validator, then the direct probe when the search verdict
// is inconclusive. The budget is rechecked before every network call so
// a run that overspent during collection degrades to UNVERIFIED holds
// instead of blowing its window.
func (r *Resolver) validateOne(ctx context.Context, budget *collect.Budget, c model.Candidate) model.ResolvedCandidate {
	if !ValidHandleSyntax(c.Platform, c.NormalizedHandle) {
		return verdict(c, model.AvailabilityInvalidHandle, 0,
			fmt.Sprintf("handle %q is not valid on %s", c.NormalizedHandle, c.Platform))
	}

	if r.validator != nil && !r.health.ShouldSkip(r.validator.Name()) {
		callCtx, cancel, ok := budgetCall(ctx, budget)
		if !ok {
			return hold(c, reasonBudgetExhausted)
		}
		v, err := r.validator.ValidateHandle(callCtx, c.Platform, c.NormalizedHandle)
		cancel()
		switch {
		case err != nil:
			r.health.ReportDegraded(r.validator.Name(), err.Error())
			r.logger.Warn("handle validation failed",
				zap.String("handle", c.NormalizedHandle),
				zap.String("platform", string(c.Platform)),
				zap.Error(err))
		case v.Conclusive && v.Exists:
			r.health.ReportOK(r.validator.Name())
			return verdict(c, model.AvailabilityVerified, v.Confidence, v.Reason)
		case v.Conclusive:
			r.health.ReportOK(r.validator.Name())
			return verdict(c, model.AvailabilityProfileUnavailable, v.Confidence, v.Reason)
		default:
			r.health.ReportOK(r.validator.Name())
		}
	}

	if r.prober == nil || r.health.ShouldSkip(r.prober.Name()) {
		return hold(c, "validation unavailable, connectors degraded")
	}
	callCtx, cancel, ok := budgetCall(ctx, budget)
	if !ok {
		return hold(c, reasonBudgetExhausted)
	}
	defer cancel()
	pr, err := r.prober.Probe(callCtx, c.Platform, c.NormalizedHandle)
	if err != nil {
		r.health.ReportDegraded(r.prober.Name(), err.Error())
		if resilience.IsRateLimited(err) {
			return verdict(c, model.AvailabilityRateLimited, 0, "validation rate-limited by platform")
		}
		return verdict(c, model.AvailabilityConnectorError, 0, "validation connector error: "+err.Error())
	}
	r.health.ReportOK(r.prober.Name())
	if pr.Exists {
		return verdict(c, model.AvailabilityVerified, pr.Confidence, pr.Reason)
	}
	return verdict(c, model.AvailabilityProfileUnavailable, pr.Confidence, pr.Reason)
}

// resolveWebsite corroborates a website candidate from already-collected
// evidence without spending network budget. The peer_candidate policy
// tightens the floors since those candidates compete for shortlist slots.
func (r *Resolver) resolveWebsite(c model.Candidate, pol *model.DiscoveryPolicy) model.ResolvedCandidate {
	hostMatches := 0
	for _, ev := range c.Evidence {
		if ev.URL == "" {
			continue
		}
		if u, err := url.Parse(ev.URL); err == nil {
			host := model.NormalizeDomain(u.Host)
			if host == c.WebsiteDomain {
				hostMatches++
			}
		}
	}

	minSources := r.cfg.WebsiteMinSources
	minURL := r.cfg.WebsiteMinURLEvidence
	minHost := r.cfg.WebsiteMinHostMatches
	if pol.WebsitePolicy == model.WebsitePeerCandidate {
		minSources++
		minHost++
	}
	if len(c.Sources) < minSources || c.URLEvidenceCount() < minURL || hostMatches < minHost {
		if pol.WebsitePolicy == model.WebsitePeerCandidate {
			return hold(c, "domain lacks corroboration required for peer candidacy")
		}
		return hold(c, "insufficient corroborating evidence for domain")
	}

	conf := 0.6 + 0.1*float64(min(hostMatches, 3))
	return verdict(c, model.AvailabilityVerified, conf,
		fmt.Sprintf("domain corroborated by %d result(s)", hostMatches))
}

func verdict(c model.Candidate, a model.Availability, conf float64, reason string) model.ResolvedCandidate {
	return model.ResolvedCandidate{
		Candidate:          c,
		Availability:       a,
		AvailabilityReason: reason,
		ResolverConfidence: conf,
	}
}

func hold(c model.Candidate, reason string) model.ResolvedCandidate {
	return verdict(c, model.AvailabilityUnverified, 0.3, reason)
}

// budgetCall funds one validation call from the shared run budget.
func budgetCall(ctx context.Context, budget *collect.Budget) (context.Context, context.CancelFunc, bool) {
	if budget == nil {
		return ctx, func() {}, true
	}
	return budget.CallContext(ctx)
}

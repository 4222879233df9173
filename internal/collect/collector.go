package collect

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/resilience"
)

// Fallback yield targets per surface. When a surface collects fewer
// candidates than its target, the collector spends remaining budget on
// recovery queries against the alternate connector.
const (
	yieldTargetScrapeable = 6
	yieldTargetOther      = 3
)

// fallbackQueryCount caps recovery queries per under-yielding surface.
const fallbackQueryCount = 2

// Collector runs the query plan across connectors and reduces hits into
// per-surface candidate lists.
type Collector struct {
	cfg       config.CollectorConfig
	web       SearchConnector
	platform  SearchConnector
	suggester SuggestionConnector
	fallback  SuggestionConnector
	health    *resilience.HealthTracker
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithFallbackSuggester sets a secondary suggestion connector used when
// the primary is degraded.
func WithFallbackSuggester(s SuggestionConnector) Option {
	return func(c *Collector) { c.fallback = s }
}

// WithLimiter overrides the outbound call rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Collector) { c.limiter = l }
}

// New builds a Collector. web handles raw web search and website-surface
// queries; platform handles platform-direct search for social surfaces.
func New(cfg config.CollectorConfig, web, platform SearchConnector, suggester SuggestionConnector, health *resilience.HealthTracker, opts ...Option) *Collector {
	c := &Collector{
		cfg:       cfg,
		web:       web,
		platform:  platform,
		suggester: suggester,
		health:    health,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		logger:    zap.L().With(zap.String("phase", "collect")),
	}
	if cfg.RatePerSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the collector's output for one run.
type Result struct {
	Candidates map[model.Surface][]model.Candidate
	Queries    int
	Exhausted  bool
}

// Total returns the candidate count across all surfaces.
func (r *Result) Total() int {
	n := 0
	for _, cands := range r.Candidates {
		n += len(cands)
	}
	return n
}

// Run executes the plan within the run's wall-clock budget. The budget is
// shared with the resolution phase, so the collector only draws down what
// its own calls spend. Partial yield under budget pressure is normal, not
// an error; the caller learns about it through Result.Exhausted.
func (c *Collector) Run(ctx context.Context, jobID string, brand *model.BrandContext, pol *model.DiscoveryPolicy, plan map[model.Surface][]string, precision model.Precision, budget *Budget) (*Result, error) {
	if budget == nil {
		budget = RunBudget(c.cfg, precision)
	}
	norm := NewNormalizer(jobID, brand)
	logger := c.logger.With(zap.String("job_id", jobID))

	merged := make(map[model.Surface]map[string]*model.Candidate, len(pol.Surfaces))
	for _, s := range pol.Surfaces {
		merged[s] = map[string]*model.Candidate{}
	}

	res := &Result{Candidates: map[model.Surface][]model.Candidate{}}

	c.collectSuggestions(ctx, budget, brand, pol, norm, merged, logger)

	for _, surface := range pol.Surfaces {
		conn := c.connectorFor(surface)
		source := c.sourceTypeFor(surface)
		for _, q := range plan[surface] {
			if budget.Exhausted() {
				res.Exhausted = true
				logger.Info("collection budget exhausted",
					zap.String("surface", string(surface)),
					zap.Int("queries_run", res.Queries))
				break
			}
			hits := c.search(ctx, budget, conn, q, logger)
			res.Queries++
			for _, hit := range hits {
				for _, cand := range norm.FromHit(surface, source, conn.Name(), hit) {
					mergeCandidate(merged[surface], cand)
				}
			}
		}
		if res.Exhausted {
			break
		}
	}

	c.recoverLowYield(ctx, budget, pol, plan, norm, merged, res, logger)
	c.seedMirrors(jobID, merged, logger)

	surfaceCap := c.surfaceCapFor(precision)
	for _, surface := range pol.Surfaces {
		cands := make([]model.Candidate, 0, len(merged[surface]))
		for _, cand := range merged[surface] {
			cands = append(cands, *cand)
		}
		res.Candidates[surface] = TrimSurface(cands, surfaceCap)
	}

	logger.Info("collection complete",
		zap.Int("queries", res.Queries),
		zap.Int("candidates", res.Total()),
		zap.Bool("budget_exhausted", res.Exhausted))
	return res, nil
}

func (c *Collector) surfaceCapFor(p model.Precision) int {
	if p == model.PrecisionHigh {
		return c.cfg.SurfaceCapHigh
	}
	return c.cfg.SurfaceCapBalanced
}

func (c *Collector) connectorFor(surface model.Surface) SearchConnector {
	if surface.IsSocial() && c.platform != nil && !c.health.ShouldSkip(c.platform.Name()) {
		return c.platform
	}
	return c.web
}

func (c *Collector) sourceTypeFor(surface model.Surface) model.SourceType {
	if surface.IsSocial() && c.platform != nil {
		return model.SourcePlatformSearch
	}
	return model.SourceWebSearch
}

// search runs one query against one connector, bounded by the budget.
// Failures degrade the connector and return no hits.
func (c *Collector) search(ctx context.Context, budget *Budget, conn SearchConnector, query string, logger *zap.Logger) []SearchHit {
	if c.health.ShouldSkip(conn.Name()) {
		return nil
	}
	callCtx, cancel, ok := budget.CallContext(ctx)
	if !ok {
		return nil
	}
	defer cancel()

	if err := c.limiter.Wait(callCtx); err != nil {
		return nil
	}
	timeout, _ := budget.CallTimeout()
	hits, err := conn.Search(callCtx, query, SearchOptions{
		Timeout:    timeout,
		MaxResults: c.cfg.MaxResultsPerQuery,
	})
	if err != nil {
		c.health.ReportDegraded(conn.Name(), err.Error())
		logger.Warn("search query failed",
			zap.String("connector", conn.Name()),
			zap.String("query", query),
			zap.Bool("rate_limited", resilience.IsRateLimited(err)),
			zap.Error(err))
		return nil
	}
	c.health.ReportOK(conn.Name())
	return hits
}

// collectSuggestions asks the AI connector for competitor handles up
// front, falling back to the secondary connector when the primary is
// degraded or fails.
func (c *Collector) collectSuggestions(ctx context.Context, budget *Budget, brand *model.BrandContext, pol *model.DiscoveryPolicy, norm *Normalizer, merged map[model.Surface]map[string]*model.Candidate, logger *zap.Logger) {
	if c.suggester == nil {
		return
	}
	social := make([]model.Surface, 0, len(pol.Surfaces))
	for _, s := range pol.Surfaces {
		if s.IsSocial() {
			social = append(social, s)
		}
	}
	if len(social) == 0 {
		return
	}

	conns := []SuggestionConnector{c.suggester}
	if c.fallback != nil {
		conns = append(conns, c.fallback)
	}
	for _, conn := range conns {
		if c.health.ShouldSkip(conn.Name()) {
			continue
		}
		callCtx, cancel, ok := budget.CallContext(ctx)
		if !ok {
			return
		}
		suggestions, err := conn.Suggest(callCtx, brand, SuggestOptions{Surfaces: social})
		cancel()
		if err != nil {
			c.health.ReportDegraded(conn.Name(), err.Error())
			logger.Warn("suggestion connector failed",
				zap.String("connector", conn.Name()), zap.Error(err))
			continue
		}
		c.health.ReportOK(conn.Name())
		kept := 0
		for _, s := range suggestions {
			bucket, planned := merged[s.Platform]
			if !planned {
				continue
			}
			if cand, ok := norm.FromSuggestion(conn.Name(), s); ok {
				mergeCandidate(bucket, cand)
				kept++
			}
		}
		logger.Info("ai suggestions collected",
			zap.String("connector", conn.Name()),
			zap.Int("returned", len(suggestions)),
			zap.Int("kept", kept))
		return
	}
}

// recoverLowYield spends leftover budget re-running the strongest queries
// for under-yielding surfaces against the alternate connector.
func (c *Collector) recoverLowYield(ctx context.Context, budget *Budget, pol *model.DiscoveryPolicy, plan map[model.Surface][]string, norm *Normalizer, merged map[model.Surface]map[string]*model.Candidate, res *Result, logger *zap.Logger) {
	for _, surface := range pol.Surfaces {
		if !surface.IsSocial() {
			continue
		}
		if len(merged[surface]) >= yieldTarget(surface) {
			continue
		}
		if budget.Exhausted() {
			res.Exhausted = true
			return
		}
		queries := plan[surface]
		if len(queries) > fallbackQueryCount {
			queries = queries[:fallbackQueryCount]
		}
		logger.Info("low yield, running recovery queries",
			zap.String("surface", string(surface)),
			zap.Int("yield", len(merged[surface])),
			zap.Int("target", yieldTarget(surface)))
		for _, q := range queries {
			hits := c.search(ctx, budget, c.web, q, logger)
			res.Queries++
			for _, hit := range hits {
				for _, cand := range norm.FromHit(surface, model.SourceWebSearch, c.web.Name(), hit) {
					mergeCandidate(merged[surface], cand)
				}
			}
		}
	}
}

// seedMirrors adds TikTok mirror candidates from Instagram when TikTok is
// planned but still under its yield target after recovery.
func (c *Collector) seedMirrors(jobID string, merged map[model.Surface]map[string]*model.Candidate, logger *zap.Logger) {
	ttBucket, hasTT := merged[model.SurfaceTikTok]
	igBucket, hasIG := merged[model.SurfaceInstagram]
	if !hasTT || !hasIG || len(ttBucket) >= yieldTargetScrapeable {
		return
	}
	ig := make([]model.Candidate, 0, len(igBucket))
	for _, cand := range igBucket {
		ig = append(ig, *cand)
	}
	tt := make([]model.Candidate, 0, len(ttBucket))
	for _, cand := range ttBucket {
		tt = append(tt, *cand)
	}
	seeds := SeedTikTokMirrors(jobID, ig, tt)
	for _, seed := range seeds {
		mergeCandidate(ttBucket, seed)
	}
	if len(seeds) > 0 {
		logger.Info("seeded tiktok mirrors", zap.Int("seeds", len(seeds)))
	}
}

func yieldTarget(surface model.Surface) int {
	if surface.ScrapeEligible() {
		return yieldTargetScrapeable
	}
	return yieldTargetOther
}

func mergeCandidate(bucket map[string]*model.Candidate, cand model.Candidate) {
	if existing, ok := bucket[cand.NormalizedHandle]; ok {
		existing.Merge(&cand)
		return
	}
	clone := cand
	bucket[cand.NormalizedHandle] = &clone
}

// Package orchestrator drives a discovery run end to end: policy, query
// plan, collection, resolution, scoring and materialization, with run-lock
// and phase bookkeeping in the store.
package orchestrator

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandscope/competitor-cli/internal/collect"
	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/events"
	"github.com/brandscope/competitor-cli/internal/materialize"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/policy"
	"github.com/brandscope/competitor-cli/internal/query"
	"github.com/brandscope/competitor-cli/internal/resilience"
	"github.com/brandscope/competitor-cli/internal/resolve"
	"github.com/brandscope/competitor-cli/internal/score"
	"github.com/brandscope/competitor-cli/internal/store"
	"github.com/brandscope/competitor-cli/pkg/jina"
)

// Default staleness windows for run-lock takeover.
const (
	defaultStaleAfter      = 30 * time.Minute
	defaultStaleNoProgress = 10 * time.Minute
)

// Deps bundles the pluggable collaborators a run needs. Nil members
// disable their step rather than failing the run.
type Deps struct {
	Store store.Store

	// Search connectors: Web is the raw/general backend, Platform the
	// platform-direct one.
	Web      collect.SearchConnector
	Platform collect.SearchConnector

	// Suggestion connectors: primary and one fallback tier.
	Suggester collect.SuggestionConnector
	Fallback  collect.SuggestionConnector

	// Resolution: search-based validator plus direct-probe fallback.
	Validator resolve.HandleValidator
	Prober    resolve.ProfileProber

	// Reader enriches sparse brand contexts from the brand's website.
	Reader jina.Client

	Notifier *events.Notifier
}

// Orchestrator runs the discovery pipeline for one job at a time.
type Orchestrator struct {
	cfg    config.Config
	deps   Deps
	logger *zap.Logger
}

// New builds an Orchestrator.
func New(cfg config.Config, deps Deps) *Orchestrator {
	if deps.Notifier == nil {
		deps.Notifier = events.NewNotifier(cfg.Events)
	}
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		logger: zap.L().With(zap.String("component", "orchestrator")),
	}
}

// Request describes one discovery run.
type Request struct {
	Brand     *model.BrandContext
	Precision model.Precision
	// SurfaceOverride, when non-empty, wins over policy inference.
	SurfaceOverride []model.Surface
	// Answer carries explicit intake answers, if any.
	Answer *policy.Answer
}

// Discover executes a full run and returns the terminal run record. The
// run lock is acquired first; ErrRunActive from the store means another
// live run holds it. Connector failures degrade the run, they do not fail
// it; only invalid input or a persistence failure does.
func (o *Orchestrator) Discover(ctx context.Context, req Request) (*model.DiscoveryRun, error) {
	if req.Brand == nil {
		return nil, eris.New("orchestrator: brand context is required")
	}
	if err := req.Brand.Validate(); err != nil {
		return nil, err
	}
	precision := req.Precision
	if precision == "" {
		precision = model.PrecisionBalanced
	}

	// Policy is built before the lock so invalid input never consumes a run.
	engine := policy.NewEngine(o.cfg.Policy)
	pol, err := engine.Build(policy.Input{
		SurfaceOverride: req.SurfaceOverride,
		Answer:          req.Answer,
		Brand:           req.Brand,
	})
	if err != nil {
		return nil, err
	}

	run, err := o.deps.Store.AcquireRun(ctx, req.Brand.JobID, precision, o.staleAfter(), o.staleNoProgress())
	if err != nil {
		return nil, err
	}
	logger := o.logger.With(zap.String("job_id", req.Brand.JobID), zap.String("run_id", run.ID))
	logger.Info("discovery run started", zap.String("precision", string(precision)))
	o.deps.Notifier.Emit(ctx, events.EventRunStarted, run.JobID, run.ID, map[string]any{
		"precision": string(precision),
		"surfaces":  len(pol.Surfaces),
	})

	health := resilience.NewHealthTracker(resilience.HealthConfig{
		OnDegraded: func(connector, reason string) {
			o.deps.Notifier.Emit(ctx, events.EventConnectorDegraded, run.JobID, run.ID, map[string]any{
				"connector": connector,
				"reason":    reason,
			})
		},
	})

	collect.EnrichBrandContext(ctx, req.Brand, o.deps.Reader)
	plan := query.Compose(req.Brand, pol, precision)

	// One wall-clock budget spans collection and resolution; whatever
	// collection spends is gone for validation.
	budget := collect.RunBudget(o.cfg.Collector, precision)

	var summary model.RunSummary

	// Collect.
	if err := o.deps.Store.UpdateRunPhase(ctx, run.ID, model.PhaseCollecting, summary); err != nil {
		return o.fail(ctx, run, err)
	}
	collector := collect.New(o.cfg.Collector, o.deps.Web, o.deps.Platform, o.deps.Suggester, health,
		collect.WithFallbackSuggester(o.deps.Fallback))
	colRes, err := collector.Run(ctx, req.Brand.JobID, req.Brand, pol, plan, precision, budget)
	if err != nil {
		return o.fail(ctx, run, err)
	}
	summary.CandidatesDiscovered = colRes.Total()
	o.deps.Notifier.Emit(ctx, events.EventCollectorCompleted, run.JobID, run.ID, map[string]any{
		"candidates": colRes.Total(),
		"queries":    colRes.Queries,
		"exhausted":  colRes.Exhausted,
	})

	// Resolve.
	if err := o.deps.Store.UpdateRunPhase(ctx, run.ID, model.PhaseResolving, summary); err != nil {
		return o.fail(ctx, run, err)
	}
	resolver := resolve.New(o.cfg.Resolver, o.deps.Validator, o.deps.Prober, health)
	resolved, err := resolver.Resolve(ctx, req.Brand.JobID, pol, colRes.Candidates, budget)
	if err != nil {
		return o.fail(ctx, run, err)
	}
	verified := 0
	for i := range resolved {
		if resolved[i].Availability == model.AvailabilityVerified {
			verified++
		}
	}
	o.deps.Notifier.Emit(ctx, events.EventResolverCompleted, run.JobID, run.ID, map[string]any{
		"candidates": len(resolved),
		"verified":   verified,
	})

	// Score and classify.
	if err := o.deps.Store.UpdateRunPhase(ctx, run.ID, model.PhaseScoring, summary); err != nil {
		return o.fail(ctx, run, err)
	}
	scorer := score.New(o.cfg.Score, req.Brand, pol, precision)
	scored := scorer.ScoreAll(resolved)
	tallySummary(&summary, scored)

	// Persist.
	if err := o.deps.Store.UpdateRunPhase(ctx, run.ID, model.PhasePersisting, summary); err != nil {
		return o.fail(ctx, run, err)
	}
	mat := materialize.New(o.deps.Store, o.cfg.Retention)
	persisted, err := mat.Persist(ctx, run.ID, scored)
	if err != nil {
		return o.fail(ctx, run, err)
	}

	if err := o.deps.Store.CompleteRun(ctx, run.ID, summary); err != nil {
		return o.fail(ctx, run, err)
	}
	o.deps.Notifier.Emit(ctx, events.EventShortlistGenerated, run.JobID, run.ID, map[string]any{
		"shortlisted":      summary.Shortlisted,
		"top_picks":        summary.TopPicks,
		"scrapes_enqueued": persisted.Enqueued,
	})
	logger.Info("discovery run completed",
		zap.Int("discovered", summary.CandidatesDiscovered),
		zap.Int("shortlisted", summary.Shortlisted),
		zap.Int("top_picks", summary.TopPicks),
		zap.Int("scrapes_enqueued", persisted.Enqueued))

	run.Phase = model.PhaseCompleted
	run.Summary = summary
	return run, nil
}

// fail marks the run failed, emits the failure event, and returns the
// original error. Candidates persisted before the failure stay visible.
func (o *Orchestrator) fail(ctx context.Context, run *model.DiscoveryRun, cause error) (*model.DiscoveryRun, error) {
	if err := o.deps.Store.FailRun(ctx, run.ID, cause.Error()); err != nil {
		o.logger.Error("marking run failed also failed",
			zap.String("run_id", run.ID), zap.Error(err))
	}
	o.deps.Notifier.Emit(ctx, events.EventRunFailed, run.JobID, run.ID, map[string]any{
		"error": cause.Error(),
	})
	run.Phase = model.PhaseFailed
	run.Error = cause.Error()
	return run, cause
}

func tallySummary(summary *model.RunSummary, scored []model.ScoredCandidate) {
	for i := range scored {
		switch scored[i].State {
		case model.StateFilteredOut, model.StateRejected:
			summary.CandidatesFiltered++
		case model.StateShortlisted, model.StateApproved:
			summary.Shortlisted++
		case model.StateTopPick:
			summary.TopPicks++
		}
		if scored[i].Availability == model.AvailabilityProfileUnavailable {
			summary.ProfileUnavailableCount++
		}
	}
}

func (o *Orchestrator) staleAfter() time.Duration {
	if secs := o.cfg.Run.StaleAfterSecs; secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultStaleAfter
}

func (o *Orchestrator) staleNoProgress() time.Duration {
	if secs := o.cfg.Run.StaleNoProgressSecs; secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultStaleNoProgress
}

// Package materialize persists scored candidates, feeds the scrape queue
// and builds the operator-facing grouped views.
package materialize

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/store"
)

const defaultArchiveAfterDays = 30

// Materializer writes pipeline output through the store. Writes are
// per-candidate idempotent upserts; a partial persist after a mid-run
// failure leaves usable rows behind.
type Materializer struct {
	store  store.Store
	cfg    config.RetentionConfig
	logger *zap.Logger
}

// New builds a Materializer.
func New(st store.Store, cfg config.RetentionConfig) *Materializer {
	return &Materializer{
		store:  st,
		cfg:    cfg,
		logger: zap.L().With(zap.String("phase", "materialize")),
	}
}

// PersistResult reports what one materialization pass wrote.
type PersistResult struct {
	Upserted int
	Enqueued int
}

// Persist upserts the scored candidates and enqueues content scrapes for
// the promoted, verified candidates on scrape-eligible platforms.
// Everything else lands as an intelligence-only row.
func (m *Materializer) Persist(ctx context.Context, runID string, cands []model.ScoredCandidate) (*PersistResult, error) {
	if err := m.store.UpsertCandidates(ctx, runID, cands); err != nil {
		return nil, eris.Wrap(err, "materialize: upsert candidates")
	}

	now := time.Now().UTC()
	var jobs []store.ScrapeJob
	for i := range cands {
		c := &cands[i]
		if !scrapeWorthy(c) {
			continue
		}
		jobs = append(jobs, store.ScrapeJob{
			JobID:            c.JobID,
			Platform:         c.Platform,
			NormalizedHandle: c.NormalizedHandle,
			ProfileURL:       c.ProfileURL,
			Status:           model.ScrapeQueued,
			EnqueuedAt:       now,
			UpdatedAt:        now,
		})
	}

	enqueued, err := m.store.EnqueueScrapes(ctx, jobs)
	if err != nil {
		return nil, eris.Wrap(err, "materialize: enqueue scrapes")
	}

	m.logger.Info("materialization complete",
		zap.String("run_id", runID),
		zap.Int("upserted", len(cands)),
		zap.Int("scrapes_enqueued", enqueued))
	return &PersistResult{Upserted: len(cands), Enqueued: enqueued}, nil
}

// scrapeWorthy gates scrape-queue materialization: promoted state, verified
// availability, scrape-eligible platform.
func scrapeWorthy(c *model.ScoredCandidate) bool {
	return c.Platform.ScrapeEligible() &&
		c.Availability == model.AvailabilityVerified &&
		c.State.Promoted()
}

// Retention soft-archives FILTERED_OUT and REJECTED rows older than the
// configured window, sparing any candidate with a completed scrape.
// Returns the number of rows archived.
func (m *Materializer) Retention(ctx context.Context, jobID string) (int, error) {
	days := m.cfg.ArchiveAfterDays
	if days <= 0 {
		days = defaultArchiveAfterDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	n, err := m.store.ArchiveFiltered(ctx, jobID, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "materialize: retention pass")
	}
	if n > 0 {
		m.logger.Info("retention archived candidates",
			zap.String("job_id", jobID),
			zap.Int("archived", n),
			zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// GroupedView reads the job's visible candidates and builds the three
// grouped presentation buckets.
func (m *Materializer) GroupedView(ctx context.Context, jobID string) (*GroupedView, error) {
	cands, err := m.store.ListCandidates(ctx, jobID, store.CandidateFilter{Limit: viewListLimit})
	if err != nil {
		return nil, eris.Wrap(err, "materialize: list candidates for grouped view")
	}
	return BuildGroupedView(cands, m.cfg.FilteredDisplayCap), nil
}

// StageView tags every visible candidate with its derived pipeline stage.
func (m *Materializer) StageView(ctx context.Context, jobID string) (map[model.PipelineStage][]model.ScoredCandidate, error) {
	cands, err := m.store.ListCandidates(ctx, jobID, store.CandidateFilter{Limit: viewListLimit})
	if err != nil {
		return nil, eris.Wrap(err, "materialize: list candidates for stage view")
	}
	queue, err := m.store.ListScrapeQueue(ctx, jobID)
	if err != nil {
		return nil, eris.Wrap(err, "materialize: list scrape queue")
	}

	linked := make(map[string]*store.ScrapeJob, len(queue))
	for i := range queue {
		linked[string(queue[i].Platform)+"/"+queue[i].NormalizedHandle] = &queue[i]
	}

	out := make(map[model.PipelineStage][]model.ScoredCandidate)
	for _, c := range cands {
		stage := DeriveStage(&c, linked[c.Key()])
		out[stage] = append(out[stage], c)
	}
	return out, nil
}

// viewListLimit bounds the candidate read behind the grouped and stage
// views. A single job never legitimately accumulates more rows than this.
const viewListLimit = 1000

// Package store persists discovery runs, candidates and the scrape queue
// behind a single interface with Postgres and SQLite backends.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
)

// ErrRunActive is returned by AcquireRun when another non-stale run holds
// the job's run lock.
var ErrRunActive = eris.New("store: a run is already active for this job")

// StickyStateReason replaces a candidate's state reason when an operator
// decision survives a re-run upsert.
const StickyStateReason = "operator decision preserved across re-run"

// CandidateFilter specifies criteria for listing candidates.
type CandidateFilter struct {
	States          []model.CandidateState `json:"states,omitempty"`
	Platform        model.Surface          `json:"platform,omitempty"`
	IncludeArchived bool                   `json:"include_archived,omitempty"`
	Limit           int                    `json:"limit,omitempty"`
	Offset          int                    `json:"offset,omitempty"`
}

// ScrapeJob is one queued content-scrape for a promoted candidate.
type ScrapeJob struct {
	ID               string             `json:"id" db:"id"`
	JobID            string             `json:"job_id" db:"job_id"`
	Platform         model.Surface      `json:"platform" db:"platform"`
	NormalizedHandle string             `json:"normalized_handle" db:"normalized_handle"`
	ProfileURL       string             `json:"profile_url" db:"profile_url"`
	Status           model.ScrapeStatus `json:"status" db:"status"`
	EnqueuedAt       time.Time          `json:"enqueued_at" db:"enqueued_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// Store defines the persistence interface for the discovery pipeline.
type Store interface {
	// Runs. AcquireRun creates a new run for the job, taking over a stale
	// one when its last update is older than the applicable window
	// (staleNoProgress applies to runs that never progressed). It returns
	// ErrRunActive when a live run holds the lock.
	AcquireRun(ctx context.Context, jobID string, precision model.Precision, staleAfter, staleNoProgress time.Duration) (*model.DiscoveryRun, error)
	UpdateRunPhase(ctx context.Context, runID string, phase model.RunPhase, summary model.RunSummary) error
	CompleteRun(ctx context.Context, runID string, summary model.RunSummary) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.DiscoveryRun, error)
	LatestRun(ctx context.Context, jobID string) (*model.DiscoveryRun, error)

	// Candidates. UpsertCandidates is idempotent on
	// (job_id, platform, normalized_handle); operator APPROVED/REJECTED
	// states survive re-runs, and re-observed candidates are unarchived.
	UpsertCandidates(ctx context.Context, runID string, cands []model.ScoredCandidate) error
	GetCandidate(ctx context.Context, jobID string, platform model.Surface, normalizedHandle string) (*model.ScoredCandidate, error)
	ListCandidates(ctx context.Context, jobID string, filter CandidateFilter) ([]model.ScoredCandidate, error)
	SetCandidateState(ctx context.Context, jobID string, platform model.Surface, normalizedHandle string, state model.CandidateState, reason string) error
	ArchiveFiltered(ctx context.Context, jobID string, cutoff time.Time) (int, error)

	// Scrape queue
	EnqueueScrapes(ctx context.Context, jobs []ScrapeJob) (int, error)
	ListScrapeQueue(ctx context.Context, jobID string) ([]ScrapeJob, error)
	SetScrapeStatus(ctx context.Context, scrapeID string, status model.ScrapeStatus) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the Store named by cfg.Driver ("postgres" or "sqlite").
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/brandscope/competitor-cli/internal/db"
	"github.com/brandscope/competitor-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"update_run_phase":    `UPDATE runs SET phase = $1, summary = $2, updated_at = $3 WHERE id = $4`,
	"get_run":             `SELECT ` + runColumns + ` FROM runs WHERE id = $1`,
	"get_candidate":       `SELECT ` + candidateColumns + ` FROM candidates WHERE job_id = $1 AND platform = $2 AND normalized_handle = $3`,
	"set_candidate_state": `UPDATE candidates SET state = $1, state_reason = $2, updated_at = $3 WHERE job_id = $4 AND platform = $5 AND normalized_handle = $6`,
	"set_scrape_status":   `UPDATE scrape_queue SET status = $1, updated_at = $2 WHERE id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const runColumns = `id, job_id, phase, precision, summary, error, started_at, updated_at`

const candidateColumns = `job_id, platform, handle, normalized_handle, profile_url, canonical_name, website_domain,
	sources, evidence, base_signal, availability, availability_reason, resolver_confidence,
	state, state_reason, competitor_type, type_confidence, entity_flags, relevance_score, score_breakdown, archived_at`

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	phase      TEXT NOT NULL DEFAULT 'started',
	precision  TEXT NOT NULL DEFAULT 'balanced',
	summary    JSONB NOT NULL DEFAULT '{}',
	error      TEXT,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_job_id ON runs(job_id, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_phase ON runs(phase);

CREATE TABLE IF NOT EXISTS candidates (
	job_id              TEXT NOT NULL,
	platform            TEXT NOT NULL,
	handle              TEXT NOT NULL,
	normalized_handle   TEXT NOT NULL,
	profile_url         TEXT NOT NULL DEFAULT '',
	canonical_name      TEXT NOT NULL DEFAULT '',
	website_domain      TEXT NOT NULL DEFAULT '',
	sources             JSONB NOT NULL DEFAULT '[]',
	evidence            JSONB NOT NULL DEFAULT '[]',
	base_signal         DOUBLE PRECISION NOT NULL DEFAULT 0,
	availability        TEXT NOT NULL DEFAULT 'UNVERIFIED',
	availability_reason TEXT NOT NULL DEFAULT '',
	resolver_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	state               TEXT NOT NULL DEFAULT 'DISCOVERED',
	state_reason        TEXT NOT NULL DEFAULT '',
	competitor_type     TEXT NOT NULL DEFAULT '',
	type_confidence     DOUBLE PRECISION NOT NULL DEFAULT 0,
	entity_flags        JSONB NOT NULL DEFAULT '[]',
	relevance_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
	score_breakdown     JSONB NOT NULL DEFAULT '{}',
	run_id              TEXT NOT NULL DEFAULT '',
	archived_at         TIMESTAMPTZ,
	first_seen_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (job_id, platform, normalized_handle)
);

CREATE INDEX IF NOT EXISTS idx_candidates_state ON candidates(job_id, state);
CREATE INDEX IF NOT EXISTS idx_candidates_score ON candidates(job_id, relevance_score DESC);

CREATE TABLE IF NOT EXISTS scrape_queue (
	id                TEXT PRIMARY KEY,
	job_id            TEXT NOT NULL,
	platform          TEXT NOT NULL,
	normalized_handle TEXT NOT NULL,
	profile_url       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'queued',
	enqueued_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (job_id, platform, normalized_handle)
);

CREATE INDEX IF NOT EXISTS idx_scrape_queue_status ON scrape_queue(job_id, status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AcquireRun(ctx context.Context, jobID string, precision model.Precision, staleAfter, staleNoProgress time.Duration) (*model.DiscoveryRun, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: acquire run: begin")
	}
	defer tx.Rollback(ctx)

	var active model.DiscoveryRun
	var summaryJSON []byte
	err = tx.QueryRow(ctx,
		`SELECT id, phase, summary, updated_at FROM runs
		 WHERE job_id = $1 AND phase NOT IN ('completed', 'failed')
		 ORDER BY started_at DESC LIMIT 1
		 FOR UPDATE`,
		jobID,
	).Scan(&active.ID, &active.Phase, &summaryJSON, &active.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Lock is free.
	case err != nil:
		return nil, eris.Wrap(err, "postgres: acquire run: check active")
	default:
		if err := json.Unmarshal(summaryJSON, &active.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		window := staleAfter
		if !active.Progressed() {
			window = staleNoProgress
		}
		if time.Since(active.UpdatedAt) < window {
			return nil, ErrRunActive
		}
		// Stale holder: fail it and take over.
		if _, err := tx.Exec(ctx,
			`UPDATE runs SET phase = 'failed', error = $1, updated_at = $2 WHERE id = $3`,
			"superseded by stale-run takeover", time.Now().UTC(), active.ID,
		); err != nil {
			return nil, eris.Wrapf(err, "postgres: acquire run: fail stale %s", active.ID)
		}
	}

	run := &model.DiscoveryRun{
		ID:        uuid.New().String(),
		JobID:     jobID,
		Phase:     model.PhaseStarted,
		Precision: precision,
		StartedAt: time.Now().UTC(),
	}
	run.UpdatedAt = run.StartedAt

	summaryJSON, err = json.Marshal(run.Summary)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal summary")
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO runs (id, job_id, phase, precision, summary, started_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.JobID, string(run.Phase), string(run.Precision), summaryJSON, run.StartedAt, run.UpdatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: acquire run: commit")
	}
	return run, nil
}

func (s *PostgresStore) UpdateRunPhase(ctx context.Context, runID string, phase model.RunPhase, summary model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET phase = $1, summary = $2, updated_at = $3 WHERE id = $4`,
		string(phase), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run phase %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary model.RunSummary) error {
	return s.UpdateRunPhase(ctx, runID, model.PhaseCompleted, summary)
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET phase = 'failed', error = $1, updated_at = $2 WHERE id = $3`,
		reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.DiscoveryRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = $1`,
		runID,
	)
	run, err := scanPgRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return run, nil
}

func (s *PostgresStore) LatestRun(ctx context.Context, jobID string) (*model.DiscoveryRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM runs WHERE job_id = $1 ORDER BY started_at DESC LIMIT 1`,
		jobID,
	)
	run, err := scanPgRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: latest run for job %s", jobID)
	}
	return run, nil
}

func scanPgRun(row pgx.Row) (*model.DiscoveryRun, error) {
	var r model.DiscoveryRun
	var summaryJSON []byte
	var errMsg *string

	if err := row.Scan(&r.ID, &r.JobID, &r.Phase, &r.Precision, &summaryJSON, &errMsg, &r.StartedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
		return nil, eris.Wrap(err, "unmarshal summary")
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}

// candidateUpsertSQL keeps operator decisions sticky: APPROVED and REJECTED
// rows retain their state across re-runs, with the reason rewritten to say
// the decision was preserved. Re-observed candidates are unarchived and
// base_signal never decreases.
const candidateUpsertSQL = `
INSERT INTO candidates (` + candidateColumns + `, run_id, first_seen_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NULL, $21, $22, $22)
ON CONFLICT (job_id, platform, normalized_handle) DO UPDATE SET
	handle              = EXCLUDED.handle,
	profile_url         = CASE WHEN EXCLUDED.profile_url <> '' THEN EXCLUDED.profile_url ELSE candidates.profile_url END,
	canonical_name      = CASE WHEN EXCLUDED.canonical_name <> '' THEN EXCLUDED.canonical_name ELSE candidates.canonical_name END,
	website_domain      = CASE WHEN EXCLUDED.website_domain <> '' THEN EXCLUDED.website_domain ELSE candidates.website_domain END,
	sources             = EXCLUDED.sources,
	evidence            = EXCLUDED.evidence,
	base_signal         = GREATEST(candidates.base_signal, EXCLUDED.base_signal),
	availability        = EXCLUDED.availability,
	availability_reason = EXCLUDED.availability_reason,
	resolver_confidence = EXCLUDED.resolver_confidence,
	state               = CASE WHEN candidates.state IN ('APPROVED', 'REJECTED') THEN candidates.state ELSE EXCLUDED.state END,
	state_reason        = CASE WHEN candidates.state IN ('APPROVED', 'REJECTED') THEN '` + StickyStateReason + `' ELSE EXCLUDED.state_reason END,
	competitor_type     = EXCLUDED.competitor_type,
	type_confidence     = EXCLUDED.type_confidence,
	entity_flags        = EXCLUDED.entity_flags,
	relevance_score     = EXCLUDED.relevance_score,
	score_breakdown     = EXCLUDED.score_breakdown,
	run_id              = EXCLUDED.run_id,
	archived_at         = NULL,
	updated_at          = EXCLUDED.updated_at`

func (s *PostgresStore) UpsertCandidates(ctx context.Context, runID string, cands []model.ScoredCandidate) error {
	if len(cands) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert candidates: begin")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for i := range cands {
		c := &cands[i]
		sourcesJSON, evidenceJSON, flagsJSON, breakdownJSON, err := marshalCandidateJSON(c)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal candidate %s", c.Key())
		}
		if _, err := tx.Exec(ctx, candidateUpsertSQL,
			c.JobID, string(c.Platform), c.Handle, c.NormalizedHandle,
			c.ProfileURL, c.CanonicalName, c.WebsiteDomain,
			sourcesJSON, evidenceJSON, c.BaseSignal,
			string(c.Availability), c.AvailabilityReason, c.ResolverConfidence,
			string(c.State), c.StateReason, string(c.CompetitorType), c.TypeConfidence,
			flagsJSON, c.RelevanceScore, breakdownJSON,
			runID, now,
		); err != nil {
			return eris.Wrapf(err, "postgres: upsert candidate %s", c.Key())
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: upsert candidates: commit")
}

func (s *PostgresStore) GetCandidate(ctx context.Context, jobID string, platform model.Surface, normalizedHandle string) (*model.ScoredCandidate, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE job_id = $1 AND platform = $2 AND normalized_handle = $3`,
		jobID, string(platform), normalizedHandle,
	)
	c, err := scanPgCandidate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get candidate %s/%s", platform, normalizedHandle)
	}
	return c, nil
}

func (s *PostgresStore) ListCandidates(ctx context.Context, jobID string, filter CandidateFilter) ([]model.ScoredCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE job_id = $1`
	args := []any{jobID}
	argIdx := 2

	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, st := range filter.States {
			states[i] = string(st)
		}
		query += fmt.Sprintf(` AND state = ANY($%d)`, argIdx)
		args = append(args, states)
		argIdx++
	}
	if filter.Platform != "" {
		query += fmt.Sprintf(` AND platform = $%d`, argIdx)
		args = append(args, string(filter.Platform))
		argIdx++
	}
	if !filter.IncludeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY relevance_score DESC, normalized_handle ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list candidates")
	}
	defer rows.Close()

	var cands []model.ScoredCandidate
	for rows.Next() {
		c, err := scanPgCandidate(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		cands = append(cands, *c)
	}
	return cands, eris.Wrap(rows.Err(), "postgres: list candidates iterate")
}

func scanPgCandidate(row pgx.Row) (*model.ScoredCandidate, error) {
	var c model.ScoredCandidate
	var sourcesJSON, evidenceJSON, flagsJSON, breakdownJSON []byte

	if err := row.Scan(
		&c.JobID, &c.Platform, &c.Handle, &c.NormalizedHandle,
		&c.ProfileURL, &c.CanonicalName, &c.WebsiteDomain,
		&sourcesJSON, &evidenceJSON, &c.BaseSignal,
		&c.Availability, &c.AvailabilityReason, &c.ResolverConfidence,
		&c.State, &c.StateReason, &c.CompetitorType, &c.TypeConfidence,
		&flagsJSON, &c.RelevanceScore, &breakdownJSON, &c.ArchivedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalCandidateJSON(&c, sourcesJSON, evidenceJSON, flagsJSON, breakdownJSON); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) SetCandidateState(ctx context.Context, jobID string, platform model.Surface, normalizedHandle string, state model.CandidateState, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE candidates SET state = $1, state_reason = $2, updated_at = $3 WHERE job_id = $4 AND platform = $5 AND normalized_handle = $6`,
		string(state), reason, time.Now().UTC(), jobID, string(platform), normalizedHandle,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set candidate state %s/%s", platform, normalizedHandle)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("candidate not found: %s/%s", platform, normalizedHandle)
	}
	return nil
}

func (s *PostgresStore) ArchiveFiltered(ctx context.Context, jobID string, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE candidates SET archived_at = $1
		 WHERE job_id = $2 AND state IN ('FILTERED_OUT', 'REJECTED')
		   AND archived_at IS NULL AND updated_at <= $3
		   AND NOT EXISTS (
		     SELECT 1 FROM scrape_queue q
		      WHERE q.job_id = candidates.job_id
		        AND q.platform = candidates.platform
		        AND q.normalized_handle = candidates.normalized_handle
		        AND q.status = 'completed')`,
		time.Now().UTC(), jobID, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: archive filtered")
	}
	return int(tag.RowsAffected()), nil
}

// scrapeQueueUpsert routes enqueues through the shared bulk-upsert helper;
// conflicting rows keep their status so a re-run never resets progress.
var scrapeQueueUpsert = db.UpsertConfig{
	Table:        "scrape_queue",
	Columns:      []string{"id", "job_id", "platform", "normalized_handle", "profile_url", "status", "enqueued_at", "updated_at"},
	ConflictKeys: []string{"job_id", "platform", "normalized_handle"},
	UpdateCols:   []string{"profile_url", "updated_at"},
}

func (s *PostgresStore) EnqueueScrapes(ctx context.Context, jobs []ScrapeJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(jobs))
	for _, j := range jobs {
		id := j.ID
		if id == "" {
			id = uuid.New().String()
		}
		status := j.Status
		if status == "" {
			status = model.ScrapeQueued
		}
		rows = append(rows, []any{
			id, j.JobID, string(j.Platform), j.NormalizedHandle, j.ProfileURL,
			string(status), now, now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, scrapeQueueUpsert, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: enqueue scrapes")
	}
	return int(n), nil
}

func (s *PostgresStore) ListScrapeQueue(ctx context.Context, jobID string) ([]ScrapeJob, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, platform, normalized_handle, profile_url, status, enqueued_at, updated_at
		 FROM scrape_queue WHERE job_id = $1
		 ORDER BY enqueued_at ASC, normalized_handle ASC`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scrape queue")
	}
	defer rows.Close()

	var jobs []ScrapeJob
	for rows.Next() {
		var j ScrapeJob
		if err := rows.Scan(&j.ID, &j.JobID, &j.Platform, &j.NormalizedHandle, &j.ProfileURL, &j.Status, &j.EnqueuedAt, &j.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan scrape job")
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list scrape queue iterate")
}

func (s *PostgresStore) SetScrapeStatus(ctx context.Context, scrapeID string, status model.ScrapeStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scrape_queue SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), scrapeID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set scrape status %s", scrapeID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("scrape_job not found: %s", scrapeID)
	}
	return nil
}

// marshalCandidateJSON serializes the JSON-typed candidate columns.
func marshalCandidateJSON(c *model.ScoredCandidate) (sources, evidence, flags, breakdown []byte, err error) {
	if sources, err = json.Marshal(c.Sources); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "marshal sources")
	}
	if evidence, err = json.Marshal(c.Evidence); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "marshal evidence")
	}
	if flags, err = json.Marshal(c.EntityFlags); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "marshal entity flags")
	}
	if breakdown, err = json.Marshal(c.ScoreBreakdown); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "marshal score breakdown")
	}
	return sources, evidence, flags, breakdown, nil
}

func unmarshalCandidateJSON(c *model.ScoredCandidate, sources, evidence, flags, breakdown []byte) error {
	if err := json.Unmarshal(sources, &c.Sources); err != nil {
		return eris.Wrap(err, "unmarshal sources")
	}
	if err := json.Unmarshal(evidence, &c.Evidence); err != nil {
		return eris.Wrap(err, "unmarshal evidence")
	}
	if len(flags) > 0 {
		if err := json.Unmarshal(flags, &c.EntityFlags); err != nil {
			return eris.Wrap(err, "unmarshal entity flags")
		}
	}
	if err := json.Unmarshal(breakdown, &c.ScoreBreakdown); err != nil {
		return eris.Wrap(err, "unmarshal score breakdown")
	}
	return nil
}

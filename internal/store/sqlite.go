package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/brandscope/competitor-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	phase      TEXT NOT NULL DEFAULT 'started',
	precision  TEXT NOT NULL DEFAULT 'balanced',
	summary    TEXT NOT NULL DEFAULT '{}',
	error      TEXT,
	started_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
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
	sources             TEXT NOT NULL DEFAULT '[]',
	evidence            TEXT NOT NULL DEFAULT '[]',
	base_signal         REAL NOT NULL DEFAULT 0,
	availability        TEXT NOT NULL DEFAULT 'UNVERIFIED',
	availability_reason TEXT NOT NULL DEFAULT '',
	resolver_confidence REAL NOT NULL DEFAULT 0,
	state               TEXT NOT NULL DEFAULT 'DISCOVERED',
	state_reason        TEXT NOT NULL DEFAULT '',
	competitor_type     TEXT NOT NULL DEFAULT '',
	type_confidence     REAL NOT NULL DEFAULT 0,
	entity_flags        TEXT NOT NULL DEFAULT '[]',
	relevance_score     REAL NOT NULL DEFAULT 0,
	score_breakdown     TEXT NOT NULL DEFAULT '{}',
	run_id              TEXT NOT NULL DEFAULT '',
	archived_at         DATETIME,
	first_seen_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now')),
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
	enqueued_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (job_id, platform, normalized_handle)
);

CREATE INDEX IF NOT EXISTS idx_scrape_queue_status ON scrape_queue(job_id, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AcquireRun(ctx context.Context, jobID string, precision model.Precision, staleAfter, staleNoProgress time.Duration) (*model.DiscoveryRun, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: acquire run: begin")
	}
	defer tx.Rollback()

	var active model.DiscoveryRun
	var summaryJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT id, phase, summary, updated_at FROM runs
		 WHERE job_id = ? AND phase NOT IN ('completed', 'failed')
		 ORDER BY started_at DESC LIMIT 1`,
		jobID,
	).Scan(&active.ID, &active.Phase, &summaryJSON, &active.UpdatedAt)
	switch {
	case err == sql.ErrNoRows:
		// Lock is free.
	case err != nil:
		return nil, eris.Wrap(err, "sqlite: acquire run: check active")
	default:
		if err := json.Unmarshal([]byte(summaryJSON), &active.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
		window := staleAfter
		if !active.Progressed() {
			window = staleNoProgress
		}
		if time.Since(active.UpdatedAt) < window {
			return nil, ErrRunActive
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE runs SET phase = 'failed', error = ?, updated_at = ? WHERE id = ?`,
			"superseded by stale-run takeover", time.Now().UTC(), active.ID,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: acquire run: fail stale %s", active.ID)
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

	summaryBytes, err := json.Marshal(run.Summary)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal summary")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, job_id, phase, precision, summary, started_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.JobID, string(run.Phase), string(run.Precision), string(summaryBytes), run.StartedAt, run.UpdatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: acquire run: commit")
	}
	return run, nil
}

func (s *SQLiteStore) UpdateRunPhase(ctx context.Context, runID string, phase model.RunPhase, summary model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET phase = ?, summary = ?, updated_at = ? WHERE id = ?`,
		string(phase), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run phase %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary model.RunSummary) error {
	return s.UpdateRunPhase(ctx, runID, model.PhaseCompleted, summary)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET phase = 'failed', error = ?, updated_at = ? WHERE id = ?`,
		reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.DiscoveryRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`,
		runID,
	)
	return scanSQLiteRun(row)
}

func (s *SQLiteStore) LatestRun(ctx context.Context, jobID string) (*model.DiscoveryRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE job_id = ? ORDER BY started_at DESC LIMIT 1`,
		jobID,
	)
	return scanSQLiteRun(row)
}

// sqliteCandidateUpsertSQL mirrors the Postgres sticky-state upsert.
var sqliteCandidateUpsertSQL = `
INSERT INTO candidates (` + candidateColumns + `, run_id, first_seen_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)
ON CONFLICT (job_id, platform, normalized_handle) DO UPDATE SET
	handle              = excluded.handle,
	profile_url         = CASE WHEN excluded.profile_url <> '' THEN excluded.profile_url ELSE candidates.profile_url END,
	canonical_name      = CASE WHEN excluded.canonical_name <> '' THEN excluded.canonical_name ELSE candidates.canonical_name END,
	website_domain      = CASE WHEN excluded.website_domain <> '' THEN excluded.website_domain ELSE candidates.website_domain END,
	sources             = excluded.sources,
	evidence            = excluded.evidence,
	base_signal         = MAX(candidates.base_signal, excluded.base_signal),
	availability        = excluded.availability,
	availability_reason = excluded.availability_reason,
	resolver_confidence = excluded.resolver_confidence,
	state               = CASE WHEN candidates.state IN ('APPROVED', 'REJECTED') THEN candidates.state ELSE excluded.state END,
	state_reason        = CASE WHEN candidates.state IN ('APPROVED', 'REJECTED') THEN '` + StickyStateReason + `' ELSE excluded.state_reason END,
	competitor_type     = excluded.competitor_type,
	type_confidence     = excluded.type_confidence,
	entity_flags        = excluded.entity_flags,
	relevance_score     = excluded.relevance_score,
	score_breakdown     = excluded.score_breakdown,
	run_id              = excluded.run_id,
	archived_at         = NULL,
	updated_at          = excluded.updated_at`

func (s *SQLiteStore) UpsertCandidates(ctx context.Context, runID string, cands []model.ScoredCandidate) error {
	if len(cands) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert candidates: begin")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := range cands {
		c := &cands[i]
		sourcesJSON, evidenceJSON, flagsJSON, breakdownJSON, err := marshalCandidateJSON(c)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal candidate %s", c.Key())
		}
		if _, err := tx.ExecContext(ctx, sqliteCandidateUpsertSQL,
			c.JobID, string(c.Platform), c.Handle, c.NormalizedHandle,
			c.ProfileURL, c.CanonicalName, c.WebsiteDomain,
			string(sourcesJSON), string(evidenceJSON), c.BaseSignal,
			string(c.Availability), c.AvailabilityReason, c.ResolverConfidence,
			string(c.State), c.StateReason, string(c.CompetitorType), c.TypeConfidence,
			string(flagsJSON), c.RelevanceScore, string(breakdownJSON),
			runID, now, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert candidate %s", c.Key())
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: upsert candidates: commit")
}

func (s *SQLiteStore) GetCandidate(ctx context.Context, jobID string, platform model.Surface, normalizedHandle string) (*model.ScoredCandidate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE job_id = ? AND platform = ? AND normalized_handle = ?`,
		jobID, string(platform), normalizedHandle,
	)
	c, err := scanSQLiteCandidate(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get candidate %s/%s", platform, normalizedHandle)
	}
	return c, nil
}

func (s *SQLiteStore) ListCandidates(ctx context.Context, jobID string, filter CandidateFilter) ([]model.ScoredCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE job_id = ?`
	args := []any{jobID}

	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, st := range filter.States {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += ` AND state IN (` + strings.Join(placeholders, ", ") + `)`
	}
	if filter.Platform != "" {
		query += ` AND platform = ?`
		args = append(args, string(filter.Platform))
	}
	if !filter.IncludeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY relevance_score DESC, normalized_handle ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list candidates")
	}
	defer rows.Close()

	var cands []model.ScoredCandidate
	for rows.Next() {
		c, err := scanSQLiteCandidate(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate")
		}
		cands = append(cands, *c)
	}
	return cands, eris.Wrap(rows.Err(), "sqlite: list candidates iterate")
}

func (s *SQLiteStore) SetCandidateState(ctx context.Context, jobID string, platform model.Surface, normalizedHandle string, state model.CandidateState, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET state = ?, state_reason = ?, updated_at = ? WHERE job_id = ? AND platform = ? AND normalized_handle = ?`,
		string(state), reason, time.Now().UTC(), jobID, string(platform), normalizedHandle,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set candidate state %s/%s", platform, normalizedHandle)
	}
	return checkRowsAffected(res, "candidate", string(platform)+"/"+normalizedHandle)
}

func (s *SQLiteStore) ArchiveFiltered(ctx context.Context, jobID string, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET archived_at = ?
		 WHERE job_id = ? AND state IN ('FILTERED_OUT', 'REJECTED')
		   AND archived_at IS NULL AND updated_at <= ?
		   AND NOT EXISTS (
		     SELECT 1 FROM scrape_queue q
		      WHERE q.job_id = candidates.job_id
		        AND q.platform = candidates.platform
		        AND q.normalized_handle = candidates.normalized_handle
		        AND q.status = 'completed')`,
		time.Now().UTC(), jobID, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: archive filtered")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) EnqueueScrapes(ctx context.Context, jobs []ScrapeJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: enqueue scrapes: begin")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	inserted := 0
	for _, j := range jobs {
		id := j.ID
		if id == "" {
			id = uuid.New().String()
		}
		status := j.Status
		if status == "" {
			status = model.ScrapeQueued
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO scrape_queue (id, job_id, platform, normalized_handle, profile_url, status, enqueued_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (job_id, platform, normalized_handle) DO UPDATE SET
			   profile_url = excluded.profile_url, updated_at = excluded.updated_at`,
			id, j.JobID, string(j.Platform), j.NormalizedHandle, j.ProfileURL, string(status), now, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: enqueue scrape %s/%s", j.Platform, j.NormalizedHandle)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: enqueue scrapes: commit")
	}
	return inserted, nil
}

func (s *SQLiteStore) ListScrapeQueue(ctx context.Context, jobID string) ([]ScrapeJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, platform, normalized_handle, profile_url, status, enqueued_at, updated_at
		 FROM scrape_queue WHERE job_id = ?
		 ORDER BY enqueued_at ASC, normalized_handle ASC`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scrape queue")
	}
	defer rows.Close()

	var jobs []ScrapeJob
	for rows.Next() {
		var j ScrapeJob
		if err := rows.Scan(&j.ID, &j.JobID, &j.Platform, &j.NormalizedHandle, &j.ProfileURL, &j.Status, &j.EnqueuedAt, &j.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scrape job")
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list scrape queue iterate")
}

func (s *SQLiteStore) SetScrapeStatus(ctx context.Context, scrapeID string, status model.ScrapeStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scrape_queue SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), scrapeID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set scrape status %s", scrapeID)
	}
	return checkRowsAffected(res, "scrape_job", scrapeID)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row scannable) (*model.DiscoveryRun, error) {
	var r model.DiscoveryRun
	var summaryJSON string
	var errMsg sql.NullString

	err := row.Scan(&r.ID, &r.JobID, &r.Phase, &r.Precision, &summaryJSON, &errMsg, &r.StartedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}
	if errMsg.Valid {
		r.Error = errMsg.String
	}
	return &r, nil
}

func scanSQLiteCandidate(row scannable) (*model.ScoredCandidate, error) {
	var c model.ScoredCandidate
	var sourcesJSON, evidenceJSON, flagsJSON, breakdownJSON string
	var archivedAt sql.NullTime

	if err := row.Scan(
		&c.JobID, &c.Platform, &c.Handle, &c.NormalizedHandle,
		&c.ProfileURL, &c.CanonicalName, &c.WebsiteDomain,
		&sourcesJSON, &evidenceJSON, &c.BaseSignal,
		&c.Availability, &c.AvailabilityReason, &c.ResolverConfidence,
		&c.State, &c.StateReason, &c.CompetitorType, &c.TypeConfidence,
		&flagsJSON, &c.RelevanceScore, &breakdownJSON, &archivedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalCandidateJSON(&c, []byte(sourcesJSON), []byte(evidenceJSON), []byte(flagsJSON), []byte(breakdownJSON)); err != nil {
		return nil, err
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		c.ArchivedAt = &t
	}
	return &c, nil
}

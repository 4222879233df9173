package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandscope/competitor-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var serializableTx = pgx.TxOptions{IsoLevel: pgx.Serializable}

func TestPostgresStore_AcquireRun_FreeLock(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBeginTx(serializableTx)
	mock.ExpectQuery(`SELECT id, phase, summary, updated_at FROM runs`).
		WithArgs("job-1").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "job-1", "started", "balanced",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	run, err := s.AcquireRun(context.Background(), "job-1", model.PrecisionBalanced, time.Hour, 10*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "job-1", run.JobID)
	assert.Equal(t, model.PhaseStarted, run.Phase)
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AcquireRun_ActiveRunBlocks(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	summary, _ := json.Marshal(model.RunSummary{CandidatesDiscovered: 12})
	mock.ExpectBeginTx(serializableTx)
	mock.ExpectQuery(`SELECT id, phase, summary, updated_at FROM runs`).
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phase", "summary", "updated_at"}).
			AddRow("run-live", "collecting", summary, time.Now().UTC().Add(-5*time.Minute)))
	mock.ExpectRollback()

	_, err := s.AcquireRun(context.Background(), "job-1", model.PrecisionBalanced, time.Hour, 10*time.Minute)
	require.ErrorIs(t, err, ErrRunActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AcquireRun_StaleTakeover(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	summary, _ := json.Marshal(model.RunSummary{CandidatesDiscovered: 12})
	mock.ExpectBeginTx(serializableTx)
	mock.ExpectQuery(`SELECT id, phase, summary, updated_at FROM runs`).
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phase", "summary", "updated_at"}).
			AddRow("run-stale", "collecting", summary, time.Now().UTC().Add(-2*time.Hour)))
	mock.ExpectExec(`UPDATE runs SET phase = 'failed'`).
		WithArgs("superseded by stale-run takeover", pgxmock.AnyArg(), "run-stale").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "job-1", "started", "high",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	run, err := s.AcquireRun(context.Background(), "job-1", model.PrecisionHigh, time.Hour, 10*time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, "run-stale", run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AcquireRun_NoProgressShorterWindow(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// A run still in 'started' with zero counts never progressed; the
	// shorter window applies, so 20 minutes idle is already stale.
	summary, _ := json.Marshal(model.RunSummary{})
	mock.ExpectBeginTx(serializableTx)
	mock.ExpectQuery(`SELECT id, phase, summary, updated_at FROM runs`).
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phase", "summary", "updated_at"}).
			AddRow("run-idle", "started", summary, time.Now().UTC().Add(-20*time.Minute)))
	mock.ExpectExec(`UPDATE runs SET phase = 'failed'`).
		WithArgs("superseded by stale-run takeover", pgxmock.AnyArg(), "run-idle").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "job-1", "started", "balanced",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	_, err := s.AcquireRun(context.Background(), "job-1", model.PrecisionBalanced, time.Hour, 10*time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunPhase(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET phase = \$1`).
		WithArgs("resolving", pgxmock.AnyArg(), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateRunPhase(context.Background(), "run-1", model.PhaseResolving, model.RunSummary{CandidatesDiscovered: 40})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunPhase_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET phase = \$1`).
		WithArgs("scoring", pgxmock.AnyArg(), pgxmock.AnyArg(), "missing-run").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunPhase(context.Background(), "missing-run", model.PhaseScoring, model.RunSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	run, err := s.GetRun(context.Background(), "nonexistent-run")
	require.NoError(t, err)
	assert.Nil(t, run)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertCandidates_Batch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	anyArgs := make([]interface{}, 22)
	for i := range anyArgs {
		anyArgs[i] = pgxmock.AnyArg()
	}
	for i := 0; i < 2; i++ {
		mock.ExpectExec(`INSERT INTO candidates`).
			WithArgs(anyArgs...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	cands := []model.ScoredCandidate{
		scoredFixture("job-1", model.SurfaceInstagram, "alphafit"),
		scoredFixture("job-1", model.SurfaceTikTok, "betafit"),
	}
	err := s.UpsertCandidates(context.Background(), "run-1", cands)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertCandidates_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	err := s.UpsertCandidates(context.Background(), "run-1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCandidate_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM candidates WHERE`).
		WithArgs("job-1", "instagram", "ghost").
		WillReturnError(pgx.ErrNoRows)

	c, err := s.GetCandidate(context.Background(), "job-1", model.SurfaceInstagram, "ghost")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCandidates_ScansRows(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	breakdown, _ := json.Marshal(model.ScoreBreakdown{WeightedTotal: 81.5})
	rows := pgxmock.NewRows([]string{
		"job_id", "platform", "handle", "normalized_handle", "profile_url", "canonical_name", "website_domain",
		"sources", "evidence", "base_signal", "availability", "availability_reason", "resolver_confidence",
		"state", "state_reason", "competitor_type", "type_confidence", "entity_flags", "relevance_score",
		"score_breakdown", "archived_at",
	}).AddRow(
		"job-1", "instagram", "AlphaFit", "alphafit", "https://instagram.com/alphafit", "AlphaFit", "",
		[]byte(`["jina"]`), []byte(`[]`), 0.9, "VERIFIED", "", 0.8,
		"TOP_PICK", "", "DIRECT", 0.85, []byte(`[]`), 81.5,
		breakdown, nil,
	)

	mock.ExpectQuery(`SELECT .+ FROM candidates WHERE job_id = \$1 AND state = ANY\(\$2\)`).
		WithArgs("job-1", []string{"TOP_PICK", "SHORTLISTED"}, 200).
		WillReturnRows(rows)

	cands, err := s.ListCandidates(context.Background(), "job-1", CandidateFilter{
		States: []model.CandidateState{model.StateTopPick, model.StateShortlisted},
	})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "alphafit", cands[0].NormalizedHandle)
	assert.Equal(t, model.StateTopPick, cands[0].State)
	assert.Equal(t, []string{"jina"}, cands[0].Sources)
	assert.InDelta(t, 81.5, cands[0].ScoreBreakdown.WeightedTotal, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetCandidateState(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE candidates SET state = \$1`).
		WithArgs("APPROVED", "looks right", pgxmock.AnyArg(), "job-1", "instagram", "alphafit").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.SetCandidateState(context.Background(), "job-1", model.SurfaceInstagram, "alphafit", model.StateApproved, "looks right")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ArchiveFiltered(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	mock.ExpectExec(`UPDATE candidates SET archived_at = \$1`).
		WithArgs(pgxmock.AnyArg(), "job-1", cutoff).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := s.ArchiveFiltered(context.Background(), "job-1", cutoff)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnqueueScrapes_BulkPath(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_scrape_queue"},
		[]string{"id", "job_id", "platform", "normalized_handle", "profile_url", "status", "enqueued_at", "updated_at"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "scrape_queue"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	jobs := []ScrapeJob{
		{JobID: "job-1", Platform: model.SurfaceInstagram, NormalizedHandle: "alphafit", ProfileURL: "https://instagram.com/alphafit"},
		{JobID: "job-1", Platform: model.SurfaceTikTok, NormalizedHandle: "betafit", ProfileURL: "https://tiktok.com/@betafit"},
	}
	n, err := s.EnqueueScrapes(context.Background(), jobs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetScrapeStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE scrape_queue SET status = \$1`).
		WithArgs("running", pgxmock.AnyArg(), "missing-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SetScrapeStatus(context.Background(), "missing-id", model.ScrapeRunning)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

package materialize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/store"
)

// fakeStore records the calls the materializer makes. Unused Store methods
// panic so a test that strays is loud about it.
type fakeStore struct {
	store.Store

	upserted     []model.ScoredCandidate
	upsertRunID  string
	enqueued     []store.ScrapeJob
	archiveJobID string
	cutoff       time.Time
	archiveN     int
	listed       []model.ScoredCandidate
	queue        []store.ScrapeJob
}

func (f *fakeStore) UpsertCandidates(_ context.Context, runID string, cands []model.ScoredCandidate) error {
	f.upsertRunID = runID
	f.upserted = cands
	return nil
}

func (f *fakeStore) EnqueueScrapes(_ context.Context, jobs []store.ScrapeJob) (int, error) {
	f.enqueued = jobs
	return len(jobs), nil
}

func (f *fakeStore) ArchiveFiltered(_ context.Context, jobID string, cutoff time.Time) (int, error) {
	f.archiveJobID = jobID
	f.cutoff = cutoff
	return f.archiveN, nil
}

func (f *fakeStore) ListCandidates(_ context.Context, _ string, _ store.CandidateFilter) ([]model.ScoredCandidate, error) {
	return f.listed, nil
}

func (f *fakeStore) ListScrapeQueue(_ context.Context, _ string) ([]store.ScrapeJob, error) {
	return f.queue, nil
}

func scored(platform model.Surface, handle string, state model.CandidateState, avail model.Availability) model.ScoredCandidate {
	return model.ScoredCandidate{
		ResolvedCandidate: model.ResolvedCandidate{
			Candidate: model.Candidate{
				JobID:            "job-1",
				Platform:         platform,
				Handle:           handle,
				NormalizedHandle: handle,
				ProfileURL:       "https://" + string(platform) + ".com/" + handle,
				Sources:          []string{"ddg"},
				BaseSignal:       0.5,
			},
			Availability: avail,
		},
		State:          state,
		RelevanceScore: 60,
	}
}

func TestPersist_EnqueuesOnlyPromotedVerifiedScrapeEligible(t *testing.T) {
	fs := &fakeStore{}
	m := New(fs, config.RetentionConfig{})

	cands := []model.ScoredCandidate{
		scored(model.SurfaceInstagram, "alphafit", model.StateTopPick, model.AvailabilityVerified),
		scored(model.SurfaceTikTok, "betafit", model.StateShortlisted, model.AvailabilityVerified),
		// Promoted but not verified.
		scored(model.SurfaceInstagram, "ghostfit", model.StateShortlisted, model.AvailabilityUnverified),
		// Verified but not a scrape platform.
		scored(model.SurfaceYouTube, "tubefit", model.StateTopPick, model.AvailabilityVerified),
		// Verified, scrape platform, but filtered.
		scored(model.SurfaceInstagram, "noisegym", model.StateFilteredOut, model.AvailabilityVerified),
	}

	res, err := m.Persist(context.Background(), "run-1", cands)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Upserted)
	assert.Equal(t, "run-1", fs.upsertRunID)

	require.Len(t, fs.enqueued, 2)
	assert.Equal(t, "alphafit", fs.enqueued[0].NormalizedHandle)
	assert.Equal(t, "betafit", fs.enqueued[1].NormalizedHandle)
	assert.Equal(t, model.ScrapeQueued, fs.enqueued[0].Status)
	assert.Equal(t, 2, res.Enqueued)
}

func TestPersist_ApprovedCandidatesStayQueued(t *testing.T) {
	fs := &fakeStore{}
	m := New(fs, config.RetentionConfig{})

	approved := scored(model.SurfaceInstagram, "keeper", model.StateApproved, model.AvailabilityVerified)
	_, err := m.Persist(context.Background(), "run-2", []model.ScoredCandidate{approved})
	require.NoError(t, err)
	require.Len(t, fs.enqueued, 1)
}

func TestRetention_DefaultWindow(t *testing.T) {
	fs := &fakeStore{archiveN: 3}
	m := New(fs, config.RetentionConfig{})

	n, err := m.Retention(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "job-1", fs.archiveJobID)

	want := time.Now().UTC().AddDate(0, 0, -defaultArchiveAfterDays)
	assert.WithinDuration(t, want, fs.cutoff, time.Minute)
}

func TestRetention_ConfiguredWindow(t *testing.T) {
	fs := &fakeStore{}
	m := New(fs, config.RetentionConfig{ArchiveAfterDays: 7})

	_, err := m.Retention(context.Background(), "job-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -7), fs.cutoff, time.Minute)
}

func TestGroupedView_ReadsThroughStore(t *testing.T) {
	fs := &fakeStore{listed: []model.ScoredCandidate{
		scored(model.SurfaceInstagram, "alphafit", model.StateTopPick, model.AvailabilityVerified),
	}}
	m := New(fs, config.RetentionConfig{})

	view, err := m.GroupedView(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, view.TopPicks, 1)
	assert.Equal(t, "alphafit", view.TopPicks[0].Members[0].NormalizedHandle)
}

func TestStageView_LinksScrapeQueue(t *testing.T) {
	fs := &fakeStore{
		listed: []model.ScoredCandidate{
			scored(model.SurfaceInstagram, "alphafit", model.StateTopPick, model.AvailabilityVerified),
			scored(model.SurfaceTikTok, "betafit", model.StateShortlisted, model.AvailabilityVerified),
			scored(model.SurfaceInstagram, "plainfit", model.StateDiscovered, model.AvailabilityUnverified),
		},
		queue: []store.ScrapeJob{
			{JobID: "job-1", Platform: model.SurfaceInstagram, NormalizedHandle: "alphafit", Status: model.ScrapeCompleted},
			{JobID: "job-1", Platform: model.SurfaceTikTok, NormalizedHandle: "betafit", Status: model.ScrapeQueued},
		},
	}
	m := New(fs, config.RetentionConfig{})

	stages, err := m.StageView(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, stages[model.StageScrapedReady], 1)
	assert.Equal(t, "alphafit", stages[model.StageScrapedReady][0].NormalizedHandle)
	require.Len(t, stages[model.StageScrapeQueue], 1)
	assert.Equal(t, "betafit", stages[model.StageScrapeQueue][0].NormalizedHandle)
	require.Len(t, stages[model.StageDiscoveredCandidates], 1)
}

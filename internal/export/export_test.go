package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/pkg/notion"
)

type fakeNotion struct {
	created []*notionapi.PageCreateRequest
	queries int
}

func (f *fakeNotion) QueryDatabase(_ context.Context, _ string, _ *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	f.queries++
	return &notionapi.DatabaseQueryResponse{HasMore: false}, nil
}

func (f *fakeNotion) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.created = append(f.created, req)
	return &notionapi.Page{ID: "p1"}, nil
}

func (f *fakeNotion) UpdatePage(_ context.Context, _ string, _ *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return &notionapi.Page{ID: "p1"}, nil
}

func scored(platform model.Surface, handle string, state model.CandidateState, score float64) model.ScoredCandidate {
	return model.ScoredCandidate{
		ResolvedCandidate: model.ResolvedCandidate{
			Candidate: model.Candidate{
				JobID:            "job-1",
				Platform:         platform,
				Handle:           handle,
				NormalizedHandle: handle,
				ProfileURL:       "https://example.com/" + handle,
				Sources:          []string{"ddg", "jina_search"},
			},
			Availability: model.AvailabilityVerified,
		},
		State:          state,
		StateReason:    "meets threshold",
		CompetitorType: model.TypeDirect,
		RelevanceScore: score,
	}
}

func TestShortlistRows_PromotedOnly(t *testing.T) {
	cands := []model.ScoredCandidate{
		scored(model.SurfaceInstagram, "alphafit", model.StateTopPick, 71),
		scored(model.SurfaceTikTok, "betafit", model.StateShortlisted, 55),
		scored(model.SurfaceInstagram, "weakfit", model.StateFilteredOut, 22),
		scored(model.SurfaceYouTube, "approvedfit", model.StateApproved, 60),
		scored(model.SurfaceInstagram, "badfit", model.StateRejected, 10),
	}

	rows := ShortlistRows(cands)
	require.Len(t, rows, 3)
	assert.Equal(t, "instagram/alphafit", rows[0].Key)
	assert.Equal(t, "tiktok/betafit", rows[1].Key)
	assert.Equal(t, "youtube/approvedfit", rows[2].Key)
	assert.Equal(t, 2, rows[0].Sources)
	assert.Equal(t, "DIRECT", rows[0].Type)
}

func TestShortlistRows_NameFallsBackToHandle(t *testing.T) {
	withName := scored(model.SurfaceInstagram, "alphafit", model.StateTopPick, 71)
	withName.CanonicalName = "Alpha Fit"
	anon := scored(model.SurfaceTikTok, "betafit", model.StateShortlisted, 55)

	rows := ShortlistRows([]model.ScoredCandidate{withName, anon})
	require.Len(t, rows, 2)
	assert.Equal(t, "Alpha Fit", rows[0].Name)
	assert.Equal(t, "@betafit (tiktok)", rows[1].Name)
}

func TestToNotion_CreatesPages(t *testing.T) {
	fn := &fakeNotion{}
	cands := []model.ScoredCandidate{
		scored(model.SurfaceInstagram, "alphafit", model.StateTopPick, 71),
		scored(model.SurfaceInstagram, "weakfit", model.StateFilteredOut, 22),
	}

	res, err := ToNotion(context.Background(), fn, "db-short", cands)
	require.NoError(t, err)
	assert.Equal(t, notion.UpsertResult{Created: 1}, res)
	require.Len(t, fn.created, 1)
	assert.Equal(t, 1, fn.queries)
}

func TestToNotion_RequiresDatabase(t *testing.T) {
	_, err := ToNotion(context.Background(), &fakeNotion{}, "  ", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestToCSV(t *testing.T) {
	var buf bytes.Buffer
	cands := []model.ScoredCandidate{
		scored(model.SurfaceInstagram, "alphafit", model.StateTopPick, 71.25),
		scored(model.SurfaceInstagram, "weakfit", model.StateFilteredOut, 22),
	}

	n, err := ToCSV(&buf, cands)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "instagram/alphafit", records[1][0])
	assert.Equal(t, "71.2", records[1][7])
	assert.Equal(t, "TOP_PICK", records[1][5])
}

// Package export publishes a job's shortlist for operator review, either
// to a Notion database or as a CSV file.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/pkg/notion"
)

// ShortlistRows converts promoted candidates into export rows, preserving
// input order. Non-promoted candidates are skipped.
func ShortlistRows(cands []model.ScoredCandidate) []notion.ShortlistRow {
	var rows []notion.ShortlistRow
	for i := range cands {
		c := &cands[i]
		if !c.State.Promoted() {
			continue
		}
		rows = append(rows, notion.ShortlistRow{
			Key:      c.Key(),
			Name:     displayName(c),
			Handle:   c.NormalizedHandle,
			Platform: string(c.Platform),
			URL:      c.ProfileURL,
			State:    string(c.State),
			Type:     string(c.CompetitorType),
			Score:    c.RelevanceScore,
			Sources:  len(c.Sources),
			Reason:   c.StateReason,
		})
	}
	return rows
}

// ToNotion upserts the promoted candidates into the shortlist database.
func ToNotion(ctx context.Context, client notion.Client, dbID string, cands []model.ScoredCandidate) (notion.UpsertResult, error) {
	if strings.TrimSpace(dbID) == "" {
		return notion.UpsertResult{}, eris.New("export: notion shortlist database is not configured")
	}

	rows := ShortlistRows(cands)
	res, err := notion.UpsertShortlist(ctx, client, dbID, rows)
	if err != nil {
		return res, eris.Wrap(err, "export: publish shortlist")
	}
	zap.L().Info("shortlist exported to notion",
		zap.Int("rows", len(rows)),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated))
	return res, nil
}

func displayName(c *model.ScoredCandidate) string {
	if strings.TrimSpace(c.CanonicalName) != "" {
		return c.CanonicalName
	}
	return fmt.Sprintf("@%s (%s)", c.NormalizedHandle, c.Platform)
}

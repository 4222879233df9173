package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/brandscope/competitor-cli/internal/model"
)

var csvHeader = []string{
	"key", "name", "handle", "platform", "url",
	"state", "type", "score", "sources", "reason",
}

// ToCSV writes the promoted candidates as CSV, one row per shortlist entry.
func ToCSV(w io.Writer, cands []model.ScoredCandidate) (int, error) {
	rows := ShortlistRows(cands)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, eris.Wrap(err, "export: write csv header")
	}
	for _, row := range rows {
		record := []string{
			row.Key,
			row.Name,
			row.Handle,
			row.Platform,
			row.URL,
			row.State,
			row.Type,
			strconv.FormatFloat(row.Score, 'f', 1, 64),
			strconv.Itoa(row.Sources),
			row.Reason,
		}
		if err := cw.Write(record); err != nil {
			return 0, eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, eris.Wrap(err, "export: flush csv")
	}
	return len(rows), nil
}

package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// keyProperty is the rich_text column that makes shortlist upserts
// idempotent across runs.
const keyProperty = "Key"

// ShortlistRow is one shortlist entry to publish for operator review.
type ShortlistRow struct {
	// Key uniquely identifies the entry across runs (platform/handle).
	Key      string
	Name     string
	Handle   string
	Platform string
	URL      string
	State    string
	Type     string
	Score    float64
	Sources  int
	Reason   string
}

// UpsertResult reports what an UpsertShortlist call did.
type UpsertResult struct {
	Created int
	Updated int
}

// UpsertShortlist publishes rows into the shortlist database, keyed on the
// Key property: existing pages are updated in place, new ones created.
func UpsertShortlist(ctx context.Context, c Client, dbID string, rows []ShortlistRow) (UpsertResult, error) {
	var res UpsertResult
	for _, row := range rows {
		if ctx.Err() != nil {
			return res, eris.Wrap(ctx.Err(), "notion: upsert shortlist cancelled")
		}
		if strings.TrimSpace(row.Key) == "" {
			return res, eris.New("notion: shortlist row has no key")
		}

		existing, err := FindByRichText(ctx, c, dbID, keyProperty, row.Key)
		if err != nil {
			return res, err
		}
		props := buildShortlistProperties(row)

		if len(existing) > 0 {
			_, err = c.UpdatePage(ctx, string(existing[0].ID), &notionapi.PageUpdateRequest{
				Properties: props,
			})
			if err != nil {
				return res, eris.Wrapf(err, "notion: update shortlist row %s", row.Key)
			}
			res.Updated++
			continue
		}

		_, err = c.CreatePage(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: props,
		})
		if err != nil {
			return res, eris.Wrapf(err, "notion: create shortlist row %s", row.Key)
		}
		res.Created++
	}
	return res, nil
}

func buildShortlistProperties(row ShortlistRow) notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(row.Name),
		},
		keyProperty: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(row.Key),
		},
		"Handle": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(row.Handle),
		},
		"Platform": notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: row.Platform},
		},
		"State": notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: row.State},
		},
		"Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: row.Score,
		},
		"Sources": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(row.Sources),
		},
	}
	if row.URL != "" {
		props["URL"] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  row.URL,
		}
	}
	if row.Type != "" {
		props["Type"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: row.Type},
		}
	}
	if row.Reason != "" {
		props["Reason"] = notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(row.Reason),
		}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}

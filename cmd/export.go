package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brandscope/competitor-cli/internal/export"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/store"
	"github.com/brandscope/competitor-cli/pkg/notion"
)

var (
	exportJobID   string
	exportCSVPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Publish a job's shortlist for review",
	Long:  "Exports shortlisted, top-pick and approved candidates to the configured Notion database, or to a CSV file with --csv.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cands, err := st.ListCandidates(ctx, exportJobID, store.CandidateFilter{
			States: []model.CandidateState{
				model.StateTopPick, model.StateShortlisted, model.StateApproved,
			},
		})
		if err != nil {
			return err
		}

		if exportCSVPath != "" {
			f, err := os.Create(exportCSVPath)
			if err != nil {
				return eris.Wrap(err, "export: create csv file")
			}
			defer f.Close() //nolint:errcheck

			n, err := export.ToCSV(f, cands)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %d rows to %s\n", n, exportCSVPath)
			return nil
		}

		client := notion.NewClient(cfg.Notion.Token)
		res, err := export.ToNotion(ctx, client, cfg.Notion.ShortlistDB, cands)
		if err != nil {
			return err
		}
		fmt.Printf("notion shortlist: %d created, %d updated\n", res.Created, res.Updated)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportJobID, "job", "", "research job ID (required)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "write a CSV file instead of publishing to Notion")
	_ = exportCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(exportCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brandscope/competitor-cli/internal/materialize"
	"github.com/brandscope/competitor-cli/internal/model"
)

var (
	shortlistJobID  string
	shortlistStages bool
)

var shortlistCmd = &cobra.Command{
	Use:   "shortlist",
	Short: "Show a job's shortlist grouped by identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		mat := materialize.New(st, cfg.Retention)

		if shortlistStages {
			stages, err := mat.StageView(ctx, shortlistJobID)
			if err != nil {
				return err
			}
			order := []model.PipelineStage{
				model.StageClientInputs,
				model.StageDiscoveredCandidates,
				model.StageScrapeQueue,
				model.StageScrapedReady,
				model.StageBlocked,
			}
			for _, stage := range order {
				cands := stages[stage]
				if len(cands) == 0 {
					continue
				}
				fmt.Printf("%s (%d)\n", stage, len(cands))
				for i := range cands {
					printCandidate(&cands[i])
				}
			}
			return nil
		}

		view, err := mat.GroupedView(ctx, shortlistJobID)
		if err != nil {
			return err
		}
		printGroups("TOP PICKS", view.TopPicks)
		printGroups("SHORTLIST", view.Shortlist)
		printGroups("FILTERED OUT", view.FilteredOut)
		return nil
	},
}

func printGroups(label string, groups []materialize.IdentityGroup) {
	if len(groups) == 0 {
		return
	}
	fmt.Printf("%s (%d)\n", label, len(groups))
	for _, g := range groups {
		fmt.Printf("  %s\n", g.Name)
		for i := range g.Members {
			printCandidate(&g.Members[i])
		}
	}
}

func printCandidate(c *model.ScoredCandidate) {
	fmt.Printf("    %-10s @%-24s %5.1f  %s/%s\n",
		c.Platform, c.NormalizedHandle, c.RelevanceScore, c.State, c.Availability)
}

func init() {
	shortlistCmd.Flags().StringVar(&shortlistJobID, "job", "", "research job ID (required)")
	shortlistCmd.Flags().BoolVar(&shortlistStages, "stages", false, "show the pipeline-stage view instead of score buckets")
	_ = shortlistCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(shortlistCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusJobID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest run for a job",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.LatestRun(ctx, statusJobID)
		if err != nil {
			return err
		}
		if run == nil {
			fmt.Printf("job %s: no runs\n", statusJobID)
			return nil
		}

		fmt.Printf("job %s run %s\n", run.JobID, run.ID)
		fmt.Printf("  phase:      %s\n", run.Phase)
		fmt.Printf("  precision:  %s\n", run.Precision)
		fmt.Printf("  started:    %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  updated:    %s\n", run.UpdatedAt.Format("2006-01-02 15:04:05"))
		if run.Error != "" {
			fmt.Printf("  error:      %s\n", run.Error)
		}
		fmt.Printf("  discovered: %d  shortlisted: %d  top picks: %d\n",
			run.Summary.CandidatesDiscovered, run.Summary.Shortlisted, run.Summary.TopPicks)

		queue, err := st.ListScrapeQueue(ctx, statusJobID)
		if err != nil {
			return err
		}
		byStatus := map[string]int{}
		for _, j := range queue {
			byStatus[string(j.Status)]++
		}
		if len(queue) > 0 {
			fmt.Printf("  scrape queue: %d (queued %d, running %d, completed %d, failed %d)\n",
				len(queue), byStatus["queued"], byStatus["running"], byStatus["completed"], byStatus["failed"])
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusJobID, "job", "", "research job ID (required)")
	_ = statusCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(statusCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brandscope/competitor-cli/internal/materialize"
)

var retentionJobID string

var retentionCmd = &cobra.Command{
	Use:   "retention",
	Short: "Archive stale filtered-out and rejected candidates",
	Long:  "Soft-archives FILTERED_OUT and REJECTED candidates older than the configured window. Archived candidates keep their row and can resurface on re-discovery.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		archived, err := materialize.New(st, cfg.Retention).Retention(ctx, retentionJobID)
		if err != nil {
			return err
		}
		fmt.Printf("archived %d candidates\n", archived)
		return nil
	},
}

func init() {
	retentionCmd.Flags().StringVar(&retentionJobID, "job", "", "research job ID (required)")
	_ = retentionCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(retentionCmd)
}

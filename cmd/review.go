package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brandscope/competitor-cli/internal/model"
)

var (
	reviewJobID  string
	reviewReason string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Approve or reject shortlist candidates",
}

var approveCmd = &cobra.Command{
	Use:   "approve <platform> <handle>",
	Short: "Approve a candidate; the decision survives re-runs",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setReviewState(cmd, args, model.StateApproved)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <platform> <handle>",
	Short: "Reject a candidate; the decision survives re-runs",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setReviewState(cmd, args, model.StateRejected)
	},
}

func setReviewState(cmd *cobra.Command, args []string, state model.CandidateState) error {
	ctx := cmd.Context()
	platform := model.Surface(args[0])
	handle := model.NormalizeHandle(platform, args[1])

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	reason := reviewReason
	if reason == "" {
		reason = "operator decision"
	}
	if err := st.SetCandidateState(ctx, reviewJobID, platform, handle, state, reason); err != nil {
		return err
	}
	fmt.Printf("%s/%s -> %s\n", platform, handle, state)
	return nil
}

func init() {
	reviewCmd.PersistentFlags().StringVar(&reviewJobID, "job", "", "research job ID (required)")
	reviewCmd.PersistentFlags().StringVar(&reviewReason, "reason", "", "note recorded with the decision")
	_ = reviewCmd.MarkPersistentFlagRequired("job")
	reviewCmd.AddCommand(approveCmd)
	reviewCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(reviewCmd)
}

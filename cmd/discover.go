package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/orchestrator"
	"github.com/brandscope/competitor-cli/internal/policy"
)

var (
	discoverBrandPath     string
	discoverPrecision     string
	discoverSurfaces      []string
	discoverFocus         string
	discoverWebsitePolicy string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run competitor discovery for a brand",
	Long:  "Runs the full pipeline for a brand context file: collects candidates from search and AI suggestions, verifies handles, scores relevance and persists the shortlist.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		brand, err := model.LoadBrandContext(discoverBrandPath)
		if err != nil {
			return err
		}

		req := orchestrator.Request{
			Brand:     brand,
			Precision: model.Precision(discoverPrecision),
		}
		for _, s := range discoverSurfaces {
			req.SurfaceOverride = append(req.SurfaceOverride, model.Surface(s))
		}
		if discoverFocus != "" || discoverWebsitePolicy != "" {
			req.Answer = &policy.Answer{
				Focus:         model.DiscoveryFocus(discoverFocus),
				WebsitePolicy: model.WebsitePolicy(discoverWebsitePolicy),
			}
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := orchestrator.New(*cfg, buildDeps(st)).Discover(ctx, req)
		if err != nil {
			return eris.Wrap(err, "discover")
		}

		fmt.Printf("run %s %s\n", run.ID, run.Phase)
		fmt.Printf("  discovered:          %d\n", run.Summary.CandidatesDiscovered)
		fmt.Printf("  filtered:            %d\n", run.Summary.CandidatesFiltered)
		fmt.Printf("  shortlisted:         %d\n", run.Summary.Shortlisted)
		fmt.Printf("  top picks:           %d\n", run.Summary.TopPicks)
		fmt.Printf("  profile unavailable: %d\n", run.Summary.ProfileUnavailableCount)
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverBrandPath, "brand", "", "path to brand context YAML (required)")
	discoverCmd.Flags().StringVar(&discoverPrecision, "precision", "balanced", "threshold strictness: balanced or high")
	discoverCmd.Flags().StringSliceVar(&discoverSurfaces, "surfaces", nil, "surface override, e.g. instagram,tiktok")
	discoverCmd.Flags().StringVar(&discoverFocus, "focus", "", "explicit focus: social_first, hybrid or web_first")
	discoverCmd.Flags().StringVar(&discoverWebsitePolicy, "website-policy", "", "website admission: evidence_only, fallback_only or peer_candidate")
	_ = discoverCmd.MarkFlagRequired("brand")
	rootCmd.AddCommand(discoverCmd)
}

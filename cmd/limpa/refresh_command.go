package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/pipeline"
	"github.com/duarteocarmo/limpa/internal/subscription"
)

func newRefreshCommand(cctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "refresh [feed-url]",
		Short: "Fetch new episodes and republish ad-free feeds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("provide a feed URL or use --all")
			}
			if all && len(args) > 0 {
				return fmt.Errorf("--all cannot be combined with a feed URL")
			}

			return cctx.withRunner(cmd.Context(), func(cfg *config.Config, runner *pipeline.Runner, store *subscription.Store) error {
				out := cmd.OutOrStdout()
				if all {
					result, err := runner.ProcessAll(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Refreshed %d subscription(s)", result.Refreshed)
					if result.Failed > 0 {
						fmt.Fprintf(out, ", %d failed", result.Failed)
					}
					if result.Skipped > 0 {
						fmt.Fprintf(out, ", %d already processing", result.Skipped)
					}
					fmt.Fprintln(out)
					if result.Failed > 0 {
						return fmt.Errorf("%d subscription(s) failed to refresh", result.Failed)
					}
					return nil
				}

				sub, err := store.GetByURL(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := runner.Process(cmd.Context(), sub.ID); err != nil {
					return err
				}
				fmt.Fprintf(out, "Refreshed %s\n", sub.Title)
				fmt.Fprintf(out, "Ad-free feed: %s\n", runner.FeedURL(sub))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Refresh every subscription")
	return cmd
}

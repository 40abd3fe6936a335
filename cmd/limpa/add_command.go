package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/pipeline"
	"github.com/duarteocarmo/limpa/internal/subscription"
)

func newAddCommand(cctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "add <feed-url>",
		Short: "Subscribe to a podcast feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withRunner(cmd.Context(), func(cfg *config.Config, runner *pipeline.Runner, store *subscription.Store) error {
				sub, err := runner.Register(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Subscribed to %s\n", sub.Title)
				fmt.Fprintf(out, "Ad-free feed: %s\n", runner.FeedURL(sub))
				if refresh {
					return runner.Process(cmd.Context(), sub.ID)
				}
				fmt.Fprintln(out, "Run `limpa refresh` to process the latest episodes.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Process the latest episodes immediately")
	return cmd
}

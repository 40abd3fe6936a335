package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/subscription"
)

func newRemoveCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <feed-url>",
		Short: "Unsubscribe from a podcast feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(func(cfg *config.Config, store *subscription.Store) error {
				sub, err := store.GetByURL(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), sub.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", sub.Title)
				fmt.Fprintln(cmd.OutOrStdout(), "Published objects remain in storage until removed manually.")
				return nil
			})
		},
	}
}

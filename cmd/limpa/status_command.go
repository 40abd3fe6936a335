package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/objectstore"
	"github.com/duarteocarmo/limpa/internal/subscription"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func newStatusCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show subscriptions and their refresh state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(func(cfg *config.Config, store *subscription.Store) error {
				subs, err := store.List(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(subs) == 0 {
					fmt.Fprintln(out, "No subscriptions yet. Add one with `limpa add <feed-url>`.")
					return nil
				}

				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(subs))
				for _, sub := range subs {
					refreshed := "never"
					if sub.LastRefreshedAt != nil {
						refreshed = sub.LastRefreshedAt.Local().Format("2006-01-02 15:04")
					}
					rows = append(rows, []string{
						strconv.FormatInt(sub.ID, 10),
						sub.Title,
						renderStatus(sub, colorize),
						strconv.Itoa(len(sub.ProcessedEpisodes)),
						refreshed,
						publicFeedURL(cfg, sub),
					})
				}

				fmt.Fprintln(out, renderStatusTable(rows))

				for _, sub := range subs {
					if sub.Status == subscription.StatusFailed && sub.ErrorMessage != "" {
						fmt.Fprintf(out, "%s: %s\n", sub.Title, sub.ErrorMessage)
					}
				}
				return nil
			})
		},
	}
}

func renderStatus(sub *subscription.Subscription, colorize bool) string {
	label := string(sub.Status)
	if !colorize {
		return label
	}
	switch sub.Status {
	case subscription.StatusReady:
		return ansiGreen + label + ansiReset
	case subscription.StatusProcessing:
		return ansiYellow + label + ansiReset
	case subscription.StatusFailed:
		return ansiRed + label + ansiReset
	case subscription.StatusPending:
		return ansiBlue + label + ansiReset
	default:
		return label
	}
}

// publicFeedURL mirrors the runner's feed URL resolution without requiring
// storage credentials, so status stays a read-only command.
func publicFeedURL(cfg *config.Config, sub *subscription.Subscription) string {
	key := objectstore.FeedKey(sub.URLHash)
	if base := strings.TrimRight(cfg.Store.PublicBaseURL, "/"); base != "" {
		return base + "/" + key
	}
	endpoint := strings.TrimRight(cfg.Store.Endpoint, "/")
	if endpoint == "" {
		endpoint = "https://s3.amazonaws.com"
	}
	return endpoint + "/" + cfg.Store.Bucket + "/" + key
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duarteocarmo/limpa/internal/ads"
	"github.com/duarteocarmo/limpa/internal/audio"
	"github.com/duarteocarmo/limpa/internal/deps"
	"github.com/duarteocarmo/limpa/internal/pipeline"
	"github.com/duarteocarmo/limpa/internal/transcribe"
)

func newCleanCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean <audio-file>",
		Short: "Remove ads from a local audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			// Cleaning a local file needs the transcriber and the LLM but
			// no object storage, so only those settings are checked.
			var problems []string
			if strings.TrimSpace(cfg.Transcriber.BaseURL) == "" {
				problems = append(problems, "transcriber.base_url is required")
			}
			if strings.TrimSpace(cfg.LLM.APIKey) == "" {
				problems = append(problems, "llm.api_key is required")
			}
			if len(problems) > 0 {
				return fmt.Errorf("config: %s", strings.Join(problems, "; "))
			}
			if err := deps.Verify(cfg); err != nil {
				return err
			}

			logger, err := cctx.newLogger(cfg)
			if err != nil {
				return err
			}

			scribe := transcribe.NewClient(cfg)
			extractor := ads.NewExtractor(ads.NewClient(cfg), cfg, ads.WithLogger(logger))
			cutter := audio.NewCutter(cfg, audio.WithLogger(logger))

			result, err := pipeline.Clean(cmd.Context(), scribe, extractor, cutter, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.NothingCut {
				fmt.Fprintln(out, "No ads detected; file left unchanged")
				return nil
			}
			fmt.Fprintf(out, "Removed %d ad(s), %.1f seconds\n", len(result.Ads), result.RemovedSeconds)
			for _, ad := range result.Ads {
				fmt.Fprintf(out, "  %.1fs-%.1fs %s\n", ad.StartTimestampSeconds, ad.EndTimestampSeconds, ad.ShortSummary)
			}
			fmt.Fprintf(out, "Wrote %s\n", result.OutputPath)
			return nil
		},
	}
}

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/logging"
	"github.com/duarteocarmo/limpa/internal/segment"
	"github.com/duarteocarmo/limpa/internal/services"
)

// CommandRunner executes an external tool and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Cutter removes time spans from audio files by re-encoding the kept
// intervals with ffmpeg.
type Cutter struct {
	ffmpegBinary  string
	ffprobeBinary string
	commandRunner CommandRunner
	logger        *slog.Logger
}

// Option customizes the cutter.
type Option func(*Cutter)

// WithCommandRunner sets a custom command runner (for testing).
func WithCommandRunner(runner CommandRunner) Option {
	return func(c *Cutter) {
		if runner != nil {
			c.commandRunner = runner
		}
	}
}

// WithLogger attaches a logger to the cutter.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cutter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCutter constructs a cutter using the configured tool binaries.
func NewCutter(cfg *config.Config, opts ...Option) *Cutter {
	cutter := &Cutter{
		ffmpegBinary:  cfg.FFmpegBinary(),
		ffprobeBinary: cfg.FFprobeBinary(),
		commandRunner: runCommand,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(cutter)
	}
	return cutter
}

// CutResult describes the outcome of an ad removal pass.
type CutResult struct {
	// OutputPath is the cleaned file, or the untouched source when nothing
	// was cut.
	OutputPath string
	// NothingCut is set when there were no ad spans to remove, or removing
	// them would leave no audio at all.
	NothingCut bool
	// RemovedSeconds is the total duration cut from the source.
	RemovedSeconds float64
}

// RemoveAds cuts the given ad spans out of the source file and writes the
// result to outputPath. When there is nothing to remove the source file is
// returned untouched.
func (c *Cutter) RemoveAds(ctx context.Context, sourcePath string, adSpans []segment.Interval, outputPath string) (CutResult, error) {
	if len(adSpans) == 0 {
		c.logger.InfoContext(ctx, "no ads to remove, keeping original file", logging.String("source", sourcePath))
		return CutResult{OutputPath: sourcePath, NothingCut: true}, nil
	}

	totalDuration, err := c.Duration(ctx, sourcePath)
	if err != nil {
		return CutResult{}, err
	}

	keep := segment.Plan(totalDuration, adSpans)
	if len(keep) == 0 {
		c.logger.WarnContext(ctx, "no content left after removing ads, keeping original file",
			logging.String("source", sourcePath))
		return CutResult{OutputPath: sourcePath, NothingCut: true}, nil
	}

	args := buildCutArgs(c.ffmpegBinary, sourcePath, keep, outputPath)
	if _, err := c.commandRunner(ctx, args[0], args[1:]...); err != nil {
		return CutResult{}, services.Wrap(services.ErrPipeline, "cut", "ffmpeg", sourcePath, err)
	}

	removed := totalDuration - segment.TotalLength(keep)
	c.logger.InfoContext(ctx, "removed ads from audio",
		logging.Int("ad_spans", len(adSpans)),
		logging.Float64("removed_seconds", removed),
		logging.String("output", outputPath))
	return CutResult{OutputPath: outputPath, RemovedSeconds: removed}, nil
}

// buildCutArgs assembles the full ffmpeg invocation: each kept interval is
// trimmed, re-stamped to start at zero, and the pieces are concatenated into
// a single audio stream.
func buildCutArgs(ffmpegBinary, sourcePath string, keep []segment.Interval, outputPath string) []string {
	var filter strings.Builder
	for i, interval := range keep {
		fmt.Fprintf(&filter, "[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[a%d];",
			formatSeconds(interval.Start), formatSeconds(interval.End), i)
	}
	for i := range keep {
		fmt.Fprintf(&filter, "[a%d]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[outa]", len(keep))

	return []string{
		ffmpegBinary,
		"-i", sourcePath,
		"-filter_complex", filter.String(),
		"-map", "[outa]",
		"-y",
		outputPath,
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return []byte(stdout.String()), nil
}

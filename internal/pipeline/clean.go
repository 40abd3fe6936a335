package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/duarteocarmo/limpa/internal/ads"
	"github.com/duarteocarmo/limpa/internal/segment"
)

// CleanResult describes a one-off local cleaning run.
type CleanResult struct {
	// OutputPath is the cleaned file, or the source path when no ads were
	// found.
	OutputPath string
	// Ads lists the detected advertisement spans.
	Ads []ads.Ad
	// Readable is the transcript form the detection ran against.
	Readable string
	// NothingCut is set when the source was left untouched.
	NothingCut bool
	// RemovedSeconds is the total duration cut from the source.
	RemovedSeconds float64
}

// CleanFile transcribes a local audio file, detects ads, and writes the
// cleaned audio next to the source as "<name>_clean<ext>". The subscription
// machinery is not involved.
func (r *Runner) CleanFile(ctx context.Context, path string) (CleanResult, error) {
	return Clean(ctx, r.scribe, r.extract, r.cutter, path)
}

// Clean is the standalone form of CleanFile for callers that have no
// subscription store or object store configured.
func Clean(ctx context.Context, scribe Transcriber, extractor AdExtractor, cutter AudioCutter, path string) (CleanResult, error) {
	var result CleanResult

	transcripts, err := scribe.TranscribeBatch(ctx, []string{path})
	if err != nil {
		return result, err
	}
	result.Readable = transcripts[0].Readable()

	result.Ads, err = extractor.Extract(ctx, result.Readable)
	if err != nil {
		return result, err
	}

	spans := make([]segment.Interval, len(result.Ads))
	for i, ad := range result.Ads {
		spans[i] = segment.Interval{Start: ad.StartTimestampSeconds, End: ad.EndTimestampSeconds}
	}

	ext := filepath.Ext(path)
	outputPath := strings.TrimSuffix(path, ext) + "_clean" + ext
	cut, err := cutter.RemoveAds(ctx, path, spans, outputPath)
	if err != nil {
		return result, err
	}
	result.OutputPath = cut.OutputPath
	result.NothingCut = cut.NothingCut
	result.RemovedSeconds = cut.RemovedSeconds
	return result, nil
}

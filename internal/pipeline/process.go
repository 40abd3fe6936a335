package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duarteocarmo/limpa/internal/ads"
	"github.com/duarteocarmo/limpa/internal/feed"
	"github.com/duarteocarmo/limpa/internal/logging"
	"github.com/duarteocarmo/limpa/internal/objectstore"
	"github.com/duarteocarmo/limpa/internal/segment"
	"github.com/duarteocarmo/limpa/internal/services"
	"github.com/duarteocarmo/limpa/internal/subscription"
)

// ErrAlreadyProcessing reports a refresh attempt on a subscription that is
// mid-run.
var ErrAlreadyProcessing = errors.New("subscription is already processing")

// Process refreshes one subscription: discover the latest episodes, clean the
// unprocessed ones, and republish the rewritten feed. Episode records are
// persisted as each episode completes, so a failed run keeps the work that
// finished before the failure.
func (r *Runner) Process(ctx context.Context, id int64) error {
	sub, err := r.store.GetByID(ctx, id)
	if err != nil {
		return services.Wrap(services.ErrPipeline, "pipeline", "load", fmt.Sprintf("subscription %d", id), err)
	}
	if sub.IsProcessing() {
		return fmt.Errorf("%s: %w", sub.Title, ErrAlreadyProcessing)
	}

	ctx = services.WithSubscriptionID(ctx, sub.ID)
	logger := r.logger.With(logging.Int64(logging.FieldSubscriptionID, sub.ID))

	now := time.Now().UTC()
	sub.Status = subscription.StatusProcessing
	sub.LastRefreshedAt = &now
	sub.ErrorMessage = ""
	if sub.ProcessedEpisodes == nil {
		sub.ProcessedEpisodes = make(map[string]subscription.ProcessedEpisode)
	}
	if err := r.store.Update(ctx, sub); err != nil {
		return services.Wrap(services.ErrPipeline, "pipeline", "mark processing", sub.URL, err)
	}

	processed, err := r.refresh(ctx, logger, sub)
	if err != nil {
		sub.Status = subscription.StatusFailed
		sub.ErrorMessage = err.Error()
		if updateErr := r.store.Update(ctx, sub); updateErr != nil {
			logger.ErrorContext(ctx, "failed to record failure", logging.Error(updateErr))
		}
		if notifyErr := r.notifier.NotifySubscriptionFailed(ctx, sub.Title, err); notifyErr != nil {
			logger.WarnContext(ctx, "failure notification not delivered", logging.Error(notifyErr))
		}
		return services.Wrap(services.ErrPipeline, "pipeline", "process", sub.URL, err)
	}

	sub.Title = feed.TagTitle(r.cfg.Feed.AdFreeTag, sub.Title)
	sub.Status = subscription.StatusReady
	sub.ErrorMessage = ""
	if err := r.store.Update(ctx, sub); err != nil {
		return services.Wrap(services.ErrPipeline, "pipeline", "mark ready", sub.URL, err)
	}

	// The feed is republished only after the ready state is durable, so a
	// republish failure leaves the subscription ready with a stale published
	// feed rather than failed.
	if processed > 0 {
		if err := r.republish(ctx, sub); err != nil {
			logger.ErrorContext(ctx, "republish failed; published feed is stale", logging.Error(err))
			return services.Wrap(services.ErrPipeline, "pipeline", "republish", sub.URL, err)
		}
	}

	if notifyErr := r.notifier.NotifySubscriptionReady(ctx, sub.Title, processed); notifyErr != nil {
		logger.WarnContext(ctx, "ready notification not delivered", logging.Error(notifyErr))
	}
	logger.InfoContext(ctx, "subscription refreshed", logging.Int("new_episodes", processed))
	return nil
}

// refresh runs the per-episode work and returns how many new episodes were
// processed.
func (r *Runner) refresh(ctx context.Context, logger *slog.Logger, sub *subscription.Subscription) (int, error) {
	episodes, err := r.feeds.LatestEpisodes(ctx, sub.URL, r.cfg.Feed.EpisodesPerRefresh)
	if err != nil {
		return 0, err
	}

	fresh := make([]feed.Episode, 0, len(episodes))
	for _, ep := range episodes {
		if !sub.Processed(ep.GUID) {
			fresh = append(fresh, ep)
		}
	}
	logger.InfoContext(ctx, "discovered episodes",
		logging.Int("scanned", len(episodes)),
		logging.Int("new", len(fresh)))
	if len(fresh) == 0 {
		return 0, nil
	}

	workDir := filepath.Join(r.cfg.Paths.WorkDir, "refresh-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return 0, services.Wrap(services.ErrPipeline, "refresh", "workdir", workDir, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.WarnContext(ctx, "work directory not removed",
				logging.String("path", workDir), logging.Error(err))
		}
	}()

	paths, err := r.downloadEpisodes(ctx, logger, fresh, workDir)
	if err != nil {
		return 0, err
	}

	transcripts, err := r.scribe.TranscribeBatch(ctx, paths)
	if err != nil {
		return 0, err
	}

	for i, ep := range fresh {
		epCtx := services.WithEpisodeGUID(ctx, ep.GUID)
		record, err := r.processEpisode(epCtx, sub, ep, paths[i], transcripts[i].Readable(), workDir, i)
		if err != nil {
			return 0, err
		}
		sub.ProcessedEpisodes[ep.GUID] = record
		if err := r.store.Update(ctx, sub); err != nil {
			return 0, services.Wrap(services.ErrPipeline, "refresh", "persist episode", ep.GUID, err)
		}
		logger.InfoContext(epCtx, "episode processed",
			logging.String(logging.FieldEpisodeGUID, ep.GUID),
			logging.String("published_url", record.PublishedURL))
	}

	return len(fresh), nil
}

func (r *Runner) downloadEpisodes(ctx context.Context, logger *slog.Logger, episodes []feed.Episode, workDir string) ([]string, error) {
	paths := make([]string, len(episodes))
	for i, ep := range episodes {
		data, err := r.download.Get(ctx, ep.AudioURL)
		if err != nil {
			return nil, services.Wrap(services.ErrPipeline, "download", "episode", ep.AudioURL, err)
		}
		path := filepath.Join(workDir, fmt.Sprintf("episode_%02d.mp3", i))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, services.Wrap(services.ErrPipeline, "download", "write", path, err)
		}
		paths[i] = path
		logger.DebugContext(ctx, "episode downloaded",
			logging.String(logging.FieldEpisodeGUID, ep.GUID),
			logging.Int("bytes", len(data)))
	}
	return paths, nil
}

// processEpisode uploads the transcript and extracts ads concurrently, then
// cuts and publishes the cleaned audio.
func (r *Runner) processEpisode(ctx context.Context, sub *subscription.Subscription, ep feed.Episode, sourcePath, readable, workDir string, index int) (subscription.ProcessedEpisode, error) {
	var empty subscription.ProcessedEpisode

	transcriptKey := objectstore.TranscriptKey(sub.URLHash, ep.GUID)
	var (
		wg         sync.WaitGroup
		uploadErr  error
		found      []ads.Ad
		extractErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		uploadErr = r.objects.Put(ctx, transcriptKey, objectstore.ContentTypeTranscript, strings.NewReader(readable))
	}()
	go func() {
		defer wg.Done()
		found, extractErr = r.extract.Extract(ctx, readable)
	}()
	wg.Wait()
	if uploadErr != nil {
		return empty, uploadErr
	}
	if extractErr != nil {
		return empty, extractErr
	}

	spans := make([]segment.Interval, len(found))
	for i, ad := range found {
		spans[i] = segment.Interval{Start: ad.StartTimestampSeconds, End: ad.EndTimestampSeconds}
	}

	cleanPath := filepath.Join(workDir, fmt.Sprintf("clean_%02d.mp3", index))
	result, err := r.cutter.RemoveAds(ctx, sourcePath, spans, cleanPath)
	if err != nil {
		return empty, err
	}

	audioData, err := os.ReadFile(result.OutputPath)
	if err != nil {
		return empty, services.Wrap(services.ErrPipeline, "publish", "read clean audio", result.OutputPath, err)
	}
	episodeKey := objectstore.EpisodeKey(sub.URLHash, ep.GUID)
	if err := r.objects.Put(ctx, episodeKey, objectstore.ContentTypeAudio, bytes.NewReader(audioData)); err != nil {
		return empty, err
	}

	return subscription.ProcessedEpisode{
		OriginalURL:   ep.AudioURL,
		PublishedURL:  r.objects.URL(episodeKey),
		TranscriptURL: r.objects.URL(transcriptKey),
		AdSummary:     summarizeAds(found, result.RemovedSeconds),
	}, nil
}

// republish rewrites the origin feed against the full processed-episode
// history and uploads the document.
func (r *Runner) republish(ctx context.Context, sub *subscription.Subscription) error {
	replacements := make([]feed.Replacement, 0, len(sub.ProcessedEpisodes))
	for _, record := range sub.ProcessedEpisodes {
		replacements = append(replacements, feed.Replacement{
			OriginalURL:  record.OriginalURL,
			PublishedURL: record.PublishedURL,
		})
	}
	doc, err := r.repub.Rewrite(ctx, sub.URL, replacements)
	if err != nil {
		return err
	}
	return r.objects.Put(ctx, objectstore.FeedKey(sub.URLHash), objectstore.ContentTypeFeed, bytes.NewReader(doc))
}

func summarizeAds(found []ads.Ad, removedSeconds float64) string {
	if len(found) == 0 {
		return "no ads detected"
	}
	summaries := make([]string, 0, len(found))
	for _, ad := range found {
		if s := strings.TrimSpace(ad.ShortSummary); s != "" {
			summaries = append(summaries, s)
		}
	}
	out := fmt.Sprintf("%d ad(s), %.1fs removed", len(found), removedSeconds)
	if len(summaries) > 0 {
		out += ": " + strings.Join(summaries, "; ")
	}
	return out
}

// SweepResult summarizes a refresh pass over all subscriptions.
type SweepResult struct {
	Refreshed int
	Failed    int
	Skipped   int
}

// ProcessAll refreshes every subscription sequentially, bounding each run
// with the configured refresh timeout. Failures are recorded per
// subscription and do not stop the sweep.
func (r *Runner) ProcessAll(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	subs, err := r.store.List(ctx)
	if err != nil {
		return result, services.Wrap(services.ErrPipeline, "sweep", "list", "", err)
	}

	started := time.Now()
	for _, sub := range subs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		runCtx := ctx
		cancel := func() {}
		if r.cfg.Workflow.RefreshTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.Workflow.RefreshTimeout)*time.Second)
		}
		err := r.Process(runCtx, sub.ID)
		cancel()
		switch {
		case err == nil:
			result.Refreshed++
		case errors.Is(err, ErrAlreadyProcessing):
			result.Skipped++
		default:
			result.Failed++
			r.logger.ErrorContext(ctx, "subscription refresh failed",
				logging.Int64(logging.FieldSubscriptionID, sub.ID),
				logging.Error(err))
		}
	}

	if len(subs) > 0 {
		if notifyErr := r.notifier.NotifySweepCompleted(ctx, result.Refreshed, result.Failed, time.Since(started)); notifyErr != nil {
			r.logger.WarnContext(ctx, "sweep notification not delivered", logging.Error(notifyErr))
		}
	}
	return result, nil
}

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/duarteocarmo/limpa/internal/ads"
	"github.com/duarteocarmo/limpa/internal/audio"
	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/feed"
	"github.com/duarteocarmo/limpa/internal/logging"
	"github.com/duarteocarmo/limpa/internal/notifications"
	"github.com/duarteocarmo/limpa/internal/objectstore"
	"github.com/duarteocarmo/limpa/internal/segment"
	"github.com/duarteocarmo/limpa/internal/subscription"
	"github.com/duarteocarmo/limpa/internal/transcribe"
	"github.com/duarteocarmo/limpa/internal/webget"
)

// FeedSource validates feeds and discovers their latest episodes.
type FeedSource interface {
	FetchValidate(ctx context.Context, url string) (feed.Metadata, error)
	LatestEpisodes(ctx context.Context, url string, count int) ([]feed.Episode, error)
}

// Republisher produces the rewritten feed document for publication.
type Republisher interface {
	Rewrite(ctx context.Context, url string, replacements []feed.Replacement) ([]byte, error)
}

// Downloader fetches episode audio bytes.
type Downloader interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Transcriber turns a batch of audio files into transcripts, one per file, in
// input order.
type Transcriber interface {
	TranscribeBatch(ctx context.Context, paths []string) ([]transcribe.Transcript, error)
}

// AdExtractor detects advertisement spans in a readable transcript.
type AdExtractor interface {
	Extract(ctx context.Context, readableTranscript string) ([]ads.Ad, error)
}

// AudioCutter removes ad spans from an audio file.
type AudioCutter interface {
	RemoveAds(ctx context.Context, sourcePath string, adSpans []segment.Interval, outputPath string) (audio.CutResult, error)
	Duration(ctx context.Context, path string) (float64, error)
}

// Deps bundles everything the runner needs.
type Deps struct {
	Store       *subscription.Store
	Feeds       FeedSource
	Republisher Republisher
	Downloader  Downloader
	Transcriber Transcriber
	Extractor   AdExtractor
	Cutter      AudioCutter
	Objects     objectstore.Store
	Notifier    notifications.Service
	Logger      *slog.Logger
}

// Runner drives subscriptions through the refresh state machine.
type Runner struct {
	cfg      *config.Config
	store    *subscription.Store
	feeds    FeedSource
	repub    Republisher
	download Downloader
	scribe   Transcriber
	extract  AdExtractor
	cutter   AudioCutter
	objects  objectstore.Store
	notifier notifications.Service
	logger   *slog.Logger
}

// NewRunner constructs a runner, validating that all required dependencies
// are present.
func NewRunner(cfg *config.Config, deps Deps) (*Runner, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("pipeline: config required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: subscription store required")
	case deps.Feeds == nil:
		return nil, errors.New("pipeline: feed source required")
	case deps.Republisher == nil:
		return nil, errors.New("pipeline: republisher required")
	case deps.Downloader == nil:
		return nil, errors.New("pipeline: downloader required")
	case deps.Transcriber == nil:
		return nil, errors.New("pipeline: transcriber required")
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: ad extractor required")
	case deps.Cutter == nil:
		return nil, errors.New("pipeline: audio cutter required")
	case deps.Objects == nil:
		return nil, errors.New("pipeline: object store required")
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		store:    deps.Store,
		feeds:    deps.Feeds,
		repub:    deps.Republisher,
		download: deps.Downloader,
		scribe:   deps.Transcriber,
		extract:  deps.Extractor,
		cutter:   deps.Cutter,
		objects:  deps.Objects,
		notifier: deps.Notifier,
		logger:   deps.Logger,
	}, nil
}

// ProductionDeps wires the real service implementations for the CLI and the
// daemon. The caller supplies the store so its lifecycle stays with the
// process.
func ProductionDeps(ctx context.Context, cfg *config.Config, store *subscription.Store, logger *slog.Logger) (Deps, error) {
	objects, err := objectstore.NewS3(ctx, cfg)
	if err != nil {
		return Deps{}, err
	}

	fetcher := feed.NewFetcher(cfg)
	downloadTimeout := time.Duration(cfg.Workflow.DownloadTimeout) * time.Second

	return Deps{
		Store:       store,
		Feeds:       fetcher,
		Republisher: feed.NewRewriter(fetcher, cfg.Feed.AdFreeTag),
		Downloader:  webget.New(cfg.Feed.UserAgent, downloadTimeout),
		Transcriber: transcribe.NewClient(cfg),
		Extractor:   ads.NewExtractor(ads.NewClient(cfg), cfg, ads.WithLogger(logger)),
		Cutter:      audio.NewCutter(cfg, audio.WithLogger(logger)),
		Objects:     objects,
		Notifier:    notifications.NewService(cfg),
		Logger:      logger,
	}, nil
}

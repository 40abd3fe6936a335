package daemon

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/duarteocarmo/limpa/internal/ads"
	"github.com/duarteocarmo/limpa/internal/audio"
	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/feed"
	"github.com/duarteocarmo/limpa/internal/logging"
	"github.com/duarteocarmo/limpa/internal/objectstore"
	"github.com/duarteocarmo/limpa/internal/pipeline"
	"github.com/duarteocarmo/limpa/internal/segment"
	"github.com/duarteocarmo/limpa/internal/subscription"
	"github.com/duarteocarmo/limpa/internal/testsupport"
	"github.com/duarteocarmo/limpa/internal/transcribe"
)

type stubFeeds struct{}

func (stubFeeds) FetchValidate(context.Context, string) (feed.Metadata, error) {
	return feed.Metadata{}, nil
}

func (stubFeeds) LatestEpisodes(context.Context, string, int) ([]feed.Episode, error) {
	return nil, nil
}

type stubRepublisher struct{}

func (stubRepublisher) Rewrite(context.Context, string, []feed.Replacement) ([]byte, error) {
	return []byte("<rss/>"), nil
}

type stubDownloader struct{}

func (stubDownloader) Get(context.Context, string) ([]byte, error) { return nil, nil }

type stubTranscriber struct{}

func (stubTranscriber) TranscribeBatch(context.Context, []string) ([]transcribe.Transcript, error) {
	return nil, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, string) ([]ads.Ad, error) { return nil, nil }

type stubCutter struct{}

func (stubCutter) RemoveAds(context.Context, string, []segment.Interval, string) (audio.CutResult, error) {
	return audio.CutResult{}, nil
}

func (stubCutter) Duration(context.Context, string) (float64, error) { return 0, nil }

func newTestDaemon(t *testing.T) (*Daemon, *config.Config, *subscription.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Workflow.RefreshInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	runner, err := pipeline.NewRunner(cfg, pipeline.Deps{
		Store:       store,
		Feeds:       stubFeeds{},
		Republisher: stubRepublisher{},
		Downloader:  stubDownloader{},
		Transcriber: stubTranscriber{},
		Extractor:   stubExtractor{},
		Cutter:      stubCutter{},
		Objects:     objectstore.NewMemory("https://store.test/bucket"),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	d, err := New(cfg, store, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, cfg, store
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestStartStop(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	t.Cleanup(d.Stop)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	d.Stop()
	if d.Running() {
		t.Fatal("expected daemon to report stopped")
	}
}

func TestStartRejectsSecondInstance(t *testing.T) {
	first, cfg, store := newTestDaemon(t)
	t.Cleanup(first.Stop)

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	runner, err := pipeline.NewRunner(cfg, pipeline.Deps{
		Store:       store,
		Feeds:       stubFeeds{},
		Republisher: stubRepublisher{},
		Downloader:  stubDownloader{},
		Transcriber: stubTranscriber{},
		Extractor:   stubExtractor{},
		Cutter:      stubCutter{},
		Objects:     objectstore.NewMemory("https://store.test/bucket"),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	second, err := New(cfg, store, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = second.Start(context.Background())
	if err == nil {
		second.Stop()
		t.Fatal("expected second instance to be rejected")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStartRecoversInterruptedRefreshes(t *testing.T) {
	d, _, store := newTestDaemon(t)
	t.Cleanup(d.Stop)

	sub := testsupport.NewSubscription(t, store, "https://example.com/feed.xml", "Example Show")
	sub.Status = subscription.StatusProcessing
	if err := store.Update(context.Background(), sub); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The stuck subscription is reset to failed during Start, then retried
	// by the first sweep; with the stub feed it ends up ready.
	deadline := time.Now().Add(5 * time.Second)
	for {
		current, err := store.GetByID(context.Background(), sub.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if current.Status == subscription.StatusReady {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscription never recovered, status = %q (error %q)", current.Status, current.ErrorMessage)
		}
		time.Sleep(10 * time.Millisecond)
	}
	d.Stop()
}

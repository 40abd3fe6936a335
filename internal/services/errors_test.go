package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/duarteocarmo/limpa/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTranscription, "transcribe", "batch", "upstream", base)
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	want := "transcription error: transcribe: batch: upstream: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsToPipelineMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrPipeline) {
		t.Fatalf("expected pipeline marker, got %v", err)
	}
	if err.Error() != "pipeline error: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestUserFacing(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate", services.Wrap(services.ErrDuplicate, "register", "", "", nil), true},
		{"configuration", services.ErrConfiguration, true},
		{"feed", services.Wrap(services.ErrFeed, "refresh", "fetch", "", nil), false},
		{"storage", services.ErrStorage, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.UserFacing(tc.err); got != tc.want {
				t.Fatalf("UserFacing(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSubscriptionID(ctx, 7)
	ctx = services.WithEpisodeGUID(ctx, "guid-1")
	ctx = services.WithStage(ctx, "extract")

	if id, ok := services.SubscriptionIDFromContext(ctx); !ok || id != 7 {
		t.Fatalf("unexpected subscription id: %v %v", id, ok)
	}
	if guid, ok := services.EpisodeGUIDFromContext(ctx); !ok || guid != "guid-1" {
		t.Fatalf("unexpected guid: %v %v", guid, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "extract" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
}

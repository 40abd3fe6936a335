package objectstore

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestKeys(t *testing.T) {
	urlHash := "deadbeef"
	if got := FeedKey(urlHash); got != "deadbeef/feed.xml" {
		t.Fatalf("FeedKey = %q", got)
	}
	// sha256("guid-a")
	const guidHash = "2b13a8de1741fb778d7e733e7a888088cb578d22e5ec6d40e0a88f82d4829cbd"
	if got := EpisodeKey(urlHash, "guid-a"); got != "deadbeef/episodes/"+guidHash+".mp3" {
		t.Fatalf("EpisodeKey = %q", got)
	}
	if got := TranscriptKey(urlHash, "guid-a"); got != "deadbeef/transcripts/"+guidHash+".txt" {
		t.Fatalf("TranscriptKey = %q", got)
	}
}

func TestKeysAreDeterministic(t *testing.T) {
	if EpisodeKey("h", "guid") != EpisodeKey("h", "guid") {
		t.Fatal("EpisodeKey not deterministic")
	}
	if EpisodeKey("h", "guid-a") == EpisodeKey("h", "guid-b") {
		t.Fatal("distinct GUIDs must map to distinct keys")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory("https://store.test/bucket")

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Put(context.Background(), "a/feed.xml", ContentTypeFeed, bytes.NewReader([]byte("<rss/>"))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := store.Get(context.Background(), "a/feed.xml")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "<rss/>" {
		t.Fatalf("data = %q", data)
	}
	if got := store.ContentType("a/feed.xml"); got != ContentTypeFeed {
		t.Fatalf("content type = %q", got)
	}
	if got := store.URL("a/feed.xml"); got != "https://store.test/bucket/a/feed.xml" {
		t.Fatalf("URL = %q", got)
	}
}

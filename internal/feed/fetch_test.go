package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/duarteocarmo/limpa/internal/services"
	"github.com/duarteocarmo/limpa/internal/testsupport"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Show</title>
    <link>https://example.com</link>
    <item>
      <title>Episode A</title>
      <guid>guid-a</guid>
      <pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate>
      <enclosure url="https://cdn.example.com/a.mp3" type="audio/mpeg" length="1"/>
    </item>
    <item>
      <title>Episode B</title>
      <guid>guid-b</guid>
      <pubDate>Mon, 01 Jan 2024 10:00:00 +0000</pubDate>
      <enclosure url="https://cdn.example.com/b.mp3" type="audio/mpeg" length="1"/>
    </item>
    <item>
      <title>Episode C no date</title>
      <enclosure url="https://cdn.example.com/c.mp3" type="audio/mpeg" length="1"/>
    </item>
    <item>
      <title>Episode D no audio</title>
      <guid>guid-d</guid>
      <pubDate>Wed, 03 Jan 2024 10:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	return NewFetcher(testsupport.NewConfig(t))
}

func TestFetchValidate(t *testing.T) {
	srv := serveFeed(t, sampleRSS)
	meta, err := newTestFetcher(t).FetchValidate(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchValidate: %v", err)
	}
	if meta.Title != "Example Show" {
		t.Fatalf("title = %q", meta.Title)
	}
	if meta.EpisodeCount != 4 {
		t.Fatalf("episode count = %d", meta.EpisodeCount)
	}
	if !strings.Contains(string(meta.Raw), "Episode A") {
		t.Fatal("raw document not preserved")
	}
}

func TestFetchValidateRejectsInvalidFeeds(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not xml", "this is not a feed"},
		{"no title", `<rss version="2.0"><channel><item><title>x</title></item></channel></rss>`},
		{"no entries", `<rss version="2.0"><channel><title>Empty</title></channel></rss>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := serveFeed(t, tc.body)
			_, err := newTestFetcher(t).FetchValidate(context.Background(), srv.URL)
			if !errors.Is(err, services.ErrFeed) {
				t.Fatalf("expected ErrFeed, got %v", err)
			}
		})
	}
}

func TestFetchRetriesForbiddenWithBrowserIdentity(t *testing.T) {
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		if !strings.Contains(r.Header.Get("User-Agent"), "Mozilla") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	meta, err := newTestFetcher(t).FetchValidate(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchValidate: %v", err)
	}
	if meta.Title != "Example Show" {
		t.Fatalf("title = %q", meta.Title)
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(agents))
	}
	if strings.Contains(agents[0], "Mozilla") {
		t.Fatalf("first attempt should identify honestly, used %q", agents[0])
	}
	if !strings.Contains(agents[1], "Mozilla") {
		t.Fatalf("second attempt should identify as a browser, used %q", agents[1])
	}
}

func TestFetchDoesNotSpoofOnOtherStatuses(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).FetchValidate(context.Background(), srv.URL)
	if !errors.Is(err, services.ErrFeed) {
		t.Fatalf("expected ErrFeed, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
}

func TestLatestEpisodesSortsAndLimits(t *testing.T) {
	srv := serveFeed(t, sampleRSS)
	episodes, err := newTestFetcher(t).LatestEpisodes(context.Background(), srv.URL, 2)
	if err != nil {
		t.Fatalf("LatestEpisodes: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(episodes))
	}
	if episodes[0].GUID != "guid-a" || episodes[1].GUID != "guid-b" {
		t.Fatalf("unexpected order: %s, %s", episodes[0].GUID, episodes[1].GUID)
	}
}

func TestLatestEpisodesGUIDFallsBackToEnclosureURL(t *testing.T) {
	srv := serveFeed(t, sampleRSS)
	episodes, err := newTestFetcher(t).LatestEpisodes(context.Background(), srv.URL, 0)
	if err != nil {
		t.Fatalf("LatestEpisodes: %v", err)
	}
	// Episode D has no audio URL and is skipped entirely.
	if len(episodes) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(episodes))
	}
	last := episodes[len(episodes)-1]
	if last.GUID != "https://cdn.example.com/c.mp3" {
		t.Fatalf("expected enclosure URL fallback GUID, got %q", last.GUID)
	}
	if !last.Published.IsZero() {
		t.Fatalf("expected zero publish time, got %v", last.Published)
	}
}

func TestLatestEpisodesPrefersAudioEnclosure(t *testing.T) {
	body := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
  <item>
    <title>Mixed</title>
    <guid>m</guid>
    <enclosure url="https://cdn.example.com/cover.jpg" type="image/jpeg" length="1"/>
    <enclosure url="https://cdn.example.com/m.mp3" type="audio/mpeg" length="1"/>
  </item>
</channel></rss>`
	srv := serveFeed(t, body)
	episodes, err := newTestFetcher(t).LatestEpisodes(context.Background(), srv.URL, 0)
	if err != nil {
		t.Fatalf("LatestEpisodes: %v", err)
	}
	if len(episodes) != 1 || episodes[0].AudioURL != "https://cdn.example.com/m.mp3" {
		t.Fatalf("unexpected episodes: %+v", episodes)
	}
}

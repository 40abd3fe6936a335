package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/services"
)

// Metadata describes a validated origin feed.
type Metadata struct {
	Title        string
	EpisodeCount int
	Raw          []byte
}

// Episode is one discoverable entry of an origin feed. Episodes are ephemeral;
// their processed state lives on the subscription keyed by GUID.
type Episode struct {
	GUID      string
	Title     string
	AudioURL  string
	Published time.Time
}

// Fetcher retrieves and parses origin feeds.
type Fetcher struct {
	httpClient       *http.Client
	userAgent        string
	browserUserAgent string
}

// Option customizes the fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// NewFetcher constructs a feed fetcher from configuration.
func NewFetcher(cfg *config.Config, opts ...Option) *Fetcher {
	fetcher := &Fetcher{
		httpClient:       &http.Client{Timeout: time.Duration(cfg.Feed.FetchTimeout) * time.Second},
		userAgent:        cfg.Feed.UserAgent,
		browserUserAgent: cfg.Feed.BrowserUserAgent,
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// FetchValidate downloads and validates an origin feed. The raw document is
// returned untouched so it can be republished before any episode processing.
func (f *Fetcher) FetchValidate(ctx context.Context, url string) (Metadata, error) {
	raw, err := f.fetchRaw(ctx, url)
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrFeed, "feed", "fetch", url, err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrFeed, "feed", "parse", url, err)
	}
	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		return Metadata{}, services.Wrap(services.ErrFeed, "feed", "validate", "feed has no title", nil)
	}
	if len(parsed.Items) == 0 {
		return Metadata{}, services.Wrap(services.ErrFeed, "feed", "validate", "feed has no episodes", nil)
	}

	return Metadata{Title: title, EpisodeCount: len(parsed.Items), Raw: raw}, nil
}

// LatestEpisodes fetches the feed and returns up to count episodes sorted by
// publish time descending. Entries without a resolvable audio enclosure are
// skipped; entries without a parsable publish time sort last.
func (f *Fetcher) LatestEpisodes(ctx context.Context, url string, count int) ([]Episode, error) {
	raw, err := f.fetchRaw(ctx, url)
	if err != nil {
		return nil, services.Wrap(services.ErrFeed, "feed", "fetch", url, err)
	}
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, services.Wrap(services.ErrFeed, "feed", "parse", url, err)
	}

	episodes := make([]Episode, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		audioURL := resolveAudioURL(item)
		if audioURL == "" {
			continue
		}
		guid := strings.TrimSpace(item.GUID)
		if guid == "" {
			guid = audioURL
		}
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}
		episodes = append(episodes, Episode{
			GUID:      guid,
			Title:     strings.TrimSpace(item.Title),
			AudioURL:  audioURL,
			Published: published,
		})
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].Published.After(episodes[j].Published)
	})
	if count > 0 && len(episodes) > count {
		episodes = episodes[:count]
	}
	return episodes, nil
}

// resolveAudioURL picks an enclosure in priority order: an audio-typed
// enclosure first, then any enclosure with a URL.
func resolveAudioURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(enc.Type)), "audio/") && strings.TrimSpace(enc.URL) != "" {
			return strings.TrimSpace(enc.URL)
		}
	}
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if u := strings.TrimSpace(enc.URL); u != "" {
			return u
		}
	}
	return ""
}

// fetchRaw downloads a feed document with the two-tier identity policy: the
// first attempt identifies honestly; a 403 is retried once with a browser
// user agent before failing.
func (f *Fetcher) fetchRaw(ctx context.Context, url string) ([]byte, error) {
	body, status, err := f.get(ctx, url, f.userAgent)
	if err != nil {
		return nil, err
	}
	if status == http.StatusForbidden {
		body, status, err = f.get(ctx, url, f.browserUserAgent)
		if err != nil {
			return nil, err
		}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("http %d", status)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url, userAgent string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

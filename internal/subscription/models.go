package subscription

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Status represents the lifecycle of a subscription.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusReady,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ProcessedEpisode records where a cleaned episode and its artifacts live.
type ProcessedEpisode struct {
	OriginalURL   string `json:"original_url"`
	PublishedURL  string `json:"published_url"`
	TranscriptURL string `json:"transcript_url"`
	AdSummary     string `json:"ad_summary"`
}

// Subscription is a registered podcast feed and its processing state.
//
// ProcessedEpisodes maps episode GUIDs to their processing records. The map
// only ever gains entries; reruns skip GUIDs already present.
type Subscription struct {
	ID                int64
	URL               string
	URLHash           string
	Title             string
	Status            Status
	ProcessedEpisodes map[string]ProcessedEpisode
	ErrorMessage      string
	LastRefreshedAt   *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsProcessing reports whether a run is currently in flight.
func (s *Subscription) IsProcessing() bool {
	return s.Status == StatusProcessing
}

// Processed reports whether the episode GUID already has a durable record.
func (s *Subscription) Processed(guid string) bool {
	_, ok := s.ProcessedEpisodes[guid]
	return ok
}

// HashURL returns the deterministic opaque identifier for an origin URL,
// computed once at registration and immutable thereafter.
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

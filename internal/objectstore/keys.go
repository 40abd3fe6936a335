package objectstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// FeedKey is where the rewritten feed document for a subscription lives.
func FeedKey(urlHash string) string {
	return urlHash + "/feed.xml"
}

// EpisodeKey is where a cleaned episode's audio lives. The GUID is hashed so
// arbitrary feed identifiers produce stable, key-safe names.
func EpisodeKey(urlHash, episodeGUID string) string {
	return fmt.Sprintf("%s/episodes/%s.mp3", urlHash, hashGUID(episodeGUID))
}

// TranscriptKey is where an episode's readable transcript lives.
func TranscriptKey(urlHash, episodeGUID string) string {
	return fmt.Sprintf("%s/transcripts/%s.txt", urlHash, hashGUID(episodeGUID))
}

func hashGUID(guid string) string {
	sum := sha256.Sum256([]byte(guid))
	return hex.EncodeToString(sum[:])
}

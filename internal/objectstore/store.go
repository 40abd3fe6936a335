package objectstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound reports a key with no stored object.
var ErrNotFound = errors.New("object not found")

// Store is the gateway for published artifacts: rewritten feeds, cleaned
// episode audio, and transcripts.
type Store interface {
	// Put uploads an object under the given key, replacing any previous
	// version.
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	// Get downloads the object stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// URL returns the public URL serving the object stored under key.
	URL(key string) string
}

// Content types for the artifacts the pipeline publishes.
const (
	ContentTypeFeed       = "application/xml"
	ContentTypeAudio      = "audio/mpeg"
	ContentTypeTranscript = "text/plain; charset=utf-8"
)

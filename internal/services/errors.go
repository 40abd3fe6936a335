package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFeed marks an unreachable, unparsable, or empty origin feed.
	ErrFeed = errors.New("feed error")
	// ErrTranscription marks an upstream transcription failure.
	ErrTranscription = errors.New("transcription error")
	// ErrExtraction marks ad detection that exhausted its retry budget.
	ErrExtraction = errors.New("extraction error")
	// ErrStorage marks an object store put/get failure.
	ErrStorage = errors.New("storage error")
	// ErrPipeline is the catch-all marker wrapped around any stage failure
	// during a subscription run.
	ErrPipeline = errors.New("pipeline error")
	// ErrDuplicate marks an attempt to register the same origin URL twice.
	// Recoverable and user-facing, unlike the run-time markers above.
	ErrDuplicate = errors.New("already registered")
	// ErrConfiguration marks missing or invalid runtime configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrPipeline
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UserFacing reports whether an error should be surfaced directly to the
// person invoking the command, rather than only logged and recorded on the
// subscription.
func UserFacing(err error) bool {
	return errors.Is(err, ErrDuplicate) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

package services

import "context"

type contextKey string

const (
	subscriptionIDKey contextKey = "subscription_id"
	episodeGUIDKey    contextKey = "episode_guid"
	stageKey          contextKey = "stage"
)

// WithSubscriptionID annotates context with the subscription identifier.
func WithSubscriptionID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, subscriptionIDKey, id)
}

// SubscriptionIDFromContext extracts the subscription identifier if present.
func SubscriptionIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(subscriptionIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithEpisodeGUID annotates context with the episode being processed.
func WithEpisodeGUID(ctx context.Context, guid string) context.Context {
	if guid == "" {
		return ctx
	}
	return context.WithValue(ctx, episodeGUIDKey, guid)
}

// EpisodeGUIDFromContext returns the episode GUID if present.
func EpisodeGUIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(episodeGUIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

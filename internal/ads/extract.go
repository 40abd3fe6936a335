package ads

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/logging"
	"github.com/duarteocarmo/limpa/internal/services"
)

const systemPrompt = `You will be given a transcript of a podcast episode.
Your transcript contains segments with the starting timestamp in seconds and the first N words of that segment.
Your goal is to identify and extract all the advertisements mentioned in the podcast.
You should detect both advertisements that are read by the podcast host and those that are played as audio clips.
Also detect sponsored sections where the host talks about a sponsor.
If the host is actively trying to sell or promote a product or service, consider that an advertisement.
The goal is to detect advertisement sections that could be removed from the podcast without losing important content.
Respond with a JSON object {"ads_list": [{"short_summary": string, "start_timestamp_seconds": number, "end_timestamp_seconds": number}]}.`

const feedbackPreamble = "You previously failed with the following error: "

// Ad is one advertisement span detected in an episode transcript.
type Ad struct {
	ShortSummary          string  `json:"short_summary"`
	StartTimestampSeconds float64 `json:"start_timestamp_seconds"`
	EndTimestampSeconds   float64 `json:"end_timestamp_seconds"`
}

type adPayload struct {
	AdsList []Ad `json:"ads_list"`
}

// CompletionClient issues one deterministic JSON completion.
type CompletionClient interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Extractor runs the detection prompt against a transcript, re-prompting with
// the validation error when the model returns an unusable payload. Timeouts
// are retried with the unchanged prompt; other transport failures are final.
type Extractor struct {
	client      CompletionClient
	maxAttempts int
	sleeper     func(time.Duration)
	logger      *slog.Logger
}

// ExtractorOption customizes the extractor.
type ExtractorOption func(*Extractor)

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) ExtractorOption {
	return func(e *Extractor) {
		e.sleeper = sleeper
	}
}

// WithLogger attaches a logger to the extractor.
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor constructs an extractor over the given completion client.
func NewExtractor(client CompletionClient, cfg *config.Config, opts ...ExtractorOption) *Extractor {
	extractor := &Extractor{
		client:      client,
		maxAttempts: cfg.LLM.MaxAttempts,
		logger:      logging.NewNop(),
	}
	if extractor.maxAttempts <= 0 {
		extractor.maxAttempts = 3
	}
	for _, opt := range opts {
		opt(extractor)
	}
	return extractor
}

// Extract detects advertisement spans in the readable transcript form. An
// empty result is a valid outcome: not every episode carries ads.
func (e *Extractor) Extract(ctx context.Context, readableTranscript string) ([]Ad, error) {
	if readableTranscript == "" {
		return nil, services.Wrap(services.ErrExtraction, "extract", "ads", "empty transcript", nil)
	}

	feedback := ""
	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		prompt := systemPrompt
		if feedback != "" {
			prompt += "\n\n" + feedbackPreamble + feedback
		}

		content, err := e.client.CompleteJSON(ctx, prompt, readableTranscript)
		if err != nil {
			if !IsTimeout(err) {
				return nil, services.Wrap(services.ErrExtraction, "extract", "complete", "request failed", err)
			}
			// Timed out: retry with the same prompt.
			lastErr = err
			e.logger.WarnContext(ctx, "ad extraction attempt timed out",
				logging.Int("attempt", attempt+1),
				logging.Error(err))
		} else {
			ads, vErr := decodeAndValidate(content)
			if vErr == nil {
				return ads, nil
			}
			lastErr = vErr
			feedback = vErr.Error()
			e.logger.WarnContext(ctx, "ad extraction attempt returned invalid payload",
				logging.Int("attempt", attempt+1),
				logging.Error(vErr))
		}

		if attempt == e.maxAttempts-1 {
			break
		}
		if err := e.sleep(ctx, time.Duration(1<<attempt)*time.Second); err != nil {
			return nil, services.Wrap(services.ErrExtraction, "extract", "complete", "retry interrupted", err)
		}
	}

	msg := fmt.Sprintf("failed after %d attempts", e.maxAttempts)
	return nil, services.Wrap(services.ErrExtraction, "extract", "complete", msg, lastErr)
}

func decodeAndValidate(content string) ([]Ad, error) {
	var payload adPayload
	if err := decodeModelJSON(content, &payload); err != nil {
		return nil, fmt.Errorf("decode ads payload: %w", err)
	}
	for i, ad := range payload.AdsList {
		if ad.StartTimestampSeconds < 0 {
			return nil, fmt.Errorf("ad %d: start_timestamp_seconds %.2f must not be negative", i, ad.StartTimestampSeconds)
		}
		if ad.EndTimestampSeconds <= ad.StartTimestampSeconds {
			return nil, fmt.Errorf("ad %d: end_timestamp_seconds %.2f must be after start_timestamp_seconds %.2f",
				i, ad.EndTimestampSeconds, ad.StartTimestampSeconds)
		}
	}
	return payload.AdsList, nil
}

func (e *Extractor) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if e.sleeper != nil {
		e.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

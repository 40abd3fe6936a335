package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/duarteocarmo/limpa/internal/config"
)

const userAgent = "limpa/1.0"

// Service defines the notification surface exposed to the pipeline and the
// daemon sweep.
type Service interface {
	NotifySubscriptionReady(ctx context.Context, title string, newEpisodes int) error
	NotifySubscriptionFailed(ctx context.Context, title string, cause error) error
	NotifySweepCompleted(ctx context.Context, refreshed, failed int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySubscriptionReady(ctx context.Context, title string, newEpisodes int) error {
	title = strings.TrimSpace(title)
	var message string
	if newEpisodes == 0 {
		message = fmt.Sprintf("Refreshed %s: no new episodes", title)
	} else {
		message = fmt.Sprintf("Refreshed %s: %d new ad-free episode(s)", title, newEpisodes)
	}
	data := payload{
		title:   "limpa - Feed Ready",
		message: message,
		tags:    []string{"limpa", "refresh", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySubscriptionFailed(ctx context.Context, title string, cause error) error {
	title = strings.TrimSpace(title)
	reason := "unknown"
	if cause != nil {
		reason = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "limpa - Refresh Failed",
		message:  fmt.Sprintf("Failed to refresh %s: %s", title, reason),
		tags:     []string{"limpa", "refresh", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySweepCompleted(ctx context.Context, refreshed, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "limpa - Sweep Complete"
		message = fmt.Sprintf("Refreshed %d subscription(s) in %s", refreshed, duration)
	} else {
		title = "limpa - Sweep Complete (with errors)"
		message = fmt.Sprintf("Refreshed %d subscription(s), %d failed in %s", refreshed, failed, duration)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"limpa", "sweep", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "limpa - Test",
		message:  "Notification system test",
		tags:     []string{"limpa", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySubscriptionReady(context.Context, string, int) error           { return nil }
func (noopService) NotifySubscriptionFailed(context.Context, string, error) error        { return nil }
func (noopService) NotifySweepCompleted(context.Context, int, int, time.Duration) error  { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }

package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/services"
)

const defaultHTTPTimeout = 15 * time.Minute

// Client talks to the remote transcription service. Requests carry whole audio
// files, so the HTTP timeout is generous and controlled by configuration.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a transcription client from configuration.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.Transcriber.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Transcriber.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.Transcriber.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type batchItem struct {
	Name  string `json:"name"`
	Audio string `json:"audio"`
}

type batchRequest struct {
	Items []batchItem `json:"items"`
}

type batchResponse struct {
	Results []Transcript `json:"results"`
	Error   string       `json:"error,omitempty"`
}

// TranscribeBatch sends the audio files at the given paths in a single request
// and returns one transcript per path, in the same order. Any failure fails
// the whole batch.
func (c *Client) TranscribeBatch(ctx context.Context, paths []string) ([]Transcript, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "batch", "transcriber base URL not configured", nil)
	}

	payload := batchRequest{Items: make([]batchItem, 0, len(paths))}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, services.Wrap(services.ErrTranscription, "transcribe", "read", path, err)
		}
		payload.Items = append(payload.Items, batchItem{
			Name:  filepath.Base(path),
			Audio: base64.StdEncoding.EncodeToString(data),
		})
	}

	endpoint, err := url.JoinPath(c.baseURL, "transcribe")
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "batch", "build url", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "batch", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "batch", "new request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "batch", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "batch", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("http %d: %s", resp.StatusCode, summarizeBody(body))
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "batch", msg, nil)
	}

	var decoded batchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "batch", "decode response", err)
	}
	if decoded.Error != "" {
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "batch", decoded.Error, nil)
	}
	if len(decoded.Results) != len(paths) {
		msg := fmt.Sprintf("expected %d transcripts, got %d", len(paths), len(decoded.Results))
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "batch", msg, nil)
	}
	return decoded.Results, nil
}

// TranscribeFile transcribes a single audio file.
func (c *Client) TranscribeFile(ctx context.Context, path string) (*Transcript, error) {
	results, err := c.TranscribeBatch(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

func summarizeBody(body []byte) string {
	clean := strings.Join(strings.Fields(string(body)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}

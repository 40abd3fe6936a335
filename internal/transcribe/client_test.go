package transcribe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/duarteocarmo/limpa/internal/services"
	"github.com/duarteocarmo/limpa/internal/testsupport"
)

func writeAudioFile(t *testing.T, name string, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newBatchClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Transcriber.BaseURL = srvURL
	return NewClient(cfg)
}

func TestTranscribeBatchPreservesOrder(t *testing.T) {
	first := writeAudioFile(t, "first.mp3", []byte("audio-one"))
	second := writeAudioFile(t, "second.mp3", []byte("audio-two"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Items) != 2 {
			t.Errorf("expected 2 items, got %d", len(req.Items))
		}
		if req.Items[0].Name != "first.mp3" || req.Items[1].Name != "second.mp3" {
			t.Errorf("unexpected item names: %s, %s", req.Items[0].Name, req.Items[1].Name)
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Items[0].Audio)
		if err != nil || string(decoded) != "audio-one" {
			t.Errorf("first item audio = %q, err = %v", decoded, err)
		}
		resp := batchResponse{Results: []Transcript{
			{Text: "hello there", Segments: []Segment{{Start: 0, End: 2, Text: "hello there"}}},
			{Text: "general kenobi", Segments: []Segment{{Start: 0, End: 3, Text: "general kenobi"}}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	results, err := newBatchClient(t, srv.URL).TranscribeBatch(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("TranscribeBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 transcripts, got %d", len(results))
	}
	if results[0].Text != "hello there" || results[1].Text != "general kenobi" {
		t.Fatalf("order not preserved: %q, %q", results[0].Text, results[1].Text)
	}
}

func TestTranscribeBatchEmptyInput(t *testing.T) {
	results, err := newBatchClient(t, "http://unused.test").TranscribeBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestTranscribeBatchFailsWhole(t *testing.T) {
	path := writeAudioFile(t, "ep.mp3", []byte("bytes"))

	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model crashed", http.StatusInternalServerError)
		}))
		defer srv.Close()
		_, err := newBatchClient(t, srv.URL).TranscribeBatch(context.Background(), []string{path})
		if !errors.Is(err, services.ErrTranscription) {
			t.Fatalf("expected ErrTranscription, got %v", err)
		}
	})

	t.Run("result count mismatch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(batchResponse{Results: nil})
		}))
		defer srv.Close()
		_, err := newBatchClient(t, srv.URL).TranscribeBatch(context.Background(), []string{path})
		if !errors.Is(err, services.ErrTranscription) {
			t.Fatalf("expected ErrTranscription, got %v", err)
		}
	})

	t.Run("missing audio file", func(t *testing.T) {
		_, err := newBatchClient(t, "http://unused.test").TranscribeBatch(context.Background(), []string{filepath.Join(t.TempDir(), "missing.mp3")})
		if !errors.Is(err, services.ErrTranscription) {
			t.Fatalf("expected ErrTranscription, got %v", err)
		}
	})
}

func TestReadable(t *testing.T) {
	transcript := Transcript{
		Segments: []Segment{
			{Start: 0, End: 4.5, Text: "welcome back to the show"},
			{Start: 4.5, End: 30, Text: "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen"},
		},
	}
	got := transcript.Readable()
	want := "[0.00 secs] welcome back to the show...\n" +
		"[4.50 secs] one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen..."
	if got != want {
		t.Fatalf("Readable:\ngot  %q\nwant %q", got, want)
	}
}

func TestReadableEmpty(t *testing.T) {
	var transcript Transcript
	if got := transcript.Readable(); got != "" {
		t.Fatalf("expected empty readable form, got %q", got)
	}
}

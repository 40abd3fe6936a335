package audio

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tcolgate/mp3"

	"github.com/duarteocarmo/limpa/internal/services"
)

// Duration probes the total length of an audio file in seconds. ffprobe is
// authoritative; when it is unavailable or returns garbage the file is
// decoded frame by frame as MP3 instead.
func (c *Cutter) Duration(ctx context.Context, path string) (float64, error) {
	out, probeErr := c.commandRunner(ctx, c.ffprobeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if probeErr == nil {
		if duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64); err == nil && duration > 0 {
			return duration, nil
		}
	}

	duration, decodeErr := mp3FrameDuration(path)
	if decodeErr != nil {
		return 0, services.Wrap(services.ErrPipeline, "cut", "duration", path, errors.Join(probeErr, decodeErr))
	}
	return duration, nil
}

func mp3FrameDuration(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	decoder := mp3.NewDecoder(file)
	var duration float64
	var frame mp3.Frame
	skipped := 0
	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		duration += frame.Duration().Seconds()
	}
	if duration <= 0 {
		return 0, errors.New("no decodable audio frames")
	}
	return duration, nil
}

package transcribe

import (
	"fmt"
	"strings"
)

// Segment is one timestamped span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the full transcription of one audio file.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

const readableWordLimit = 15

// Readable renders the transcript as one line per segment with its start time
// and the first few words, the compact form fed to the ad extractor.
func (t *Transcript) Readable() string {
	lines := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		words := strings.Fields(seg.Text)
		if len(words) > readableWordLimit {
			words = words[:readableWordLimit]
		}
		lines = append(lines, fmt.Sprintf("[%.2f secs] %s...", seg.Start, strings.Join(words, " ")))
	}
	return strings.Join(lines, "\n")
}

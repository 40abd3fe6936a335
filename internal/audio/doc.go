// Package audio cuts advertisement spans out of episode files. The kept
// intervals are trimmed and concatenated in a single ffmpeg pass so the
// output carries continuous timestamps.
package audio

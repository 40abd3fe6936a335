// Package ads detects advertisement spans in podcast transcripts with a
// chat-completion model. Decoding is deterministic (temperature zero, JSON
// response format) and the extractor re-prompts with validation feedback when
// the model returns a payload it cannot use.
package ads

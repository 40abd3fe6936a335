// Package pipeline orchestrates subscription refreshes: episode discovery,
// download, transcription, ad detection, audio cutting, and feed
// republication. A subscription moves pending -> processing -> ready, or
// failed with the error recorded; its processed-episode history only grows.
package pipeline

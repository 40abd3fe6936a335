// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp subscription IDs, episode GUIDs, and stage
//     names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (feed, transcription, extraction, storage) for status handling and
//     user-facing propagation.
package services

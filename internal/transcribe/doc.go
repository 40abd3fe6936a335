// Package transcribe provides the client for the remote transcription
// service and the transcript model shared by the pipeline and the ad
// extractor. Batches are order-preserving: the service returns exactly one
// transcript per submitted audio file, and any failure fails the whole batch.
package transcribe

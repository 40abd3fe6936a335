// Package objectstore publishes pipeline artifacts to an S3-compatible
// bucket under deterministic keys derived from the subscription URL hash and
// episode GUID.
package objectstore

// Package subscription persists registered podcast feeds and their
// per-episode processing records in SQLite.
package subscription

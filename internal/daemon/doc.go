// Package daemon runs the background refresh loop for limpad. It combines
// the subscription store, the pipeline runner, and a periodic sweep into a
// single lifecycle with flock-based locking to prevent multiple daemon
// instances from refreshing the same feeds concurrently.
package daemon

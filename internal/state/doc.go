// Package state shares the latest media reading between the background
// poller and the UI.
//
// The poller is the single writer; the UI reads snapshots on its own
// schedule. Store is safe to use as a zero value.
//
// Update with a nil error replaces the reading and resets the failure count.
// Update with an error keeps the previous reading, records the error and bumps
// ConsecutiveFailures, so the UI can keep showing the last known element while
// reporting that the browser went away. Two failures in a row count as
// offline.
package state

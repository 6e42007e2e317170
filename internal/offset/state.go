// Package offset tracks the virtual delay the user has applied to a live stream
// and keeps the page's media element in line with it.
package offset

import (
	"math"
	"time"

	"github.com/five82/syncer/internal/media"
)

// Mode is the controller state class.
type Mode int

const (
	// ModeLive means no delay and no hold.
	ModeLive Mode = iota
	// ModeDelayed means a positive delay and no hold.
	ModeDelayed
	// ModeHeld means the element is muted and the delay grows with wall-clock time.
	ModeHeld
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "LIVE"
	case ModeDelayed:
		return "DELAYED"
	case ModeHeld:
		return "HELD"
	default:
		return "UNKNOWN"
	}
}

// State is the offset state persisted between runs of one page session.
type State struct {
	CurrentDelaySeconds float64
	// PausedAt is zero unless the stream is held.
	PausedAt            time.Time
	DelayAtPauseSeconds float64
	SessionID           string
	DetectedAt          time.Time
}

// Held reports whether the stream is currently held.
func (s State) Held() bool {
	return !s.PausedAt.IsZero()
}

// Mode classifies the state.
func (s State) Mode() Mode {
	switch {
	case s.Held():
		return ModeHeld
	case s.CurrentDelaySeconds > 0:
		return ModeDelayed
	default:
		return ModeLive
	}
}

// DisplayDelay is the delay to show at now: the frozen delay plus the hold
// time while held, the static delay otherwise.
func (s State) DisplayDelay(now time.Time) float64 {
	if !s.Held() {
		return s.CurrentDelaySeconds
	}
	return s.DelayAtPauseSeconds + elapsedSeconds(s.PausedAt, now)
}

// MaxDelay bounds how far behind live the user may go: the time since the
// stream was detected.
func (s State) MaxDelay(now time.Time) float64 {
	if s.DetectedAt.IsZero() {
		return 0
	}
	return elapsedSeconds(s.DetectedAt, now)
}

// reconcile adopts the delay the element reported after an action. Held states
// take it as the frozen delay, others as the current delay. DetectedAt moves
// back when needed so the delay never exceeds MaxDelay. Snapshots without a
// seekable range leave s alone.
func reconcile(s State, snap media.Snapshot, now time.Time) State {
	d, ok := snap.Delay()
	if !ok || math.IsNaN(d) || math.IsInf(d, 0) {
		return s
	}
	d = math.Max(0, d)
	if s.Held() {
		s.DelayAtPauseSeconds = d
	} else {
		s.CurrentDelaySeconds = d
	}
	if d > s.MaxDelay(now) {
		s.DetectedAt = now.Add(-time.Duration(d * float64(time.Second)))
	}
	return s
}

func elapsedSeconds(since, now time.Time) float64 {
	return math.Max(0, now.Sub(since).Seconds())
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

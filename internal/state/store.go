package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/syncer/internal/media"
)

// Snapshot represents the latest detection result available to the UI.
type Snapshot struct {
	Media               media.Snapshot
	HasMedia            bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the browser has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// OnAir reports whether the last good reading shows an audible, playing element.
func (s Snapshot) OnAir() bool {
	return s.HasMedia && s.LastError == nil && s.Media.OnAir()
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored reading. When err is non-nil the previous reading
// is kept but the error is recorded for visibility.
func (s *Store) Update(snap *media.Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if snap != nil {
		s.snapshot.Media = *snap
		s.snapshot.HasMedia = true
	} else {
		s.snapshot.Media = media.Snapshot{}
		s.snapshot.HasMedia = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

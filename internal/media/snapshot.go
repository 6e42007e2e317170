package media

// Snapshot is the state of the chosen element after an action.
type Snapshot struct {
	Detected          bool    `json:"detected"`
	SessionID         string  `json:"sessionId,omitempty"`
	SourceURI         string  `json:"sourceUri,omitempty"`
	IsPaused          bool    `json:"isPaused,omitempty"`
	IsMuted           bool    `json:"isMuted,omitempty"`
	Seekable          bool    `json:"seekable,omitempty"`
	SeekWindowSeconds float64 `json:"seekWindowSeconds,omitempty"`
	// CurrentDelaySeconds is only meaningful when Seekable is true.
	CurrentDelaySeconds float64 `json:"currentDelaySeconds,omitempty"`
}

// SnapshotOf builds the snapshot for a candidate read in the given session.
func SnapshotOf(sessionID string, c Candidate) Snapshot {
	return Snapshot{
		Detected:            true,
		SessionID:           sessionID,
		SourceURI:           c.Source,
		IsPaused:            c.Paused,
		IsMuted:             c.Muted,
		Seekable:            c.Seekable,
		SeekWindowSeconds:   c.SeekWindowSeconds,
		CurrentDelaySeconds: c.CurrentDelaySeconds,
	}
}

// Delay returns the element's distance from the live edge and whether it is defined.
func (s Snapshot) Delay() (float64, bool) {
	if !s.Detected || !s.Seekable {
		return 0, false
	}
	return s.CurrentDelaySeconds, true
}

// OnAir reports whether the element is audibly playing.
func (s Snapshot) OnAir() bool {
	return s.Detected && !s.IsPaused && !s.IsMuted
}

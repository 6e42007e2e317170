// Package action applies named playback actions to the best media element on a page.
package action

import "fmt"

// Kind enumerates the actions the executor understands.
type Kind int

const (
	Detect Kind = iota
	Play
	Pause
	Mute
	Resume
	GoLive
	Nudge
	SetDelay
)

var kindNames = [...]string{
	Detect:   "detect",
	Play:     "play",
	Pause:    "pause",
	Mute:     "mute",
	Resume:   "resume",
	GoLive:   "goLive",
	Nudge:    "nudge",
	SetDelay: "setDelay",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Request is one action plus its payload. Only the field matching Kind is read.
type Request struct {
	Kind          Kind
	RewindSeconds float64
	DeltaSeconds  float64
	DelaySeconds  float64
}

// DetectRequest reads the current element state without changing it.
func DetectRequest() Request { return Request{Kind: Detect} }

// ResumeRequest unmutes and unpauses after rewinding by seconds.
func ResumeRequest(rewindSeconds float64) Request {
	return Request{Kind: Resume, RewindSeconds: rewindSeconds}
}

// NudgeRequest moves the element delta seconds further from the live edge.
func NudgeRequest(deltaSeconds float64) Request {
	return Request{Kind: Nudge, DeltaSeconds: deltaSeconds}
}

// SetDelayRequest positions the element delaySeconds behind the live edge.
func SetDelayRequest(delaySeconds float64) Request {
	return Request{Kind: SetDelay, DelaySeconds: delaySeconds}
}

package media

import "context"

// Element is one playback element as read from the page, before ranking.
type Element struct {
	Index       int     `json:"index"`
	Source      string  `json:"src"`
	Paused      bool    `json:"paused"`
	Muted       bool    `json:"muted"`
	Seekable    bool    `json:"seekable"`
	SeekStart   float64 `json:"seekStart"`
	SeekEnd     float64 `json:"seekEnd"`
	CurrentTime float64 `json:"currentTime"`
}

// Frame is the result of one round-trip into the page.
type Frame struct {
	// SessionID identifies the page load the elements were read from.
	SessionID string    `json:"session"`
	Elements  []Element `json:"elements"`
}

// Mutation describes the changes to apply to one element. Nil fields are left
// alone. CurrentTime is applied first, then Muted, then Paused.
type Mutation struct {
	CurrentTime *float64 `json:"currentTime,omitempty"`
	Muted       *bool    `json:"muted,omitempty"`
	Paused      *bool    `json:"paused,omitempty"`
}

// Page executes probe and mutation logic inside a page context.
type Page interface {
	// Elements lists every playback element in the top-level document.
	Elements(ctx context.Context) (Frame, error)
	// Mutate applies m to the element at index and returns a frame holding
	// only that element, read after the mutation. When src is non-empty and
	// the element at index no longer plays it, nothing is changed and the
	// frame holds no elements.
	Mutate(ctx context.Context, index int, src string, m Mutation) (Frame, error)
}

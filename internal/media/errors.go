package media

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveTab is returned when no page target can be resolved.
	ErrNoActiveTab = errors.New("no active tab found")
	// ErrNoPlayer is returned when an action needs a media element and the page has none.
	ErrNoPlayer = errors.New("no player found")
	// ErrNotSeekable is returned when an action needs a seek window and the element has none.
	ErrNotSeekable = errors.New("player is not seekable right now")
	// ErrUnsupportedAction is returned for action kinds the executor does not know.
	ErrUnsupportedAction = errors.New("unsupported action")
)

// ExecutionFault wraps an unexpected failure while probing or mutating an element.
type ExecutionFault struct {
	Op  string
	Err error
}

func (e *ExecutionFault) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: execution fault", e.Op)
	}
	return fmt.Sprintf("%s: execution fault: %v", e.Op, e.Err)
}

func (e *ExecutionFault) Unwrap() error {
	return e.Err
}

// IsExpected reports whether err belongs to the known taxonomy rather than
// being an unexpected fault.
func IsExpected(err error) bool {
	return errors.Is(err, ErrNoActiveTab) ||
		errors.Is(err, ErrNoPlayer) ||
		errors.Is(err, ErrNotSeekable) ||
		errors.Is(err, ErrUnsupportedAction)
}

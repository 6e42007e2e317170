package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/five82/syncer/internal/logging"
	"github.com/five82/syncer/internal/media"
)

// DefaultLiveEdgeBuffer keeps nudges from landing exactly on the live edge.
const DefaultLiveEdgeBuffer = 0.5

// Executor resolves the best element through a Page and mutates it.
type Executor struct {
	page           media.Page
	prober         *media.Prober
	liveEdgeBuffer float64
	logger         *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLiveEdgeBuffer overrides the minimum delay a nudge can reach.
func WithLiveEdgeBuffer(seconds float64) Option {
	return func(e *Executor) {
		if seconds >= 0 && !math.IsNaN(seconds) {
			e.liveEdgeBuffer = seconds
		}
	}
}

// WithLogger sets the logger used for action tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor builds an Executor. A nil prober uses the default placeholder pattern.
func NewExecutor(page media.Page, prober *media.Prober, opts ...Option) *Executor {
	if prober == nil {
		prober, _ = media.NewProber("")
	}
	e := &Executor{
		page:           page,
		prober:         prober,
		liveEdgeBuffer: DefaultLiveEdgeBuffer,
		logger:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs req against the best element and returns the snapshot read after
// the mutation. Unexpected failures, panics included, surface as
// *media.ExecutionFault.
func (e *Executor) Apply(ctx context.Context, req Request) (snap media.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = media.Snapshot{}
			err = &media.ExecutionFault{Op: req.Kind.String(), Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			e.logger.Debug("action failed", slog.String("action", req.Kind.String()), slog.String("err", err.Error()))
		}
	}()

	if e.page == nil {
		return media.Snapshot{}, &media.ExecutionFault{Op: req.Kind.String(), Err: errors.New("no page")}
	}

	frame, err := e.page.Elements(ctx)
	if err != nil {
		return media.Snapshot{}, wrapFault(req.Kind, err)
	}
	best, found := e.prober.Best(frame)

	if req.Kind == Detect {
		if !found {
			return media.Snapshot{Detected: false, SessionID: frame.SessionID}, nil
		}
		return media.SnapshotOf(frame.SessionID, best), nil
	}
	if req.Kind < Detect || req.Kind > SetDelay {
		return media.Snapshot{}, fmt.Errorf("%w: %s", media.ErrUnsupportedAction, req.Kind)
	}
	if !found {
		return media.Snapshot{}, media.ErrNoPlayer
	}

	m, err := e.plan(req, best)
	if err != nil {
		return media.Snapshot{}, err
	}

	after, err := e.page.Mutate(ctx, best.Index, best.Source, m)
	if err != nil {
		return media.Snapshot{}, wrapFault(req.Kind, err)
	}
	if len(after.Elements) == 0 {
		return media.Snapshot{}, media.ErrNoPlayer
	}
	el := after.Elements[0]
	el.Index = best.Index
	snap = media.SnapshotOf(after.SessionID, e.prober.Candidate(el))
	e.logger.Debug("action applied",
		slog.String("action", req.Kind.String()),
		slog.Float64("delay", snap.CurrentDelaySeconds),
		slog.Bool("paused", snap.IsPaused),
		slog.Bool("muted", snap.IsMuted))
	return snap, nil
}

// plan computes the mutation for req against the chosen candidate.
func (e *Executor) plan(req Request, best media.Candidate) (media.Mutation, error) {
	switch req.Kind {
	case Play:
		return media.Mutation{Paused: ptr(false)}, nil
	case Pause:
		return media.Mutation{Paused: ptr(true)}, nil
	case Mute:
		return media.Mutation{Muted: ptr(true)}, nil
	case Resume:
		m := media.Mutation{Muted: ptr(false), Paused: ptr(false)}
		if best.Seekable {
			rewind := finiteOr(req.RewindSeconds, 0)
			m.CurrentTime = ptr(clamp(best.CurrentTime-rewind, best.SeekStart, best.SeekEnd))
		}
		return m, nil
	}

	if best.SeekWindowSeconds <= 0 {
		return media.Mutation{}, media.ErrNotSeekable
	}

	switch req.Kind {
	case GoLive:
		return media.Mutation{CurrentTime: ptr(best.SeekEnd)}, nil
	case Nudge:
		next := NudgedDelay(best.CurrentDelaySeconds, finiteOr(req.DeltaSeconds, 0), e.liveEdgeBuffer, best.SeekWindowSeconds)
		return media.Mutation{CurrentTime: ptr(best.SeekEnd - next)}, nil
	case SetDelay:
		delay := math.Max(0, finiteOr(req.DelaySeconds, 0))
		return media.Mutation{CurrentTime: ptr(clamp(best.SeekEnd-delay, best.SeekStart, best.SeekEnd))}, nil
	default:
		return media.Mutation{}, fmt.Errorf("%w: %s", media.ErrUnsupportedAction, req.Kind)
	}
}

// NudgedDelay returns delay+delta clamped to [buffer, window]. The buffer
// shrinks to the window when the window is smaller.
func NudgedDelay(delay, delta, buffer, window float64) float64 {
	lower := math.Min(buffer, window)
	return clamp(delay+delta, lower, window)
}

func wrapFault(kind Kind, err error) error {
	if media.IsExpected(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var fault *media.ExecutionFault
	if errors.As(err, &fault) {
		return err
	}
	return &media.ExecutionFault{Op: kind.String(), Err: err}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func ptr[T any](v T) *T {
	return &v
}

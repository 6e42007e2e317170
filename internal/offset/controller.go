package offset

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/five82/syncer/internal/action"
	"github.com/five82/syncer/internal/kv"
	"github.com/five82/syncer/internal/logging"
	"github.com/five82/syncer/internal/media"
)

var (
	// ErrNotDetected is returned by transitions attempted before Open succeeded.
	ErrNotDetected = errors.New("no stream detected")
	// ErrAlreadyLive is returned when catching up at the live edge.
	ErrAlreadyLive = errors.New("already at the live edge")
	// ErrMaxDelay is returned when delaying past the time since detection.
	ErrMaxDelay = errors.New("delay is at its maximum")
)

// Executor applies actions to the page's media element.
type Executor interface {
	Apply(ctx context.Context, req action.Request) (media.Snapshot, error)
}

var _ Executor = (*action.Executor)(nil)

// Controller owns the offset State. Callers issue one transition at a time;
// the lock only guards the state and is never held across a page round-trip.
type Controller struct {
	exec   Executor
	store  kv.Store
	clock  clockwork.Clock
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	snapshot media.Snapshot
	ready    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock injects the time source.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Controller. A nil store keeps state in memory only.
func New(exec Executor, store kv.Store, opts ...Option) *Controller {
	if store == nil {
		store = kv.NewMemory()
	}
	c := &Controller{
		exec:   exec,
		store:  store,
		clock:  clockwork.NewRealClock(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open detects the stream and restores the persisted state when it belongs to
// the same page session. Any other persisted state is discarded and the
// controller starts at the live edge.
func (c *Controller) Open(ctx context.Context) (State, error) {
	snap, err := c.exec.Apply(ctx, action.DetectRequest())
	if err != nil {
		return c.State(), err
	}
	if !snap.Detected {
		c.mu.Lock()
		c.snapshot = snap
		c.ready = false
		c.mu.Unlock()
		return State{}, media.ErrNoPlayer
	}

	now := c.clock.Now()
	next := State{SessionID: snap.SessionID, DetectedAt: now}
	restored := false
	if stored, ok := c.load(ctx); ok && snap.SessionID != "" && stored.SessionID == snap.SessionID {
		next = stored
		if next.DetectedAt.IsZero() {
			next.DetectedAt = now.Add(-seconds(next.DisplayDelay(now)))
		}
		restored = true
	} else {
		// A new session starts wherever the element already sits.
		next = reconcile(next, snap, now)
	}

	c.logger.Info("stream detected",
		slog.String("session", snap.SessionID),
		slog.String("src", snap.SourceURI),
		slog.Bool("restored", restored),
		slog.String("mode", next.Mode().String()))

	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	c.commit(ctx, next, snap)
	return next, nil
}

// TogglePlayPause holds the stream when it is playing and resumes it, rewound
// by the hold time, when it is held.
func (c *Controller) TogglePlayPause(ctx context.Context) (State, error) {
	cur, err := c.current()
	if err != nil {
		return cur, err
	}
	now := c.clock.Now()

	if !cur.Held() {
		snap, err := c.exec.Apply(ctx, action.Request{Kind: action.Mute})
		if err != nil {
			return cur, err
		}
		next := cur
		next.PausedAt = now
		next.DelayAtPauseSeconds = cur.CurrentDelaySeconds
		next = reconcile(next, snap, now)
		c.commit(ctx, next, snap)
		return next, nil
	}

	elapsed := elapsedSeconds(cur.PausedAt, now)
	snap, err := c.exec.Apply(ctx, action.ResumeRequest(elapsed))
	if err != nil {
		return cur, err
	}
	next := cur
	next.CurrentDelaySeconds = cur.DelayAtPauseSeconds + elapsed
	next.PausedAt = time.Time{}
	next.DelayAtPauseSeconds = 0
	next = reconcile(next, snap, now)
	c.commit(ctx, next, snap)
	return next, nil
}

// GoLive jumps to the live edge, releasing a hold first.
func (c *Controller) GoLive(ctx context.Context) (State, error) {
	cur, err := c.current()
	if err != nil {
		return cur, err
	}
	now := c.clock.Now()
	if cur.DisplayDelay(now) <= 0 && !c.behindLive() {
		return cur, ErrAlreadyLive
	}

	if cur.Held() {
		snap, err := c.exec.Apply(ctx, action.ResumeRequest(0))
		if err != nil {
			return cur, err
		}
		released := cur
		released.CurrentDelaySeconds = cur.DelayAtPauseSeconds
		released.PausedAt = time.Time{}
		released.DelayAtPauseSeconds = 0
		released = reconcile(released, snap, now)
		c.commit(ctx, released, snap)
		cur = released
	}

	snap, err := c.exec.Apply(ctx, action.Request{Kind: action.GoLive})
	if err != nil {
		return cur, err
	}
	next := cur
	next.CurrentDelaySeconds = 0
	next = reconcile(next, snap, now)
	c.commit(ctx, next, snap)
	return next, nil
}

// Nudge moves the delay by delta seconds, positive meaning further behind live.
func (c *Controller) Nudge(ctx context.Context, delta float64) (State, error) {
	cur, err := c.current()
	if err != nil {
		return cur, err
	}
	if delta == 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return cur, nil
	}

	now := c.clock.Now()
	effective := cur.DisplayDelay(now)
	maxDelay := cur.MaxDelay(now)
	if delta < 0 && effective <= 0 {
		return cur, ErrAlreadyLive
	}
	if delta > 0 && effective >= maxDelay {
		return cur, ErrMaxDelay
	}
	target := clamp(effective+delta, 0, maxDelay)

	next := cur
	var snap media.Snapshot
	if cur.Held() {
		// The muted element sits at the new delay; resume rewinds from there.
		snap, err = c.exec.Apply(ctx, action.SetDelayRequest(target))
		if err != nil {
			return cur, err
		}
		next.DelayAtPauseSeconds = target
		next.PausedAt = now
	} else {
		snap, err = c.exec.Apply(ctx, action.NudgeRequest(target-effective))
		if err != nil {
			return cur, err
		}
	}
	next.CurrentDelaySeconds = target
	next = reconcile(next, snap, now)
	c.commit(ctx, next, snap)
	return next, nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the element snapshot from the last successful action.
func (c *Controller) Snapshot() media.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Ready reports whether Open has detected a stream.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Display returns the delay to show right now.
func (c *Controller) Display() float64 {
	return c.State().DisplayDelay(c.clock.Now())
}

// behindLive reports whether the element itself was last seen behind the
// live edge, whatever the virtual delay says.
func (c *Controller) behindLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.snapshot.Delay()
	return ok && d > 0
}

func (c *Controller) current() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return c.state, ErrNotDetected
	}
	return c.state, nil
}

func (c *Controller) commit(ctx context.Context, next State, snap media.Snapshot) {
	c.mu.Lock()
	c.state = next
	c.snapshot = snap
	c.mu.Unlock()
	c.persist(ctx, next)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

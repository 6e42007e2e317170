package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/five82/syncer/internal/action"
	"github.com/five82/syncer/internal/logging"
	"github.com/five82/syncer/internal/media"
	"github.com/five82/syncer/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// Detector runs read-only detections against the page.
type Detector interface {
	Apply(ctx context.Context, req action.Request) (media.Snapshot, error)
}

var _ Detector = (*action.Executor)(nil)

// Poller keeps a state.Store fresh with background detections.
type Poller struct {
	store    *state.Store
	detector Detector
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewPoller builds a Poller. A zero interval uses the default; nil clock and
// logger use the real clock and a discarding logger.
func NewPoller(store *state.Store, detector Detector, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Poller{store: store, detector: detector, interval: interval, clock: clock, logger: logger}
}

// StartPoller launches a background goroutine that refreshes the store until
// ctx is cancelled. It logs to the logger carried by ctx and returns immediately.
func StartPoller(ctx context.Context, store *state.Store, detector Detector, interval time.Duration) {
	go NewPoller(store, detector, interval, nil, logging.FromContext(ctx)).Run(ctx)
}

// Run polls until ctx is cancelled. Consecutive failures back off
// exponentially up to maxBackoff.
func (p *Poller) Run(ctx context.Context) {
	for {
		p.refresh(ctx)
		wait := calculateBackoff(p.store.Snapshot().ConsecutiveFailures, p.interval)

		timer := p.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	snap, err := p.detector.Apply(ctx, action.DetectRequest())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.store.Update(nil, err)
		failures := p.store.Snapshot().ConsecutiveFailures
		if failures == 1 {
			p.logger.Warn("detect poll failed", slog.String("err", err.Error()))
		} else {
			p.logger.Debug("detect poll failed", slog.String("err", err.Error()), slog.Int("failures", failures))
		}
		return
	}
	p.store.Update(&snap, nil)
}

// calculateBackoff doubles the base interval per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

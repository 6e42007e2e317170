package offset

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	keyCurrentDelay = "currentDelaySeconds"
	keyPausedAt     = "pausedAtEpochMs"
	keyDelayAtPause = "delayAtPauseSeconds"
	keySessionID    = "sessionId"
	keyDetectedAt   = "detectedAtEpochMs"
)

var stateKeys = []string{keyCurrentDelay, keyPausedAt, keyDelayAtPause, keySessionID, keyDetectedAt}

func encodeState(s State) map[string]string {
	return map[string]string{
		keyCurrentDelay: formatSeconds(s.CurrentDelaySeconds),
		keyPausedAt:     formatEpochMs(s.PausedAt),
		keyDelayAtPause: formatSeconds(s.DelayAtPauseSeconds),
		keySessionID:    s.SessionID,
		keyDetectedAt:   formatEpochMs(s.DetectedAt),
	}
}

func decodeState(values map[string]string) (State, bool) {
	session := strings.TrimSpace(values[keySessionID])
	if session == "" {
		return State{}, false
	}
	s := State{
		SessionID:           session,
		CurrentDelaySeconds: parseSeconds(values[keyCurrentDelay]),
		DelayAtPauseSeconds: parseSeconds(values[keyDelayAtPause]),
		PausedAt:            parseEpochMs(values[keyPausedAt]),
		DetectedAt:          parseEpochMs(values[keyDetectedAt]),
	}
	return s, true
}

// persist writes s without letting a storage failure affect the caller.
func (c *Controller) persist(ctx context.Context, s State) {
	if err := c.store.Set(context.WithoutCancel(ctx), encodeState(s)); err != nil {
		c.logger.Warn("persist offset state failed", slog.String("err", err.Error()))
	}
}

func (c *Controller) load(ctx context.Context) (State, bool) {
	values, err := c.store.Get(ctx, stateKeys...)
	if err != nil {
		c.logger.Warn("load offset state failed", slog.String("err", err.Error()))
		return State{}, false
	}
	return decodeState(values)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseSeconds(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func formatEpochMs(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseEpochMs(raw string) time.Time {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

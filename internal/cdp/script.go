package cdp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/five82/syncer/internal/media"
)

// argsMarker precedes the JSON argument of probeScript so the argument stays
// easy to find in a recorded expression.
const argsMarker = "/*args*/"

// probeScript lists the audio and video elements of the top-level document.
// With a non-null argument it first mutates the element at args.index and
// reports only that element. When args.src is set and the element at that
// index plays something else, it changes nothing and reports no elements. The page's time origin identifies the page load.
const probeScript = `(async (args) => {
  const els = Array.from(document.querySelectorAll('audio,video'));
  const info = (el, index) => {
    const ranges = el.seekable;
    const seekable = !!ranges && ranges.length > 0;
    return {
      index,
      src: el.currentSrc || el.src || '',
      paused: !!el.paused,
      muted: !!el.muted,
      seekable,
      seekStart: seekable ? ranges.start(0) : 0,
      seekEnd: seekable ? ranges.end(ranges.length - 1) : 0,
      currentTime: Number.isFinite(el.currentTime) ? el.currentTime : 0,
    };
  };
  const session = String(performance.timeOrigin);
  if (!args) {
    return JSON.stringify({ session, elements: els.map(info) });
  }
  const el = els[args.index];
  if (!el || (args.src && (el.currentSrc || el.src || '') !== args.src)) {
    return JSON.stringify({ session, elements: [] });
  }
  const m = args.mutation || {};
  if (typeof m.currentTime === 'number') el.currentTime = m.currentTime;
  if (typeof m.muted === 'boolean') el.muted = m.muted;
  if (m.paused === true) el.pause();
  if (m.paused === false) {
    try { await el.play(); } catch (e) {}
  }
  return JSON.stringify({ session, elements: [info(el, args.index)] });
})(` + argsMarker + `%s)`

type mutateArgs struct {
	Index    int            `json:"index"`
	Source   string         `json:"src,omitempty"`
	Mutation media.Mutation `json:"mutation"`
}

func probeExpression(args *mutateArgs) (string, error) {
	encoded := "null"
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return "", fmt.Errorf("marshal probe args: %w", err)
		}
		encoded = string(b)
	}
	return fmt.Sprintf(probeScript, encoded), nil
}

// parseProbeArgs extracts the argument from an expression built by probeExpression.
func parseProbeArgs(expression string) (*mutateArgs, error) {
	idx := strings.LastIndex(expression, argsMarker)
	if idx < 0 {
		return nil, fmt.Errorf("expression has no probe args")
	}
	raw := strings.TrimSuffix(expression[idx+len(argsMarker):], ")")
	if raw == "null" {
		return nil, nil
	}
	var args mutateArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("unmarshal probe args: %w", err)
	}
	return &args, nil
}

// decodeFrame unwraps the JSON string the probe script returns.
func decodeFrame(value json.RawMessage) (media.Frame, error) {
	var encoded string
	if err := json.Unmarshal(value, &encoded); err != nil {
		return media.Frame{}, fmt.Errorf("unmarshal probe result: %w", err)
	}
	var frame media.Frame
	if err := json.Unmarshal([]byte(encoded), &frame); err != nil {
		return media.Frame{}, fmt.Errorf("unmarshal probe frame: %w", err)
	}
	return frame, nil
}

package cdp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/five82/syncer/internal/logging"
	"github.com/five82/syncer/internal/media"
)

// Host runs the probe script in the active tab. It implements media.Page.
type Host struct {
	client Discoverer
	match  string
	logger *slog.Logger

	mu       sync.Mutex
	conn     *Conn
	targetID string
}

var _ media.Page = (*Host)(nil)

// NewHost builds a Host. When match is non-empty only tabs whose URL contains
// it are considered.
func NewHost(client Discoverer, match string, logger *slog.Logger) *Host {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Host{
		client: client,
		match:  strings.TrimSpace(match),
		logger: logger,
	}
}

// ActiveTarget returns the first page target in the browser's /json/list
// order that passes the tab filter. Chromium usually lists the last focused
// tab first, but the order is not a guarantee; set a tab match to pin one.
func (h *Host) ActiveTarget(ctx context.Context) (Target, error) {
	targets, err := h.client.FetchTargets(ctx)
	if err != nil {
		return Target{}, fmt.Errorf("list targets: %w", err)
	}
	pages := lo.Filter(targets, func(t Target, _ int) bool {
		if t.Type != "page" || t.WebSocketDebuggerURL == "" {
			return false
		}
		return h.match == "" || strings.Contains(t.URL, h.match)
	})
	if len(pages) == 0 {
		return Target{}, media.ErrNoActiveTab
	}
	return pages[0], nil
}

// Elements implements media.Page.
func (h *Host) Elements(ctx context.Context) (media.Frame, error) {
	return h.run(ctx, nil)
}

// Mutate implements media.Page.
func (h *Host) Mutate(ctx context.Context, index int, src string, m media.Mutation) (media.Frame, error) {
	return h.run(ctx, &mutateArgs{Index: index, Source: src, Mutation: m})
}

// Close drops the current target connection.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropLocked()
}

func (h *Host) run(ctx context.Context, args *mutateArgs) (media.Frame, error) {
	expr, err := probeExpression(args)
	if err != nil {
		return media.Frame{}, err
	}
	conn, err := h.connect(ctx)
	if err != nil {
		return media.Frame{}, err
	}
	value, err := conn.Evaluate(ctx, expr)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			h.mu.Lock()
			if h.conn == conn {
				_ = h.dropLocked()
			}
			h.mu.Unlock()
		}
		return media.Frame{}, err
	}
	return decodeFrame(value)
}

// connect returns a connection to the active target, redialing when the
// active tab changed or the previous connection died.
func (h *Host) connect(ctx context.Context) (*Conn, error) {
	target, err := h.ActiveTarget(ctx)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn != nil && h.targetID == target.ID {
		select {
		case <-h.conn.Done():
		default:
			return h.conn, nil
		}
	}
	_ = h.dropLocked()

	conn, err := Dial(ctx, target.WebSocketDebuggerURL, h.logger)
	if err != nil {
		return nil, err
	}
	h.logger.Info("attached to tab", slog.String("id", target.ID), slog.String("url", target.URL))
	h.conn = conn
	h.targetID = target.ID
	return conn, nil
}

func (h *Host) dropLocked() error {
	if h.conn == nil {
		return nil
	}
	err := h.conn.Close()
	h.conn = nil
	h.targetID = ""
	return err
}

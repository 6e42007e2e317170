package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/five82/syncer/internal/logging"
)

const (
	dialTimeout = 10 * time.Second
	callTimeout = 10 * time.Second
	readLimit   = 16 * 1024 * 1024
)

// ErrClosed is returned for calls on a closed connection.
var ErrClosed = errors.New("cdp connection closed")

// RPCError is an error object returned by the browser.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

type message struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

type reply struct {
	result json.RawMessage
	err    error
}

// Conn is a JSON-RPC session with one DevTools target.
type Conn struct {
	ws     *websocket.Conn
	logger *slog.Logger
	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan reply

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to a target websocket URL and starts the reader.
func Dial(ctx context.Context, wsURL string, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	ws, _, err := websocket.Dial(dialCtx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial devtools target: %w", err)
	}
	ws.SetReadLimit(readLimit)

	readCtx, readCancel := context.WithCancel(context.Background())
	c := &Conn{
		ws:      ws,
		logger:  logger,
		pending: make(map[int64]chan reply),
		cancel:  readCancel,
		done:    make(chan struct{}),
	}
	go c.readLoop(readCtx)
	return c, nil
}

// Done is closed once the connection stops reading.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close shuts the connection down. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close(websocket.StatusNormalClosure, "syncer closing")
		c.cancel()
	})
	return err
}

// Call sends one method call and waits for its reply.
func (c *Conn) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.nextID.Add(1)

	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		raw = b
	}
	data, err := json.Marshal(message{ID: id, Method: method, Params: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal cdp message: %w", err)
	}

	ch := make(chan reply, 1)
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.pending != nil {
			delete(c.pending, id)
		}
		c.mu.Unlock()
	}()

	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		return nil, fmt.Errorf("write cdp: %w", err)
	}

	timer := time.NewTimer(callTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.result, r.err
	case <-timer.C:
		return nil, fmt.Errorf("cdp call timed out: %s", method)
	case <-c.done:
		return nil, ErrClosed
	}
}

// Evaluate runs expression in the page and returns its JSON value. Promises
// are awaited.
func (c *Conn) Evaluate(ctx context.Context, expression string) (json.RawMessage, error) {
	result, err := c.Call(ctx, "Runtime.evaluate", map[string]any{
		"expression":    expression,
		"awaitPromise":  true,
		"returnByValue": true,
	})
	if err != nil {
		return nil, err
	}

	var evalResult struct {
		Result struct {
			Type        string          `json:"type"`
			Subtype     string          `json:"subtype"`
			Value       json.RawMessage `json:"value"`
			Description string          `json:"description"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text      string `json:"text"`
			Exception struct {
				Description string `json:"description"`
			} `json:"exception"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(result, &evalResult); err != nil {
		return nil, fmt.Errorf("unmarshal eval result: %w", err)
	}
	if d := evalResult.ExceptionDetails; d != nil {
		msg := d.Text
		if d.Exception.Description != "" {
			msg = d.Exception.Description
		}
		return nil, fmt.Errorf("js exception: %s", msg)
	}
	if evalResult.Result.Subtype == "error" {
		return nil, fmt.Errorf("js error: %s", evalResult.Result.Description)
	}
	return evalResult.Result.Value, nil
}

func (c *Conn) readLoop(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		pending := c.pending
		c.pending = nil
		c.mu.Unlock()
		for _, ch := range pending {
			select {
			case ch <- reply{err: ErrClosed}:
			default:
			}
		}
		close(c.done)
	}()

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				c.logger.Warn("cdp read failed", slog.String("err", err.Error()))
			}
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("cdp unmarshal failed", slog.String("err", err.Error()))
			continue
		}
		if msg.ID == 0 {
			// Events are not subscribed to; ignore them.
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		c.mu.Unlock()
		if !ok {
			continue
		}
		if msg.Error != nil {
			ch <- reply{err: msg.Error}
		} else {
			ch <- reply{result: msg.Result}
		}
	}
}

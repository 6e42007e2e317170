package cdp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/five82/syncer/internal/media"
)

// fakeBrowser serves the DevTools HTTP endpoints and answers Runtime.evaluate
// by simulating the probe script against an in-memory element list.
type fakeBrowser struct {
	t      *testing.T
	server *httptest.Server

	mu          sync.Mutex
	session     string
	elements    []media.Element
	targets     []Target
	expressions []string
	dials       int
	failEval    string
}

func newFakeBrowser(t *testing.T) *fakeBrowser {
	t.Helper()
	fb := &fakeBrowser{t: t, session: "1760904000000.25"}
	mux := http.NewServeMux()
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(VersionInfo{Browser: "Chrome/141.0", ProtocolVersion: "1.3"})
	})
	mux.HandleFunc("/json/list", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		_ = json.NewEncoder(w).Encode(fb.targets)
	})
	mux.HandleFunc("/devtools/page/", fb.serveTarget)
	fb.server = httptest.NewServer(mux)
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBrowser) wsURL(id string) string {
	return "ws" + strings.TrimPrefix(fb.server.URL, "http") + "/devtools/page/" + id
}

func (fb *fakeBrowser) addTab(id, url string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.targets = append(fb.targets, Target{ID: id, Type: "page", URL: url, WebSocketDebuggerURL: fb.wsURL(id)})
}

func (fb *fakeBrowser) serveTarget(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.CloseNow() }()
	fb.mu.Lock()
	fb.dials++
	fb.mu.Unlock()

	ctx := r.Context()
	for {
		var msg message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		_ = wsjson.Write(ctx, conn, fb.answer(msg))
	}
}

func (fb *fakeBrowser) answer(msg message) map[string]any {
	if msg.Method != "Runtime.evaluate" {
		return map[string]any{"id": msg.ID, "error": map[string]any{"code": -32601, "message": "method not found"}}
	}
	var params struct {
		Expression string `json:"expression"`
	}
	_ = json.Unmarshal(msg.Params, &params)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.expressions = append(fb.expressions, params.Expression)

	if fb.failEval != "" {
		return map[string]any{"id": msg.ID, "result": map[string]any{
			"result":           map[string]any{"type": "object", "subtype": "error"},
			"exceptionDetails": map[string]any{"text": "Uncaught", "exception": map[string]any{"description": fb.failEval}},
		}}
	}

	args, err := parseProbeArgs(params.Expression)
	if err != nil {
		fb.t.Errorf("parseProbeArgs: %v", err)
	}
	frame := media.Frame{SessionID: fb.session}
	if args == nil {
		frame.Elements = append([]media.Element(nil), fb.elements...)
	} else if args.Index >= 0 && args.Index < len(fb.elements) &&
		(args.Source == "" || fb.elements[args.Index].Source == args.Source) {
		el := &fb.elements[args.Index]
		if m := args.Mutation; m.CurrentTime != nil {
			el.CurrentTime = *m.CurrentTime
		}
		if m := args.Mutation; m.Muted != nil {
			el.Muted = *m.Muted
		}
		if m := args.Mutation; m.Paused != nil {
			el.Paused = *m.Paused
		}
		frame.Elements = []media.Element{*el}
	}
	encoded, _ := json.Marshal(frame)
	return map[string]any{"id": msg.ID, "result": map[string]any{
		"result": map[string]any{"type": "string", "value": string(encoded)},
	}}
}

func (fb *fakeBrowser) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(fb.server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

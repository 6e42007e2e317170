// Package cdp reaches into a Chromium tab over the DevTools protocol.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// Discoverer lists the browser and its debuggable targets.
// This interface is implemented by *Client and can be used for testing.
type Discoverer interface {
	FetchVersion(ctx context.Context) (*VersionInfo, error)
	FetchTargets(ctx context.Context) ([]Target, error)
}

// Ensure Client implements Discoverer at compile time.
var _ Discoverer = (*Client)(nil)

// VersionInfo mirrors /json/version.
type VersionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	UserAgent            string `json:"User-Agent"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Target mirrors one entry of /json/list.
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Client talks to the DevTools HTTP endpoint.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultDevtoolsAddr = "127.0.0.1:9222"
	defaultUserAgent    = "syncer/0.1"
	requestTimeout      = 5 * time.Second
)

// NewClient builds a Client for the host:port (or URL) of a DevTools endpoint.
func NewClient(addr string) (*Client, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// FetchVersion retrieves browser identity and the browser websocket URL.
func (c *Client) FetchVersion(ctx context.Context) (*VersionInfo, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload VersionInfo
	if err := c.do(ctx, http.MethodGet, "/json/version", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchTargets retrieves every target, most recently focused first.
func (c *Client) FetchTargets(ctx context.Context) ([]Target, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Target
	if err := c.do(ctx, http.MethodGet, "/json/list", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WaitForBrowser polls /json/version until the browser answers or attempts run out.
func (c *Client) WaitForBrowser(ctx context.Context, attempts uint, delay time.Duration) (*VersionInfo, error) {
	var info *VersionInfo
	err := retry.New(
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	).Do(func() error {
		v, err := c.FetchVersion(ctx)
		if err != nil {
			return err
		}
		info = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("devtools endpoint %s unreachable: %w", c.baseURL.Host, err)
	}
	return info, nil
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("devtools %s returned status %d", rel.String(), resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(addr string) (*url.URL, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = defaultDevtoolsAddr
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse devtools address %q: %w", addr, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

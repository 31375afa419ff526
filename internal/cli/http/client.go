// Package httpclient talks to a running judge engine.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	traceIDHeader = "X-Trace-Id"
	userAgent     = "judge-cli"
	// maxResponseBytes bounds what the CLI will buffer from one reply.
	maxResponseBytes = 8 << 20
)

// Reply is one engine answer plus timing.
type Reply struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	TraceID    string
}

// Client sends JSON requests to the engine. base and timeout may change
// between requests from the REPL.
type Client struct {
	base    string
	timeout time.Duration
	hc      *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	c := &Client{hc: &http.Client{}}
	c.SetBaseURL(baseURL)
	c.SetTimeout(timeout)
	return c
}

func (c *Client) BaseURL() string { return c.base }

func (c *Client) Timeout() time.Duration { return c.timeout }

func (c *Client) SetBaseURL(baseURL string) { c.base = strings.TrimRight(baseURL, "/") }

// SetTimeout ignores non-positive values.
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.timeout = timeout
	}
}

// Do sends one request tagged with a fresh trace id, so the engine's log
// lines for it can be found from the CLI output.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (Reply, error) {
	reply := Reply{TraceID: uuid.NewString()}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var payload io.Reader
	if len(body) > 0 {
		payload = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return reply, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(traceIDHeader, reply.TraceID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	reply.Duration = time.Since(start)
	if err != nil {
		return reply, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	reply.StatusCode = resp.StatusCode
	reply.Headers = resp.Header
	if reply.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return reply, fmt.Errorf("read %s %s reply: %w", method, path, err)
	}
	return reply, nil
}

// Package backend talks to a Judge0-compatible execution service using its
// submit-and-wait protocol.
package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"codeduel/internal/common/mq"
	appErr "codeduel/pkg/errors"
	"codeduel/pkg/utils/logger"

	"go.uber.org/zap"
)

// Backend status ids.
const (
	StatusInQueue          = 1
	StatusProcessing       = 2
	StatusAccepted         = 3
	StatusWrongAnswer      = 4
	StatusTimeLimit        = 5
	StatusCompilationError = 6
)

const (
	defaultAPIKeyHeader = "X-RapidAPI-Key"
	defaultHostHeader   = "X-RapidAPI-Host"
	defaultTimeout      = 30 * time.Second
	defaultConcurrency  = 8
	maxErrorBodyBytes   = 512
	maxResponseBytes    = 8 << 20
)

// Config configures the backend client.
type Config struct {
	BaseURL string `yaml:"baseUrl"`
	// APIKey is never read from YAML.
	APIKey       string        `yaml:"-"`
	APIKeyHeader string        `yaml:"apiKeyHeader"`
	Host         string        `yaml:"host"`
	HostHeader   string        `yaml:"hostHeader"`
	Timeout      time.Duration `yaml:"timeout"`
	// MaxConcurrency bounds in-flight calls across all requests.
	MaxConcurrency int `yaml:"maxConcurrency"`
	// QueueWait bounds how long a call waits for a free slot. Zero waits for
	// the whole call deadline.
	QueueWait time.Duration `yaml:"queueWait"`
}

// Submission is one program to run.
type Submission struct {
	SourceCode string
	LanguageID int
	Stdin      string
}

// Result is the backend's terminal report with text fields decoded.
type Result struct {
	StatusID          int
	StatusDescription string
	Stdout            string
	Stderr            string
	CompileOutput     string
	// Time is in seconds and Memory in kilobytes; nil when not reported.
	Time   *float64
	Memory *float64
}

// Client dispatches submissions. It is safe for concurrent use.
type Client struct {
	endpoint   string
	apiKey     string
	keyHeader  string
	host       string
	hostHeader string
	timeout    time.Duration
	queueWait  time.Duration
	httpClient *http.Client
	limiter    *mq.Slots
}

type submitRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

type submitResponse struct {
	Status struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
	Stdout        *string     `json:"stdout"`
	Stderr        *string     `json:"stderr"`
	CompileOutput *string     `json:"compile_output"`
	Message       *string     `json:"message"`
	Time          json.Number `json:"time"`
	Memory        json.Number `json:"memory"`
}

// NewClient creates a backend client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		endpoint:   base + "/submissions?base64_encoded=true&wait=true",
		apiKey:     cfg.APIKey,
		keyHeader:  cfg.APIKeyHeader,
		host:       cfg.Host,
		hostHeader: cfg.HostHeader,
		timeout:    cfg.Timeout,
		queueWait:  cfg.QueueWait,
		httpClient: httpClient,
	}
	if c.keyHeader == "" {
		c.keyHeader = defaultAPIKeyHeader
	}
	if c.hostHeader == "" {
		c.hostHeader = defaultHostHeader
	}
	if c.host == "" {
		c.host = parsed.Host
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	c.limiter = mq.NewSlots(concurrency)
	return c, nil
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Dispatch submits one program and blocks until the backend reports a terminal
// status, ctx is done, or the client deadline passes.
func (c *Client) Dispatch(ctx context.Context, sub Submission) (Result, error) {
	if !c.Configured() {
		return Result{}, appErr.ConfigError("backend api key")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.acquire(ctx); err != nil {
		return Result{}, err
	}
	defer c.limiter.Release()

	payload, err := json.Marshal(submitRequest{
		SourceCode: base64.StdEncoding.EncodeToString([]byte(sub.SourceCode)),
		LanguageID: sub.LanguageID,
		Stdin:      base64.StdEncoding.EncodeToString([]byte(sub.Stdin)),
	})
	if err != nil {
		return Result{}, appErr.Wrap(err, appErr.InternalServerError)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, appErr.Wrap(err, appErr.InternalServerError)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.keyHeader, c.apiKey)
	req.Header.Set(c.hostHeader, c.host)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, c.transportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn(ctx, "backend rejected submission",
			zap.Int("status", resp.StatusCode),
			zap.Int("language_id", sub.LanguageID),
		)
		return Result{}, appErr.Newf(appErr.BackendUnavailable, "backend returned %s: %s", resp.Status, truncate(string(body), maxErrorBodyBytes)).
			WithDetail("status", resp.StatusCode)
	}

	var decoded submitResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return Result{}, appErr.Wrapf(err, appErr.BackendUnavailable, "backend returned malformed body: %s", truncate(string(body), maxErrorBodyBytes))
	}

	result := Result{
		StatusID:          decoded.Status.ID,
		StatusDescription: decoded.Status.Description,
		Stdout:            decodeField(decoded.Stdout),
		Stderr:            decodeField(decoded.Stderr),
		CompileOutput:     decodeField(decoded.CompileOutput),
		Time:              parseNumber(decoded.Time),
		Memory:            parseNumber(decoded.Memory),
	}
	if result.Stderr == "" && decoded.Message != nil {
		result.Stderr = decodeField(decoded.Message)
	}
	logger.Debug(ctx, "backend call finished",
		zap.Int("language_id", sub.LanguageID),
		zap.Int("status_id", result.StatusID),
		zap.Duration("latency", time.Since(start)),
	)
	return result, nil
}

func (c *Client) acquire(ctx context.Context) error {
	waitCtx := ctx
	if c.queueWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.queueWait)
		defer cancel()
	}
	if err := c.limiter.Acquire(waitCtx); err != nil {
		if ctx.Err() != nil {
			return c.transportError(ctx, ctx.Err())
		}
		return appErr.Newf(appErr.JudgeQueueFull, "backend concurrency limit reached (%d in flight)", c.limiter.InUse())
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return appErr.Wrapf(err, appErr.Timeout, "backend did not answer within %s", c.timeout)
	}
	if errors.Is(err, context.Canceled) {
		return appErr.Wrap(err, appErr.Timeout).WithMessage("request cancelled")
	}
	return appErr.Wrapf(err, appErr.BackendUnavailable, "backend request failed: %v", err)
}

// decodeField decodes a base64 field. Text that does not decode to valid
// UTF-8 is returned unchanged.
func decodeField(raw *string) string {
	if raw == nil || *raw == "" {
		return ""
	}
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, *raw)
	b, err := base64.StdEncoding.DecodeString(compact)
	if err != nil || !utf8.Valid(b) {
		return *raw
	}
	return string(b)
}

func parseNumber(n json.Number) *float64 {
	if n == "" {
		return nil
	}
	v, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return nil
	}
	return &v
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}

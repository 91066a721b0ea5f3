// Package academy is the HTTP client for the remote academy REST API.
// It covers the auth gateway (code exchange, profile fetch) and the
// session and booking data endpoints. Every failure is returned as a
// *failure.Error so callers can apply a recovery policy by kind.
package academy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"aiga/internal/adapters/http/perf"
	"aiga/internal/domain/failure"
)

// DefaultTimeout bounds every academy call when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// RequestIDHeader carries a fresh identifier on every outgoing call.
const RequestIDHeader = "X-Request-ID"

// Config configures a Client.
type Config struct {
	BaseURL    string        // e.g. "https://academy.example.com"
	Timeout    time.Duration // 0 means DefaultTimeout
	HTTPClient *http.Client  // optional; Timeout is ignored when set
	Collector  *perf.Collector
}

// Client talks to the academy API. It holds no session state; the bearer
// token is passed explicitly to every authenticated call.
type Client struct {
	baseURL   string
	http      *http.Client
	collector *perf.Collector
	newID     func() string
}

// New creates a Client.
// PRE: cfg.BaseURL is an absolute URL
// POST: Returned client applies cfg.Timeout (or DefaultTimeout) to every call
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      hc,
		collector: cfg.Collector,
		newID:     uuid.NewString,
	}
}

// call is one outgoing request.
type call struct {
	op     string // stable operation name used in errors and logs
	method string
	path   string
	token  string // bearer token; empty for public endpoints
	body   any    // JSON-encoded when non-nil
	out    any    // decoded from a 2xx body when non-nil
}

// do performs c and classifies the result.
// POST: Returns nil on 2xx (with c.out decoded), or a *failure.Error
func (cl *Client) do(ctx context.Context, c call) error {
	var reader io.Reader
	if c.body != nil {
		data, err := json.Marshal(c.body)
		if err != nil {
			return failure.Transport(c.op, fmt.Errorf("marshal body: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, cl.baseURL+c.path, reader)
	if err != nil {
		return failure.Transport(c.op, fmt.Errorf("build request: %w", err))
	}
	requestID := perf.RequestID(ctx)
	if requestID == "" {
		requestID = cl.newID()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := cl.http.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	cl.observe(c, requestID, status, start, err)
	if err != nil {
		return failure.Transport(c.op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return failure.Transport(c.op, fmt.Errorf("read body: %w", err))
	}

	switch {
	case status == http.StatusUnauthorized:
		return failure.Unauthorized(c.op, status, detailFrom(respBody))
	case status >= 200 && status < 300:
		if c.out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, c.out); err != nil {
			return failure.Transport(c.op, fmt.Errorf("decode response: %w", err))
		}
		return nil
	case status >= 400 && status < 500:
		return failure.Rejected(c.op, status, detailFrom(respBody))
	default:
		fe := failure.Transport(c.op, fmt.Errorf("academy returned %d", status))
		fe.Status = status
		fe.Detail = detailFrom(respBody)
		return fe
	}
}

func (cl *Client) observe(c call, requestID string, status int, start time.Time, err error) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	attrs := []any{
		"op", c.op,
		"method", c.method,
		"path", c.path,
		"status", status,
		"duration_ms", durationMs,
		"request_id", requestID,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		slog.Warn("upstream_call", attrs...)
	} else {
		slog.Debug("upstream_call", attrs...)
	}
	cl.collector.Record(perf.Entry{
		Kind:       perf.KindUpstream,
		Path:       c.method + " " + c.path,
		StatusCode: status,
		DurationMs: durationMs,
		Timestamp:  start,
	})
}

// detailFrom extracts a human-readable message from an error body.
// The academy answers {"detail": "..."} for business errors and
// {"detail": [{"loc": [...], "msg": "..."}]} for schema errors.
func detailFrom(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return strings.TrimSpace(string(body))
	}
	if len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if field := lastLoc(it.Loc); field != "" {
					msgs = append(msgs, field+": "+it.Msg)
				} else {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return envelope.Message
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}

// ErrEmptyToken is returned by authenticated calls made without a token.
var ErrEmptyToken = errors.New("session token is required")

func requireToken(op, token string) error {
	if token == "" {
		return failure.Unauthorized(op, 0, ErrEmptyToken.Error())
	}
	return nil
}

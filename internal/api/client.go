// Package api is the HTTP client for the tracepay backend admin API.
//
// Identical requests that are in flight at the same time share one round
// trip. The bearer token is read from the session store on every request so
// a login in one place is seen everywhere.
package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"tracepay/internal/session"
)

const (
	DefaultTimeout      = 15 * time.Second
	DefaultStatsTimeout = 30 * time.Second

	maxErrorBody    = 64 << 10
	maxResponseBody = 32 << 20
)

// ErrUnauthorized matches any *Error with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrResponseTooLarge is returned when a response body exceeds the read limit.
var ErrResponseTooLarge = errors.New("response body too large")

// ErrTimeout is returned when the backend does not answer in time.
var ErrTimeout = errors.New("request timeout - backend may be down or too slow")

// Error is a non-2xx response from the backend.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL      string
	http         *http.Client
	session      *session.Store
	logger       *slog.Logger
	timeout      time.Duration
	statsTimeout time.Duration
	maxBody      int64
	inflight     singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeouts sets the default and stats endpoint timeouts. Zero values
// keep the defaults.
func WithTimeouts(def, stats time.Duration) Option {
	return func(c *Client) {
		if def > 0 {
			c.timeout = def
		}
		if stats > 0 {
			c.statsTimeout = stats
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for baseURL. A trailing slash is dropped and a
// localhost host is pinned to the IPv4 loopback.
func New(baseURL string, sess *session.Store, opts ...Option) (*Client, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:      base,
		session:      sess,
		logger:       slog.Default(),
		timeout:      DefaultTimeout,
		statsTimeout: DefaultStatsTimeout,
		maxBody:      maxResponseBody,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", raw)
	}
	if u.Hostname() == "localhost" {
		if port := u.Port(); port != "" {
			u.Host = net.JoinHostPort("127.0.0.1", port)
		} else {
			u.Host = "127.0.0.1"
		}
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

type request struct {
	method   string
	endpoint string
	body     any
	timeout  time.Duration
}

// do sends req and decodes a successful response into out.
func (c *Client) do(ctx context.Context, req request, out any) error {
	if !strings.HasPrefix(req.endpoint, "/") {
		req.endpoint = "/" + req.endpoint
	}
	if req.method == "" {
		req.method = http.MethodGet
	}
	if req.timeout <= 0 {
		req.timeout = c.timeout
	}
	target := c.baseURL + req.endpoint

	var payload []byte
	if req.body != nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return fmt.Errorf("encode %s %s: %w", req.method, req.endpoint, err)
		}
	}

	key := fmt.Sprintf("%s:%s:%d", req.method, target, req.timeout.Milliseconds())
	if len(payload) > 0 {
		sum := sha256.Sum256(payload)
		key += ":" + hex.EncodeToString(sum[:8])
	}

	// The shared round trip must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(key, func() (any, error) {
		return c.roundTrip(shared, req.method, target, payload, req.timeout)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(res.Val.([]byte), out); err != nil {
			return fmt.Errorf("decode %s %s: %w", req.method, req.endpoint, err)
		}
		return nil
	}
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.session != nil {
		token, ok, err := c.session.Token(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, "Cannot read session token", "component", "api", "error", err)
		} else if ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s %s: %w", method, target, ErrTimeout)
		}
		return nil, fmt.Errorf("%s %s: is the backend running at %s? %w", method, target, c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err == nil && int64(len(data)) > c.maxBody && resp.StatusCode/100 == 2 {
		return nil, fmt.Errorf("%s %s: %w (limit %d bytes)", method, target, ErrResponseTooLarge, c.maxBody)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s %s: %w", method, target, ErrTimeout)
		}
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.DebugContext(ctx, "API request",
		"component", "api",
		"method", method,
		"endpoint", target,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Detail: errorDetail(resp, data)}
		c.logger.WarnContext(ctx, "API error", "component", "api",
			"endpoint", target, "status_code", resp.StatusCode, "error", apiErr.Detail)
		return nil, apiErr
	}
	if len(data) == 0 {
		data = []byte("null")
	}
	return data, nil
}

// errorDetail prefers the backend's {"detail": "..."} body.
func errorDetail(resp *http.Response, data []byte) string {
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil && s != "" {
			return s
		}
		if string(body.Detail) != "null" {
			// Validation errors come back as a list of objects.
			return string(body.Detail)
		}
	}
	return fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

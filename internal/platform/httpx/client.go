package httpx

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
)

// Authorizer supplies the bearer credential for outgoing requests and is told
// when the API rejects one.
type Authorizer interface {
	Token(ctx context.Context) string
	Reject(ctx context.Context, token string)
}

// Observer records the outcome of every request. status is zero when no
// response was received.
type Observer interface {
	ObserveRequest(method, path string, status int, elapsed time.Duration)
}

// Client performs JSON requests against the API base URL. It never retries.
type Client struct {
	baseURL  string
	http     *http.Client
	auth     Authorizer
	logger   *slog.Logger
	observer Observer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero keeps requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Transport: c.http.Transport, Timeout: d}
		}
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver reports each request to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient constructs a Client rooted at baseURL.
func NewClient(baseURL string, auth Authorizer, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		auth:    auth,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends a request carrying the current credential. body is JSON encoded
// when non-nil; a 2xx response is decoded into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	token := ""
	if c.auth != nil {
		token = c.auth.Token(ctx)
	}
	return c.send(ctx, method, path, token, body, out)
}

// DoAs sends a request with an explicit credential instead of the current one.
func (c *Client) DoAs(ctx context.Context, method, path, token string, body, out any) error {
	return c.send(ctx, method, path, token, body, out)
}

func (c *Client) send(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httpx: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("httpx: build %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.observer != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.observer.ObserveRequest(method, path, status, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("api request failed", slog.String("method", method), slog.String("path", path), slog.String("request_id", requestID), slog.Any("error", err))
		return fmt.Errorf("httpx: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpx: read %s %s: %w", method, path, err)
	}

	kind := Classify(resp.StatusCode)
	if kind == nil {
		if out == nil || len(bytes.TrimSpace(payload)) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("httpx: decode %s %s: %w", method, path, err)
		}
		return nil
	}

	statusErr := &StatusError{
		Status:    resp.StatusCode,
		Method:    method,
		Path:      path,
		Detail:    describe(payload),
		RequestID: requestID,
		kind:      kind,
	}
	c.logger.Warn("api request rejected",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", requestID),
		slog.String("detail", statusErr.Detail),
	)
	if errors.Is(kind, ErrUnauthorized) && token != "" && c.auth != nil {
		c.auth.Reject(ctx, token)
	}
	return statusErr
}

// Package httpclient provides the shared outbound HTTP client used by every
// backend. It applies one uniform bounded-retry policy and attaches the
// cross-cutting request metadata (product identifier, correlation ID).
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"agent-gateway/internal/common/logger"
	"agent-gateway/internal/common/metrics"
)

const (
	// UserAgent identifies the product on every outbound call.
	UserAgent = "LaneAudit/1.0"

	// CorrelationHeader is forwarded unchanged when the caller supplied one.
	CorrelationHeader = "X-Correlation-ID"

	maxAttempts = 3
	baseDelay   = 200 * time.Millisecond
	maxJitter   = 50 * time.Millisecond
)

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

type correlationKey struct{}

// WithCorrelationID stores the caller's correlation ID for outbound calls.
func WithCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cid)
}

// CorrelationID returns the correlation ID stored in ctx, if any.
func CorrelationID(ctx context.Context) string {
	cid, _ := ctx.Value(correlationKey{}).(string)
	return cid
}

// Client wraps http.Client with the gateway retry policy.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger
	backend    string
}

// New creates a resilient client. The backend name labels retry metrics.
func New(timeout time.Duration, log logger.Logger, backend string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  log.With(map[string]interface{}{"backend": backend}),
		backend: backend,
	}
}

// PostJSON posts a JSON payload with retries. The body is rebuilt for each
// attempt so a consumed reader never poisons a retry.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return c.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
}

// Do executes the request with the shared policy: 3 total attempts, retrying
// on 429/5xx and connection failures, with exponential backoff plus a small
// jitter before attempts 2 and 3. The last error is returned when the budget
// is exhausted.
func (c *Client) Do(ctx context.Context, newRequest func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.BackendRetriesTotal.WithLabelValues(c.backend).Inc()
			backoff := baseDelay*time.Duration(1<<(attempt-1)) + time.Duration(rand.Int63n(int64(maxJitter)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := newRequest()
		if err != nil {
			return nil, err
		}
		c.decorate(ctx, req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if retryableStatus[resp.StatusCode] {
			resp.Body.Close()
			lastErr = &StatusError{Status: resp.StatusCode}
			c.logger.Warn("backend returned retryable status", map[string]interface{}{
				"status":  resp.StatusCode,
				"attempt": attempt + 1,
			})
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (c *Client) decorate(ctx context.Context, req *http.Request) {
	req.Header.Set("User-Agent", UserAgent)
	if cid := CorrelationID(ctx); cid != "" {
		req.Header.Set(CorrelationHeader, cid)
	}
}

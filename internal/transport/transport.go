// Package transport provides http.RoundTrippers used by the agent service client
package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxRetries bounds how often a rate limited request is replayed
const DefaultMaxRetries = 5

// RateLimitedTransport replays requests rejected with 429 after waiting for the duration given in the
// Retry-After header. Responses without a usable Retry-After are returned as-is.
type RateLimitedTransport struct {
	base       http.RoundTripper
	maxRetries int
}

func WithRateLimiting(base http.RoundTripper) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RateLimitedTransport{base: base, maxRetries: DefaultMaxRetries}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Preserve the original request body for retries
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		err = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil || resp.StatusCode != http.StatusTooManyRequests || attempt >= t.maxRetries {
			return resp, err
		}

		wait := retryAfter(resp.Header.Get("Retry-After"), time.Now())
		if wait <= 0 {
			return resp, nil
		}
		if err := resp.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close response body: %w", err)
		}

		zap.S().Infof("Rate limited by %s, waiting %s", req.URL.Host, wait)
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}

// retryAfter parses a Retry-After value given either in seconds or as an HTTP date
func retryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		return at.Sub(now)
	}
	return 0
}

// HeaderTransport sets a fixed header on every request, e.g. the service's X-Api-Key
type HeaderTransport struct {
	base  http.RoundTripper
	key   string
	value string
}

func WithHeader(base http.RoundTripper, key, value string) *HeaderTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &HeaderTransport{base: base, key: key, value: value}
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	clone := req.Clone(req.Context())
	clone.Header.Set(t.key, t.value)
	return t.base.RoundTrip(clone)
}

// Package transport provides HTTP plumbing for calls to upstream assistant APIs.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// RetryingTransport is an http.RoundTripper that retries requests rejected with
// 429, waiting out the Retry-After header before each retry
type RetryingTransport struct {
	base http.RoundTripper
}

func WithRateLimitRetries(base http.RoundTripper) *RetryingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryingTransport{base: base}
}

func (t *RetryingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Buffer the body so it can be replayed on retry
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if err := req.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return resp, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		wait := parseRetryAfter(resp.Header.Get("retry-after"))
		if wait <= 0 {
			// No usable hint from the server, surface the 429 to the caller
			return resp, nil
		}

		if err := resp.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close response body: %w", err)
		}

		log.Printf("Rate limited by upstream, waiting %s", wait)
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}

// parseRetryAfter interprets a Retry-After header value, which may be a number
// of seconds or an HTTP date. Returns 0 when the value is absent or unusable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := time.Parse(time.RFC1123, value); err == nil {
		return time.Until(retryTime)
	}
	return 0
}

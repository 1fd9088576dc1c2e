// Package platform is a minimal Mattermost REST client covering the calls
// the callback subsystem makes: post lifecycle, file transfer, user and
// direct-channel lookup, and the websocket event feed.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const apiPrefix = "/api/v4"

// ErrNotFound marks a target that no longer exists on the platform
// (deleted post, unknown user). Callers distinguish it from transport
// failure.
var ErrNotFound = errors.New("platform: not found")

type Client struct {
	http    *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
}

type Option func(*Client)

// WithRateLimit paces outbound calls; burst allows short spikes.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func New(httpClient *http.Client, baseURL, token string, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues one API request with bounded retries. A 404 maps to
// ErrNotFound without retrying; 429 honors Retry-After; 5xx backs off on a
// short fixed table.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("platform client is not initialized")
	}
	if c.token == "" {
		return fmt.Errorf("platform token is required")
	}
	if c.baseURL == "" {
		return fmt.Errorf("platform base url is required")
	}

	var bodyRaw []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		bodyRaw = data
	}

	const maxAttempts = 3
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		var reader io.Reader
		if bodyRaw != nil {
			reader = bytes.NewReader(bodyRaw)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if bodyRaw != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		status := 0
		headers := http.Header{}
		if err != nil {
			lastErr = err
		} else {
			status = resp.StatusCode
			headers = resp.Header
			respRaw, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = readErr
			case status == http.StatusNotFound:
				return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
			case status >= 200 && status < 300:
				if out == nil || len(respRaw) == 0 {
					return nil
				}
				if parseErr := json.Unmarshal(respRaw, out); parseErr != nil {
					return fmt.Errorf("decode %s %s: %w", method, path, parseErr)
				}
				return nil
			default:
				lastErr = fmt.Errorf("%s %s: http %d", method, path, status)
			}
		}

		if attempt >= maxAttempts {
			break
		}
		if status == 0 {
			status = http.StatusBadGateway
		}
		wait, retryable := retryDelay(status, headers, attempt)
		if !retryable {
			break
		}
		if err := sleepWithContext(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

func retryDelay(status int, headers http.Header, attempt int) (time.Duration, bool) {
	switch {
	case status == http.StatusTooManyRequests:
		retryAfter := strings.TrimSpace(headers.Get("Retry-After"))
		if retryAfter == "" {
			return 1 * time.Second, true
		}
		secs, err := strconv.Atoi(retryAfter)
		if err != nil || secs <= 0 {
			return 1 * time.Second, true
		}
		return time.Duration(secs) * time.Second, true
	case status >= 500 && status <= 599:
		switch attempt {
		case 1:
			return 300 * time.Millisecond, true
		case 2:
			return 1 * time.Second, true
		default:
			return 2 * time.Second, true
		}
	default:
		return 0, false
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

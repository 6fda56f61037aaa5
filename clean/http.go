package clean

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultRequestsPerMinute limits calls to a remote cleaner.
	DefaultRequestsPerMinute = 60

	// DefaultMaxRetries is the number of retries for transient failures.
	DefaultMaxRetries = 2

	maxResponseSize = 4 << 20
)

// Request is the body of a clean call.
type Request struct {
	Text string `json:"text"`
}

// Response is the body returned by a cleaning service.
type Response struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// HTTPConfig configures an HTTPCleaner.
type HTTPConfig struct {
	Endpoint          string
	RequestsPerMinute int
	MaxRetries        int
	Client            *http.Client
}

// HTTPCleaner calls a remote cleaning service with a JSON POST. Calls are
// rate limited and transient failures are retried with backoff while the
// context allows.
type HTTPCleaner struct {
	endpoint   string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    func(attempt int) time.Duration
	logger     *log.Logger
}

// NewHTTPCleaner creates a client for the service at cfg.Endpoint.
func NewHTTPCleaner(cfg HTTPConfig) (*HTTPCleaner, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("clean endpoint is required")
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}

	return &HTTPCleaner{
		endpoint:   cfg.Endpoint,
		client:     cfg.Client,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		maxRetries: cfg.MaxRetries,
		backoff:    Backoff,
		logger:     log.Default().WithPrefix("clean"),
	}, nil
}

// Clean implements Cleaner.
func (c *HTTPCleaner) Clean(ctx context.Context, raw string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt - 1)
			c.logger.Debug("Retrying clean call", "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		text, err := c.call(ctx, raw)
		if err == nil {
			return text, nil
		}
		if !IsRetryable(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("clean failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *HTTPCleaner) call(ctx context.Context, raw string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(Request{Text: raw})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("clean service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("clean service status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("clean service: %s", out.Error)
	}
	return out.Text, nil
}

// Close releases idle connections.
func (c *HTTPCleaner) Close() {
	c.client.CloseIdleConnections()
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 250 * time.Millisecond
	if base > 5*time.Second {
		base = 5 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

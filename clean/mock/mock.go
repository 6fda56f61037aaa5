// Package mock provides a scriptable cleaner for tests.
package mock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrCleanFailed is the default failure returned by a failing cleaner.
var ErrCleanFailed = errors.New("mock clean failed")

// Cleaner implements clean.Cleaner for testing. By default it upper-cases
// its input so tests can tell cleaned text from raw text.
type Cleaner struct {
	mu sync.Mutex

	// Control for testing
	delay      time.Duration
	shouldFail bool
	failure    error
	transform  func(string) string
	gate       chan struct{}

	// State
	calls  []string
	active int
	peak   int
}

// New creates a mock cleaner.
func New() *Cleaner {
	return &Cleaner{
		transform: strings.ToUpper,
		failure:   ErrCleanFailed,
	}
}

// SetDelay makes every call take d, or until the context ends.
func (c *Cleaner) SetDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
}

// SetFailure makes every call fail with err. A nil err restores success.
func (c *Cleaner) SetFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shouldFail = err != nil
	if err != nil {
		c.failure = err
	}
}

// SetTransform replaces the text transformation.
func (c *Cleaner) SetTransform(fn func(string) string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform = fn
}

// Block holds every call until Release is called.
func (c *Cleaner) Block() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gate = make(chan struct{})
}

// Release lets blocked calls finish.
func (c *Cleaner) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gate != nil {
		close(c.gate)
		c.gate = nil
	}
}

// Clean records the call and returns the transformed text.
func (c *Cleaner) Clean(ctx context.Context, raw string) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, raw)
	c.active++
	if c.active > c.peak {
		c.peak = c.active
	}
	delay := c.delay
	gate := c.gate
	fail := c.shouldFail
	failure := c.failure
	transform := c.transform
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.active--
		c.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if fail {
		return "", failure
	}
	return transform(raw), nil
}

// CallCount returns the number of Clean calls.
func (c *Cleaner) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Calls returns the raw text of every call in order.
func (c *Cleaner) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// Active returns the number of calls in progress.
func (c *Cleaner) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// PeakConcurrency returns the largest number of simultaneous calls seen.
func (c *Cleaner) PeakConcurrency() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

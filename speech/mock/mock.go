// Package mock provides a scriptable speaker for tests.
package mock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSpeakFailed is the default failure returned by a failing speaker.
var ErrSpeakFailed = errors.New("mock speak failed")

// Speaker implements speech.Speaker for testing.
type Speaker struct {
	mu sync.Mutex

	// Control for testing
	delay      time.Duration
	shouldFail bool
	failure    error
	gate       chan struct{}
	started    chan string

	// State
	spoken []string
	active int
}

// New creates a mock speaker.
func New() *Speaker {
	return &Speaker{failure: ErrSpeakFailed}
}

// SetDelay makes every call take d, or until the context ends.
func (s *Speaker) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetFailure makes every call fail with err. A nil err restores success.
func (s *Speaker) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldFail = err != nil
	if err != nil {
		s.failure = err
	}
}

// Block holds every call until Release is called. Blocked calls ignore
// their context, like a speech engine that cannot be interrupted.
func (s *Speaker) Block() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
}

// Release lets blocked calls finish.
func (s *Speaker) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

// Started returns a channel receiving the text of every call as it starts.
func (s *Speaker) Started() <-chan string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started == nil {
		s.started = make(chan string, 64)
	}
	return s.started
}

// Speak records the text and waits as configured.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.active++
	delay := s.delay
	gate := s.gate
	fail := s.shouldFail
	failure := s.failure
	started := s.started
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	if started != nil {
		select {
		case started <- text:
		default:
		}
	}

	if gate != nil {
		<-gate
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if fail {
		return failure
	}
	return nil
}

// Spoken returns the text of every call in order.
func (s *Speaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	copy(out, s.spoken)
	return out
}

// CallCount returns the number of Speak calls.
func (s *Speaker) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spoken)
}

// Active returns the number of calls in progress.
func (s *Speaker) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Common errors for speech adapters.
var (
	ErrEmptyText     = errors.New("nothing to speak")
	ErrUnknownEngine = errors.New("unknown speech engine")
	ErrNoAudio       = errors.New("audio output not available")
)

// Speaker speaks text and returns once speaking has finished.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Func adapts an ordinary function to the Speaker interface.
type Func func(ctx context.Context, text string) error

// Speak calls f(ctx, text).
func (f Func) Speak(ctx context.Context, text string) error {
	return f(ctx, text)
}

// DefaultWordsPerMinute is the pacing of a LogSpeaker.
const DefaultWordsPerMinute = 180

// LogSpeaker writes each text to an output instead of producing audio. With
// a non-zero WordsPerMinute it also waits roughly as long as reading the
// text aloud would take.
type LogSpeaker struct {
	Out            io.Writer
	WordsPerMinute int

	mu sync.Mutex
}

// NewLogSpeaker creates a speaker writing to out, or stdout when out is nil.
func NewLogSpeaker(out io.Writer, wordsPerMinute int) *LogSpeaker {
	if out == nil {
		out = os.Stdout
	}
	return &LogSpeaker{Out: out, WordsPerMinute: wordsPerMinute}
}

// Speak writes text and waits for its reading time.
func (s *LogSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	s.mu.Lock()
	_, err := fmt.Fprintln(s.Out, text)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}

	d := ReadingTime(text, s.WordsPerMinute)
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadingTime estimates how long text takes to read aloud at
// wordsPerMinute. It returns zero for a non-positive rate.
func ReadingTime(text string, wordsPerMinute int) time.Duration {
	if wordsPerMinute <= 0 {
		return 0
	}
	words := len(strings.Fields(text))
	if words == 0 && utf8.RuneCountInString(text) > 0 {
		words = 1
	}
	return time.Duration(words) * time.Minute / time.Duration(wordsPerMinute)
}

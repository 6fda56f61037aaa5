package reading

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/readaloud/document"
)

// paragraphs builds a document of n paragraphs with the given number of
// lines each.
func paragraphs(n, lines int) *document.Document {
	b := document.NewBuilder("test")
	for p := 1; p <= n; p++ {
		for l := 1; l <= lines; l++ {
			b.Line(fmt.Sprintf("paragraph %d line %d", p, l))
		}
		b.Break()
	}
	return b.Build()
}

func allFragments(doc *document.Document) []*document.Fragment {
	return doc.FragmentsFrom(doc.First(), doc.NumFragments())
}

type highlightCall struct {
	fragment *document.Fragment
	on       bool
}

// recordingHighlighter records every call and tracks the visible state.
type recordingHighlighter struct {
	*HighlightSet

	mu    sync.Mutex
	calls []highlightCall
	on    chan *document.Fragment
}

func newRecordingHighlighter() *recordingHighlighter {
	return &recordingHighlighter{
		HighlightSet: NewHighlightSet(),
		on:           make(chan *document.Fragment, 256),
	}
}

func (h *recordingHighlighter) SetHighlighted(f *document.Fragment, on bool) {
	h.mu.Lock()
	h.calls = append(h.calls, highlightCall{f, on})
	h.mu.Unlock()

	h.HighlightSet.SetHighlighted(f, on)
	if on {
		select {
		case h.on <- f:
		default:
		}
	}
}

func (h *recordingHighlighter) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func waitIdle(t *testing.T, r *Reader) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Reader did not become idle: %v (state %v)", err, r.State())
	}
}

func eventually(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

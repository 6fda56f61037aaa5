package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/readaloud/document"
	"github.com/dgnsrekt/readaloud/reading"
)

type highlightChangedMsg struct{}

// highlighter records the reader's highlights and wakes the UI to repaint.
// The reader calls it while holding its lock, so it never blocks: wake-ups
// coalesce into one pending message.
type highlighter struct {
	set     *reading.HighlightSet
	changed chan struct{}
}

func newHighlighter() *highlighter {
	return &highlighter{
		set:     reading.NewHighlightSet(),
		changed: make(chan struct{}, 1),
	}
}

// SetHighlighted implements reading.Highlighter.
func (h *highlighter) SetHighlighted(f *document.Fragment, on bool) {
	h.set.SetHighlighted(f, on)
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

func (h *highlighter) isHighlighted(f *document.Fragment) bool {
	return h.set.IsHighlighted(f)
}

// current returns the last highlighted fragment in reading order.
func (h *highlighter) current() *document.Fragment {
	frags := h.set.Fragments()
	if len(frags) == 0 {
		return nil
	}
	return frags[len(frags)-1]
}

func (h *highlighter) wait() tea.Cmd {
	return func() tea.Msg {
		<-h.changed
		return highlightChangedMsg{}
	}
}

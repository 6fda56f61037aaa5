package reading

import (
	"sort"
	"sync"

	"github.com/dgnsrekt/readaloud/document"
)

// Highlighter shows or hides the visual highlight of a fragment. Calls must
// not block; the reader makes them while holding its lock.
type Highlighter interface {
	SetHighlighted(f *document.Fragment, on bool)
}

// HighlighterFunc adapts a function to the Highlighter interface.
type HighlighterFunc func(f *document.Fragment, on bool)

// SetHighlighted calls fn(f, on).
func (fn HighlighterFunc) SetHighlighted(f *document.Fragment, on bool) {
	fn(f, on)
}

// HighlightSet is a concurrency-safe set of highlighted fragments. Setting a
// state a fragment already has is a no-op.
type HighlightSet struct {
	mu  sync.RWMutex
	set map[*document.Fragment]struct{}
}

// NewHighlightSet creates an empty set.
func NewHighlightSet() *HighlightSet {
	return &HighlightSet{set: make(map[*document.Fragment]struct{})}
}

// SetHighlighted implements Highlighter.
func (h *HighlightSet) SetHighlighted(f *document.Fragment, on bool) {
	if f == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if on {
		h.set[f] = struct{}{}
	} else {
		delete(h.set, f)
	}
}

// IsHighlighted reports whether f is highlighted.
func (h *HighlightSet) IsHighlighted(f *document.Fragment) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.set[f]
	return ok
}

// Len returns the number of highlighted fragments.
func (h *HighlightSet) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.set)
}

// Fragments returns the highlighted fragments in reading order.
func (h *HighlightSet) Fragments() []*document.Fragment {
	h.mu.RLock()
	out := make([]*document.Fragment, 0, len(h.set))
	for f := range h.set {
		out = append(out, f)
	}
	h.mu.RUnlock()

	sortFragments(out)
	return out
}

func sortFragments(frags []*document.Fragment) {
	sort.Slice(frags, func(i, j int) bool {
		if frags[i].PageNum != frags[j].PageNum {
			return frags[i].PageNum < frags[j].PageNum
		}
		return frags[i].Index < frags[j].Index
	})
}

package reading

import "testing"

func TestHighlightSetIdempotent(t *testing.T) {
	doc := paragraphs(1, 3)
	frags := allFragments(doc)
	h := NewHighlightSet()

	h.SetHighlighted(frags[0], true)
	h.SetHighlighted(frags[0], true)
	if h.Len() != 1 || !h.IsHighlighted(frags[0]) {
		t.Errorf("Expected one highlighted fragment, got %d", h.Len())
	}

	h.SetHighlighted(frags[0], false)
	h.SetHighlighted(frags[0], false)
	h.SetHighlighted(frags[1], false)
	if h.Len() != 0 {
		t.Errorf("Expected no highlights, got %d", h.Len())
	}

	h.SetHighlighted(nil, true)
	if h.Len() != 0 {
		t.Error("Expected nil fragment to be ignored")
	}
}

func TestHighlightSetFragmentsInReadingOrder(t *testing.T) {
	frags := allFragments(paragraphs(2, 2))
	h := NewHighlightSet()
	h.SetHighlighted(frags[3], true)
	h.SetHighlighted(frags[0], true)
	h.SetHighlighted(frags[2], true)

	got := h.Fragments()
	if len(got) != 3 || got[0] != frags[0] || got[1] != frags[2] || got[2] != frags[3] {
		t.Errorf("Unexpected order %v", got)
	}
}

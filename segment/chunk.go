package segment

import (
	"strings"

	"github.com/dgnsrekt/readaloud/document"
)

// Chunk is one paragraph: an ordered, non-empty run of fragments read as a
// unit.
type Chunk struct {
	Fragments []*document.Fragment
	Seq       int    // Emission order
	Cleaned   string // Text to speak once cleaning has run

	cleaned bool
}

// Len returns the number of fragments in the chunk.
func (c *Chunk) Len() int {
	return len(c.Fragments)
}

// Raw returns the trimmed fragment texts joined by single spaces.
func (c *Chunk) Raw() string {
	parts := make([]string, 0, len(c.Fragments))
	for _, f := range c.Fragments {
		if t := f.Trimmed(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// SetCleaned records the text to speak for this chunk.
func (c *Chunk) SetCleaned(text string) {
	c.Cleaned = text
	c.cleaned = true
}

// HasCleaned reports whether cleaning (or its fallback) has run.
func (c *Chunk) HasCleaned() bool {
	return c.cleaned
}

// First returns the chunk's first fragment, or nil for an empty chunk.
func (c *Chunk) First() *document.Fragment {
	if len(c.Fragments) == 0 {
		return nil
	}
	return c.Fragments[0]
}

// Last returns the chunk's last fragment, or nil for an empty chunk.
func (c *Chunk) Last() *document.Fragment {
	if len(c.Fragments) == 0 {
		return nil
	}
	return c.Fragments[len(c.Fragments)-1]
}

package reading

import (
	"sync"

	"github.com/dgnsrekt/readaloud/document"
)

// Entry is one playback step. The first entry of a chunk carries the text
// to speak for the whole chunk; the rest only drive highlighting.
type Entry struct {
	Fragment       *document.Fragment
	Text           string
	IsChunkStart   bool
	ChunkSize      int // Fragments in the chunk
	ReadyForSpeech bool
	ChunkSeq       int
}

// Queue holds the entries not yet played. It is shared between the playback
// loop and Stop, so every method locks.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
}

// Push appends entries in order.
func (q *Queue) Push(entries ...Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entries...)
}

// Pop removes and returns the head entry.
func (q *Queue) Pop() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, false
	}
	e := q.entries[0]
	q.entries[0] = Entry{}
	q.entries = q.entries[1:]
	return e, true
}

// PopContinuation removes the head entry only if it continues the current
// chunk.
func (q *Queue) PopContinuation() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 || q.entries[0].IsChunkStart {
		return Entry{}, false
	}
	e := q.entries[0]
	q.entries[0] = Entry{}
	q.entries = q.entries[1:]
	return e, true
}

// Peek returns the head entry without removing it.
func (q *Queue) Peek() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, false
	}
	return q.entries[0], true
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Clear drops every entry and returns how many were dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.entries)
	q.entries = nil
	return n
}

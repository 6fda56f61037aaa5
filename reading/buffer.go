package reading

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/document"
	"github.com/dgnsrekt/readaloud/segment"
)

// DefaultBufferSize is the number of fragments materialized per refill.
const DefaultBufferSize = 10

// BufferStats describes the lookahead buffer.
type BufferStats struct {
	Size      int
	Buffered  int
	Queued    int
	Refills   int64
	Trimmed   int
	Refilling bool
	Exhausted bool
}

type refillResult struct {
	entries   []Entry
	chunks    int
	last      *document.Fragment
	exhausted bool
}

// Buffer keeps processed entries ahead of the playback position. Refills
// run in the background and at most one is outstanding at any time; their
// results are handed back over a channel and applied by the playback loop
// through Collect or Await.
type Buffer struct {
	doc   *document.Document
	seg   *segment.Segmenter
	proc  *Processor
	size  int
	start *document.Fragment

	queue *Queue

	refilling atomic.Bool
	exhausted atomic.Bool
	refills   atomic.Int64
	results   chan refillResult

	mu      sync.Mutex
	entries []Entry            // lookback window of everything buffered
	tail    *document.Fragment // last fragment buffered so far
	nextSeq int
	trimmed int

	logger *log.Logger
}

// NewBuffer creates a buffer that starts reading at start.
func NewBuffer(doc *document.Document, seg *segment.Segmenter, proc *Processor, size int, start *document.Fragment) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{
		doc:     doc,
		seg:     seg,
		proc:    proc,
		size:    size,
		start:   start,
		queue:   &Queue{},
		results: make(chan refillResult, 1),
		logger:  log.Default().WithPrefix("buffer"),
	}
}

// Queue returns the playback queue fed by this buffer.
func (b *Buffer) Queue() *Queue {
	return b.queue
}

// Pop removes the next entry to play.
func (b *Buffer) Pop() (Entry, bool) {
	return b.queue.Pop()
}

// Len returns the number of queued entries.
func (b *Buffer) Len() int {
	return b.queue.Len()
}

// Refilling reports whether a refill is outstanding.
func (b *Buffer) Refilling() bool {
	return b.refilling.Load()
}

// Exhausted reports whether the end of the document has been buffered.
func (b *Buffer) Exhausted() bool {
	return b.exhausted.Load()
}

// NeedsRefill reports whether the queue has fallen below half the buffer
// size and a new refill may start.
func (b *Buffer) NeedsRefill() bool {
	return b.queue.Len() < b.size/2 && !b.refilling.Load() && !b.exhausted.Load()
}

// StartRefill begins materializing the next window of fragments in the
// background. It returns false without doing anything if a refill is
// already outstanding or the document is exhausted.
func (b *Buffer) StartRefill(ctx context.Context) bool {
	if b.exhausted.Load() {
		return false
	}
	if !b.refilling.CompareAndSwap(false, true) {
		return false
	}

	b.mu.Lock()
	anchor := b.start
	if b.tail != nil {
		anchor = b.doc.Next(b.tail)
	}
	b.mu.Unlock()

	if anchor == nil {
		b.exhausted.Store(true)
		b.refilling.Store(false)
		return false
	}

	b.refills.Add(1)
	go func() {
		b.results <- b.fill(ctx, anchor)
	}()
	return true
}

// fill runs off the playback goroutine and touches no buffer state.
func (b *Buffer) fill(ctx context.Context, anchor *document.Fragment) refillResult {
	frags := b.doc.FragmentsFrom(anchor, b.size)
	if len(frags) == 0 {
		return refillResult{exhausted: true}
	}

	chunks := b.proc.Process(ctx, b.seg.SegmentRun(frags))
	last := frags[len(frags)-1]

	b.logger.Debug("Refilled",
		"from", frags[0].ID(),
		"to", last.ID(),
		"fragments", len(frags),
		"chunks", len(chunks))

	return refillResult{
		entries:   Expand(chunks),
		chunks:    len(chunks),
		last:      last,
		exhausted: b.doc.NextNonEmpty(last) == nil,
	}
}

// Collect applies a finished refill if one is ready. It never blocks.
func (b *Buffer) Collect() bool {
	select {
	case res := <-b.results:
		b.apply(res)
		return true
	default:
		return false
	}
}

// Await blocks until the outstanding refill finishes and applies it. It
// returns false if no refill is outstanding or ctx ends first.
func (b *Buffer) Await(ctx context.Context) bool {
	if !b.refilling.Load() {
		return b.Collect()
	}
	select {
	case res := <-b.results:
		b.apply(res)
		return true
	case <-ctx.Done():
		return false
	}
}

func (b *Buffer) apply(res refillResult) {
	b.mu.Lock()
	for i := range res.entries {
		res.entries[i].ChunkSeq += b.nextSeq
	}
	b.nextSeq += res.chunks
	if res.last != nil {
		b.tail = res.last
	}
	b.entries = append(b.entries, res.entries...)
	if len(b.entries) > 2*b.size {
		drop := len(b.entries) - b.size
		b.trimmed += drop
		b.entries = append([]Entry(nil), b.entries[drop:]...)
	}
	b.mu.Unlock()

	b.queue.Push(res.entries...)
	if res.exhausted {
		b.exhausted.Store(true)
	}
	b.refilling.Store(false)
}

// Clear drops every queued entry and the lookback window. An outstanding
// refill still completes; the caller is expected to discard the buffer.
func (b *Buffer) Clear() int {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
	return b.queue.Clear()
}

// Stats returns a snapshot of the buffer.
func (b *Buffer) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BufferStats{
		Size:      b.size,
		Buffered:  len(b.entries),
		Queued:    b.queue.Len(),
		Refills:   b.refills.Load(),
		Trimmed:   b.trimmed,
		Refilling: b.refilling.Load(),
		Exhausted: b.exhausted.Load(),
	}
}

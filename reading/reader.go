package reading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/clean"
	"github.com/dgnsrekt/readaloud/document"
	"github.com/dgnsrekt/readaloud/segment"
	"github.com/dgnsrekt/readaloud/speech"
)

// DefaultPace is how long each continuation fragment stays highlighted
// after its chunk has been spoken.
const DefaultPace = 150 * time.Millisecond

// Options configures a Reader.
type Options struct {
	BufferSize int
	Pace       time.Duration
	Segment    segment.Config
	Processor  ProcessorConfig
}

// DefaultOptions returns the default reader options.
func DefaultOptions() Options {
	return Options{
		BufferSize: DefaultBufferSize,
		Pace:       DefaultPace,
		Segment:    segment.DefaultConfig(),
		Processor:  ProcessorConfig{CleanTimeout: DefaultCleanTimeout},
	}
}

// ChunkEvent is emitted when the loop starts speaking a chunk.
type ChunkEvent struct {
	Seq      int
	Fragment *document.Fragment
	Size     int
	Text     string
}

// Snapshot describes the reader at a point in time.
type Snapshot struct {
	State        StateType
	Current      *document.Fragment
	ChunksSpoken int
	Buffer       BufferStats
	Cleaning     MetricsSummary
}

// session is one start-to-stop reading run. Everything the playback loop
// does checks that its session is still the active one.
type session struct {
	id      int
	ctx     context.Context
	buffer  *Buffer
	stopped chan struct{}

	// Guarded by Reader.mu
	stale bool
	busy  bool
}

// Reader plays a document aloud from a designated fragment, highlighting
// fragments as it goes.
type Reader struct {
	doc         *document.Document
	speaker     speech.Speaker
	highlighter Highlighter
	seg         *segment.Segmenter
	proc        *Processor
	options     Options
	logger      *log.Logger

	mu          sync.Mutex
	sm          *StateMachine
	session     *session
	draining    *session
	highlighted map[*document.Fragment]struct{}
	current     *document.Fragment
	spoken      int
	sessions    int
	idle        chan struct{}

	onStateChange func(from, to StateType)
	onChunk       func(ChunkEvent)
	onError       func(error)
}

// NewReader creates a reader. A nil cleaner reads raw text and a nil
// highlighter disables highlighting.
func NewReader(doc *document.Document, cleaner clean.Cleaner, speaker speech.Speaker, highlighter Highlighter, options Options) (*Reader, error) {
	if doc == nil {
		return nil, NewReaderError(ErrNoDocument, "reader", "create")
	}
	if speaker == nil {
		return nil, NewReaderError(ErrNoSpeaker, "reader", "create")
	}
	if highlighter == nil {
		highlighter = HighlighterFunc(func(*document.Fragment, bool) {})
	}
	if options.BufferSize <= 0 {
		options.BufferSize = DefaultBufferSize
	}
	if options.Pace < 0 {
		options.Pace = 0
	}

	idle := make(chan struct{})
	close(idle)

	r := &Reader{
		doc:         doc,
		speaker:     speaker,
		highlighter: highlighter,
		seg:         segment.New(doc, options.Segment),
		proc:        NewProcessor(cleaner, options.Processor),
		options:     options,
		logger:      log.Default().WithPrefix("reader"),
		sm:          NewStateMachine(),
		highlighted: make(map[*document.Fragment]struct{}),
		idle:        idle,
	}

	r.sm.OnExit(StateIdle, func() {
		r.idle = make(chan struct{})
	})
	r.sm.OnEnter(StateIdle, func() {
		close(r.idle)
	})

	return r, nil
}

// Document returns the document being read.
func (r *Reader) Document() *document.Document {
	return r.doc
}

// OnStateChange registers a callback for state changes. Callbacks run
// outside the reader's lock.
func (r *Reader) OnStateChange(fn func(from, to StateType)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStateChange = fn
}

// OnChunk registers a callback invoked before each chunk is spoken.
func (r *Reader) OnChunk(fn func(ChunkEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChunk = fn
}

// OnError registers a callback for errors absorbed during playback.
func (r *Reader) OnError(fn func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = fn
}

// State returns the current state.
func (r *Reader) State() StateType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sm.Current()
}

// Snapshot returns the reader's current status.
func (r *Reader) Snapshot() Snapshot {
	r.mu.Lock()
	s := Snapshot{
		State:        r.sm.Current(),
		Current:      r.current,
		ChunksSpoken: r.spoken,
	}
	sess := r.session
	r.mu.Unlock()

	if sess != nil {
		s.Buffer = sess.buffer.Stats()
	}
	s.Cleaning = r.proc.Metrics()
	return s
}

// Start begins reading at f. The fragment must belong to a laid-out page
// of the reader's document and the reader must be idle.
func (r *Reader) Start(ctx context.Context, f *document.Fragment) error {
	if err := r.doc.Validate(f); err != nil {
		return NewReaderError(err, "reader", "start")
	}

	r.mu.Lock()
	switch r.sm.Current() {
	case StateReading:
		r.mu.Unlock()
		return NewReaderError(ErrAlreadyReading, "reader", "start").WithSeverity(SeverityWarning)
	case StateStopping:
		r.mu.Unlock()
		return NewReaderError(ErrStopping, "reader", "start").WithSeverity(SeverityWarning)
	}

	r.sessions++
	sess := &session{
		id:      r.sessions,
		ctx:     ctx,
		buffer:  NewBuffer(r.doc, r.seg, r.proc, r.options.BufferSize, f),
		stopped: make(chan struct{}),
	}
	r.session = sess
	r.current = nil
	r.spoken = 0
	notify := r.setState(StateReading)
	r.mu.Unlock()

	notify()
	r.logger.Info("Reading started", "from", f.ID(), "session", sess.id)

	go r.run(sess)
	return nil
}

// Stop ends the active session immediately: the queue is cleared and every
// highlight removed before Stop returns. A speech or cleaning call still in
// flight is left to finish and its result discarded; until then the state
// is Stopping. Stop on an idle reader does nothing.
func (r *Reader) Stop() error {
	r.mu.Lock()
	sess := r.session
	if sess == nil || r.sm.Current() != StateReading {
		r.mu.Unlock()
		return nil
	}

	sess.stale = true
	close(sess.stopped)
	dropped := sess.buffer.Clear()
	r.clearHighlights()
	r.session = nil
	r.current = nil

	to := StateIdle
	if sess.busy {
		to = StateStopping
		r.draining = sess
	}
	notify := r.setState(to)
	r.mu.Unlock()

	notify()
	r.logger.Info("Reading stopped", "session", sess.id, "dropped", dropped, "state", to)
	return nil
}

// Wait blocks until the reader is idle or ctx ends.
func (r *Reader) Wait(ctx context.Context) error {
	r.mu.Lock()
	idle := r.idle
	r.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reader) run(sess *session) {
	defer r.finish(sess)

	buf := sess.buffer
	for r.active(sess) {
		buf.Collect()
		if buf.NeedsRefill() {
			buf.StartRefill(sess.ctx)
		}

		e, ok := buf.Pop()
		if !ok {
			if !buf.Refilling() && !buf.StartRefill(sess.ctx) {
				r.logger.Debug("Document exhausted", "session", sess.id)
				return
			}
			if !r.call(sess, func() { buf.Await(sess.ctx) }) {
				return
			}
			if sess.ctx.Err() != nil {
				return
			}
			continue
		}

		if !e.ReadyForSpeech {
			r.logger.Debug("Skipping continuation without its chunk start", "fragment", e.Fragment.ID())
			continue
		}
		if !r.play(sess, e) {
			return
		}
	}
}

// play speaks one ready entry and paces through its continuations. It
// returns false once the session is no longer active.
func (r *Reader) play(sess *session, e Entry) bool {
	if !r.highlight(sess, e.Fragment, true) {
		return false
	}

	text := e.Text
	if !e.IsChunkStart {
		text = e.Fragment.Trimmed()
	}
	r.emitChunk(sess, ChunkEvent{Seq: e.ChunkSeq, Fragment: e.Fragment, Size: e.ChunkSize, Text: text})

	var err error
	if !r.call(sess, func() { err = r.speaker.Speak(sess.ctx, text) }) {
		return false
	}
	if err != nil {
		if sess.ctx.Err() != nil {
			return false
		}
		r.report(NewReaderError(fmt.Errorf("%w: %v", ErrSpeechFailed, err), "speaker", "speak").
			WithSeverity(SeverityWarning).
			WithContext("fragment", e.Fragment.ID()))
	}

	r.mu.Lock()
	r.spoken++
	r.mu.Unlock()

	if e.IsChunkStart {
		for i := 1; i < e.ChunkSize; i++ {
			c, ok := sess.buffer.Queue().PopContinuation()
			if !ok {
				break
			}
			if !r.highlight(sess, c.Fragment, true) {
				return false
			}
			if !r.pause(sess) {
				return false
			}
			if !r.highlight(sess, c.Fragment, false) {
				return false
			}
		}
	}

	return r.highlight(sess, e.Fragment, false)
}

// call runs fn marked as an in-flight call, so a Stop during fn leaves the
// reader in Stopping until fn returns. It reports whether the session is
// still active afterwards.
func (r *Reader) call(sess *session, fn func()) bool {
	r.mu.Lock()
	if sess.stale {
		r.mu.Unlock()
		return false
	}
	sess.busy = true
	r.mu.Unlock()

	fn()

	r.mu.Lock()
	defer r.mu.Unlock()
	sess.busy = false
	return !sess.stale
}

func (r *Reader) pause(sess *session) bool {
	if r.options.Pace <= 0 {
		return r.active(sess)
	}
	t := time.NewTimer(r.options.Pace)
	defer t.Stop()

	select {
	case <-t.C:
		return r.active(sess)
	case <-sess.stopped:
		return false
	case <-sess.ctx.Done():
		return false
	}
}

// highlight applies a highlight change if the session is still active.
func (r *Reader) highlight(sess *session, f *document.Fragment, on bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess.stale {
		return false
	}
	r.highlighter.SetHighlighted(f, on)
	if on {
		r.highlighted[f] = struct{}{}
		r.current = f
	} else {
		delete(r.highlighted, f)
	}
	return true
}

// clearHighlights must be called with r.mu held.
func (r *Reader) clearHighlights() {
	for f := range r.highlighted {
		r.highlighter.SetHighlighted(f, false)
		delete(r.highlighted, f)
	}
}

func (r *Reader) active(sess *session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !sess.stale
}

// finish ends the loop of sess. An exhausted or cancelled session returns
// the reader to Idle; a stopped session does so only if Stop left the
// reader draining it.
func (r *Reader) finish(sess *session) {
	r.mu.Lock()
	var notify func()
	switch {
	case !sess.stale:
		sess.stale = true
		r.clearHighlights()
		r.session = nil
		r.current = nil
		notify = r.setState(StateIdle)
	case r.draining == sess:
		r.draining = nil
		notify = r.setState(StateIdle)
	}
	spoken := r.spoken
	r.mu.Unlock()

	if notify != nil {
		notify()
		r.logger.Info("Reading finished", "session", sess.id, "chunks", spoken)
	}
}

// setState must be called with r.mu held. The returned function fires the
// state change callback and must be called after unlocking.
func (r *Reader) setState(to StateType) func() {
	from := r.sm.Current()
	if !r.sm.Transition(to) {
		r.logger.Warn("Invalid state transition", "from", from, "to", to)
		return func() {}
	}
	r.logger.Debug("State changed", "from", from, "to", to)

	cb := r.onStateChange
	if cb == nil {
		return func() {}
	}
	return func() { cb(from, to) }
}

func (r *Reader) emitChunk(sess *session, ev ChunkEvent) {
	r.mu.Lock()
	cb := r.onChunk
	stale := sess.stale
	r.mu.Unlock()

	if cb != nil && !stale {
		cb(ev)
	}
}

func (r *Reader) report(err *ReaderError) {
	r.logger.Warn("Playback error", "error", err, "context", err.Context)

	r.mu.Lock()
	cb := r.onError
	r.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

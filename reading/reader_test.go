package reading

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	cleanmock "github.com/dgnsrekt/readaloud/clean/mock"
	"github.com/dgnsrekt/readaloud/document"
	speechmock "github.com/dgnsrekt/readaloud/speech/mock"
)

func newTestReader(t *testing.T, doc *document.Document, sp *speechmock.Speaker, hl Highlighter, opts Options) *Reader {
	t.Helper()
	r, err := NewReader(doc, nil, sp, hl, opts)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	return r
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.Pace = 0
	return opts
}

func TestReaderReadsWholeDocument(t *testing.T) {
	doc := paragraphs(6, 3)
	sp := speechmock.New()
	hl := newRecordingHighlighter()
	r := newTestReader(t, doc, sp, hl, fastOptions())

	var mu sync.Mutex
	var transitions []string
	r.OnStateChange(func(from, to StateType) {
		mu.Lock()
		transitions = append(transitions, from.String()+">"+to.String())
		mu.Unlock()
	})
	var chunks []ChunkEvent
	r.OnChunk(func(ev ChunkEvent) {
		mu.Lock()
		chunks = append(chunks, ev)
		mu.Unlock()
	})

	if err := r.Start(context.Background(), doc.First()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitIdle(t, r)

	spoken := sp.Spoken()
	// The first window of ten fragments ends inside paragraph 4, which is
	// read as two chunks.
	if len(spoken) != 7 {
		t.Fatalf("Expected 7 chunks spoken, got %d: %q", len(spoken), spoken)
	}
	if spoken[0] != "paragraph 1 line 1 paragraph 1 line 2 paragraph 1 line 3" {
		t.Errorf("Unexpected first chunk %q", spoken[0])
	}
	if spoken[3] != "paragraph 4 line 1" || spoken[4] != "paragraph 4 line 2 paragraph 4 line 3" {
		t.Errorf("Unexpected chunks around the window end: %q, %q", spoken[3], spoken[4])
	}

	if hl.Len() != 0 {
		t.Errorf("Expected no highlights left, got %d", hl.Len())
	}
	ons := 0
	hl.mu.Lock()
	for _, c := range hl.calls {
		if c.on {
			ons++
		}
	}
	hl.mu.Unlock()
	if ons != doc.NumFragments() {
		t.Errorf("Expected every fragment highlighted once, got %d of %d", ons, doc.NumFragments())
	}

	eventually(t, "Expected Reading>Idle transition", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) == 2 && transitions[0] == "idle>reading" && transitions[1] == "reading>idle"
	})

	mu.Lock()
	if len(chunks) != 7 || chunks[0].Size != 3 || chunks[6].Seq != 6 {
		t.Errorf("Unexpected chunk events %+v", chunks)
	}
	mu.Unlock()

	snap := r.Snapshot()
	if snap.State != StateIdle || snap.ChunksSpoken != 7 || snap.Current != nil {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
}

func TestReaderUsesCleanedText(t *testing.T) {
	doc := paragraphs(2, 2)
	cleaner := cleanmock.New()
	sp := speechmock.New()

	r, err := NewReader(doc, cleaner, sp, nil, fastOptions())
	if err != nil {
		t.Fatal(err)
	}
	r.Start(context.Background(), doc.First())
	waitIdle(t, r)

	spoken := sp.Spoken()
	if len(spoken) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(spoken))
	}
	if spoken[0] != spoken[1] || !strings.HasPrefix(spoken[0], "PARAGRAPH 1 LINE 1") {
		t.Errorf("Expected both chunks to speak the shared cleaned batch, got %q", spoken)
	}
	if r.Snapshot().Cleaning.Calls != 1 {
		t.Errorf("Expected 1 cleaning call, got %d", r.Snapshot().Cleaning.Calls)
	}
}

func TestReaderCleanerFailureReadsRawText(t *testing.T) {
	doc := paragraphs(2, 2)
	cleaner := cleanmock.New()
	cleaner.SetFailure(errors.New("down"))
	sp := speechmock.New()

	r, _ := NewReader(doc, cleaner, sp, nil, fastOptions())
	r.Start(context.Background(), doc.First())
	waitIdle(t, r)

	spoken := sp.Spoken()
	if len(spoken) != 2 || spoken[1] != "paragraph 2 line 1 paragraph 2 line 2" {
		t.Errorf("Expected raw text per chunk, got %q", spoken)
	}
}

// Stop while a chunk is being spoken.
func TestReaderStopMidSpeech(t *testing.T) {
	doc := paragraphs(3, 3)
	sp := speechmock.New()
	started := sp.Started()
	sp.Block()
	hl := newRecordingHighlighter()
	r := newTestReader(t, doc, sp, hl, fastOptions())

	if err := r.Start(context.Background(), doc.First()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("Speech never started")
	}

	r.mu.Lock()
	buf := r.session.buffer
	r.mu.Unlock()
	if buf.Len() == 0 {
		t.Fatal("Expected queued entries before stop")
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("Expected empty queue right after stop, got %d", buf.Len())
	}
	if hl.Len() != 0 {
		t.Errorf("Expected all highlights removed, got %d", hl.Len())
	}
	if r.State() != StateStopping {
		t.Errorf("Expected Stopping while speech is in flight, got %v", r.State())
	}
	if err := r.Start(context.Background(), doc.First()); !errors.Is(err, ErrStopping) {
		t.Errorf("Expected ErrStopping, got %v", err)
	}

	calls := hl.count()
	sp.Release()
	waitIdle(t, r)
	time.Sleep(50 * time.Millisecond)

	if hl.count() != calls {
		t.Errorf("Expected no highlight calls after stop, got %d more", hl.count()-calls)
	}
	if sp.CallCount() != 1 {
		t.Errorf("Expected no further speech, got %d calls", sp.CallCount())
	}
	if r.State() != StateIdle {
		t.Errorf("Expected Idle, got %v", r.State())
	}

	// The reader can start again.
	if err := r.Start(context.Background(), doc.First()); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	waitIdle(t, r)
	if sp.CallCount() != 1+3 {
		t.Errorf("Expected the second session to read 3 chunks, got %d calls", sp.CallCount()-1)
	}
}

func TestReaderStopDuringPacingIsImmediate(t *testing.T) {
	doc := paragraphs(2, 3)
	sp := speechmock.New()
	hl := newRecordingHighlighter()
	opts := DefaultOptions()
	opts.Pace = 5 * time.Second
	r := newTestReader(t, doc, sp, hl, opts)

	second := allFragments(doc)[1]
	r.Start(context.Background(), doc.First())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case f := <-hl.on:
			if f != second {
				continue
			}
		case <-deadline:
			t.Fatal("Continuation was never highlighted")
		}
		break
	}

	r.Stop()
	if r.State() != StateIdle {
		t.Errorf("Expected Idle with no call in flight, got %v", r.State())
	}
	if hl.IsHighlighted(second) || hl.IsHighlighted(doc.First()) {
		t.Error("Expected highlights removed by stop")
	}
	waitIdle(t, r)
}

func TestReaderStartValidation(t *testing.T) {
	doc := document.NewBuilder("t").Line("first page").NewPage().Unlaid().Line("hidden").Build()
	r := newTestReader(t, doc, speechmock.New(), nil, fastOptions())

	hidden := doc.Page(1).Fragments[0]
	if err := r.Start(context.Background(), hidden); !errors.Is(err, document.ErrPageNotLaidOut) {
		t.Errorf("Expected ErrPageNotLaidOut, got %v", err)
	}

	other := paragraphs(1, 1).First()
	err := r.Start(context.Background(), other)
	if !errors.Is(err, document.ErrUnknownFragment) {
		t.Errorf("Expected ErrUnknownFragment, got %v", err)
	}
	var rerr *ReaderError
	if !errors.As(err, &rerr) || rerr.IsRecoverable() {
		t.Errorf("Expected a non-recoverable ReaderError, got %v", err)
	}

	if err := r.Start(context.Background(), nil); !errors.Is(err, document.ErrNilFragment) {
		t.Errorf("Expected ErrNilFragment, got %v", err)
	}
	if r.State() != StateIdle {
		t.Errorf("Expected reader to stay Idle, got %v", r.State())
	}
}

func TestReaderRejectsSecondStart(t *testing.T) {
	doc := paragraphs(2, 2)
	sp := speechmock.New()
	sp.Block()
	r := newTestReader(t, doc, sp, nil, fastOptions())

	if err := r.Start(context.Background(), doc.First()); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(context.Background(), doc.First()); !errors.Is(err, ErrAlreadyReading) {
		t.Errorf("Expected ErrAlreadyReading, got %v", err)
	}

	r.Stop()
	sp.Release()
	waitIdle(t, r)
}

func TestReaderSpeechFailureContinues(t *testing.T) {
	doc := paragraphs(3, 1)
	sp := speechmock.New()
	sp.SetFailure(errors.New("no voice"))
	r := newTestReader(t, doc, sp, nil, fastOptions())

	var mu sync.Mutex
	var errs []error
	r.OnError(func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})

	r.Start(context.Background(), doc.First())
	waitIdle(t, r)

	if sp.CallCount() != 3 {
		t.Errorf("Expected every chunk attempted, got %d", sp.CallCount())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 3 || !errors.Is(errs[0], ErrSpeechFailed) {
		t.Errorf("Expected 3 speech errors, got %v", errs)
	}
}

func TestReaderContextCancelEndsSession(t *testing.T) {
	doc := paragraphs(4, 2)
	sp := speechmock.New()
	sp.SetDelay(time.Second)
	r := newTestReader(t, doc, sp, nil, fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx, doc.First())
	eventually(t, "Speech never started", func() bool { return sp.Active() == 1 })
	cancel()

	waitIdle(t, r)
	if sp.CallCount() != 1 {
		t.Errorf("Expected cancellation to end playback, got %d calls", sp.CallCount())
	}
}

func TestReaderStopWhenIdle(t *testing.T) {
	r := newTestReader(t, paragraphs(1, 1), speechmock.New(), nil, fastOptions())
	if err := r.Stop(); err != nil {
		t.Errorf("Expected Stop on idle reader to be a no-op, got %v", err)
	}
	if err := r.Wait(context.Background()); err != nil {
		t.Errorf("Expected Wait on idle reader to return, got %v", err)
	}
}

func TestNewReaderValidation(t *testing.T) {
	if _, err := NewReader(nil, nil, speechmock.New(), nil, Options{}); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Expected ErrNoDocument, got %v", err)
	}
	if _, err := NewReader(paragraphs(1, 1), nil, nil, nil, Options{}); !errors.Is(err, ErrNoSpeaker) {
		t.Errorf("Expected ErrNoSpeaker, got %v", err)
	}
}

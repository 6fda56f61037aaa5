package reading

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/readaloud/clean"
	"github.com/dgnsrekt/readaloud/clean/mock"
	"github.com/dgnsrekt/readaloud/segment"
)

func segmented(n, lines int) []*segment.Chunk {
	doc := paragraphs(n, lines)
	return segment.New(doc, segment.DefaultConfig()).Segment(doc.First(), 0)
}

func TestProcessorBatchSharesCleanedText(t *testing.T) {
	cleaner := mock.New()
	p := NewProcessor(cleaner, ProcessorConfig{})
	chunks := segmented(3, 2)

	out := p.Process(context.Background(), chunks)

	if cleaner.CallCount() != 1 {
		t.Fatalf("Expected 1 cleaner call, got %d", cleaner.CallCount())
	}
	expectedBatch := clean.Join([]string{chunks[0].Raw(), chunks[1].Raw(), chunks[2].Raw()})
	if got := cleaner.Calls()[0]; got != expectedBatch {
		t.Errorf("Expected batch %q, got %q", expectedBatch, got)
	}
	for i, c := range out {
		if c.Cleaned != strings.ToUpper(expectedBatch) {
			t.Errorf("Chunk %d: expected shared cleaned text, got %q", i, c.Cleaned)
		}
	}
	if s := p.Metrics(); s.Calls != 1 || s.Fallbacks != 0 {
		t.Errorf("Unexpected metrics %+v", s)
	}
}

func TestProcessorFallbackUsesOwnRawText(t *testing.T) {
	cleaner := mock.New()
	cleaner.SetFailure(errors.New("service down"))
	p := NewProcessor(cleaner, ProcessorConfig{})

	out := p.Process(context.Background(), segmented(3, 2))
	if len(out) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(out))
	}
	for i, c := range out {
		if !c.HasCleaned() || c.Cleaned != c.Raw() {
			t.Errorf("Chunk %d: expected own raw text %q, got %q", i, c.Raw(), c.Cleaned)
		}
	}

	s := p.Metrics()
	if s.Fallbacks != 1 || s.Last.ErrorMessage != "service down" {
		t.Errorf("Expected one recorded fallback, got %+v", s)
	}
}

func TestProcessorTimeoutFallsBack(t *testing.T) {
	cleaner := mock.New()
	cleaner.SetDelay(time.Second)
	p := NewProcessor(cleaner, ProcessorConfig{CleanTimeout: 20 * time.Millisecond})

	start := time.Now()
	out := p.Process(context.Background(), segmented(2, 2))
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Expected the timeout to bound the call, took %v", elapsed)
	}
	if out[0].Cleaned != out[0].Raw() {
		t.Errorf("Expected raw fallback, got %q", out[0].Cleaned)
	}
}

func TestProcessorEmptyCleanedTextFallsBack(t *testing.T) {
	cleaner := mock.New()
	cleaner.SetTransform(func(string) string { return "  " })
	p := NewProcessor(cleaner, ProcessorConfig{})

	out := p.Process(context.Background(), segmented(1, 2))
	if out[0].Cleaned != out[0].Raw() {
		t.Errorf("Expected raw fallback for empty cleaned text, got %q", out[0].Cleaned)
	}
}

func TestProcessorSkipsEmptyChunks(t *testing.T) {
	cleaner := mock.New()
	p := NewProcessor(cleaner, ProcessorConfig{})

	chunks := append(segmented(1, 2), &segment.Chunk{}, nil)
	out := p.Process(context.Background(), chunks)
	if len(out) != 1 {
		t.Errorf("Expected 1 chunk, got %d", len(out))
	}

	if out := p.Process(context.Background(), []*segment.Chunk{{}}); out != nil {
		t.Errorf("Expected nil for only empty chunks, got %v", out)
	}
	if cleaner.CallCount() != 1 {
		t.Errorf("Expected no call for an empty batch, got %d calls", cleaner.CallCount())
	}
}

func TestProcessorWithoutCleaner(t *testing.T) {
	p := NewProcessor(nil, ProcessorConfig{})
	out := p.Process(context.Background(), segmented(2, 1))
	if out[1].Cleaned != "paragraph 2 line 1" {
		t.Errorf("Expected raw text, got %q", out[1].Cleaned)
	}
}

func TestProcessorSplitMode(t *testing.T) {
	cleaner := mock.New()
	p := NewProcessor(cleaner, ProcessorConfig{Mode: CleanModeSplit})

	out := p.Process(context.Background(), segmented(2, 2))
	if out[0].Cleaned != "PARAGRAPH 1 LINE 1 PARAGRAPH 1 LINE 2" {
		t.Errorf("Expected per-chunk text, got %q", out[0].Cleaned)
	}
	if out[1].Cleaned != "PARAGRAPH 2 LINE 1 PARAGRAPH 2 LINE 2" {
		t.Errorf("Expected per-chunk text, got %q", out[1].Cleaned)
	}

	cleaner.SetTransform(func(string) string { return "merged" })
	out = p.Process(context.Background(), segmented(2, 2))
	if out[0].Cleaned != "merged" || out[1].Cleaned != "merged" {
		t.Errorf("Expected shared text when parts do not match, got %q and %q", out[0].Cleaned, out[1].Cleaned)
	}
}

func TestParseCleanMode(t *testing.T) {
	if ParseCleanMode("Split") != CleanModeSplit || ParseCleanMode("other") != CleanModeBatch {
		t.Error("Unexpected clean mode parsing")
	}
	if CleanModeSplit.String() != "split" || CleanModeBatch.String() != "batch" {
		t.Error("Unexpected clean mode names")
	}
}

func TestExpandEntries(t *testing.T) {
	p := NewProcessor(mock.New(), ProcessorConfig{})
	chunks := p.Process(context.Background(), segmented(2, 3))
	entries := Expand(chunks)

	if len(entries) != 6 {
		t.Fatalf("Expected 6 entries, got %d", len(entries))
	}

	for i, e := range entries {
		start := i%3 == 0
		if e.IsChunkStart != start || e.ReadyForSpeech != start {
			t.Errorf("Entry %d: expected chunk start %v, got %+v", i, start, e)
		}
		if start && e.Text == "" {
			t.Errorf("Entry %d: expected chunk start to carry text", i)
		}
		if !start && e.Text != "" {
			t.Errorf("Entry %d: expected continuation without text, got %q", i, e.Text)
		}
		if e.ChunkSize != 3 {
			t.Errorf("Entry %d: expected chunk size 3, got %d", i, e.ChunkSize)
		}
		if e.ChunkSeq != i/3 {
			t.Errorf("Entry %d: expected chunk seq %d, got %d", i, i/3, e.ChunkSeq)
		}
	}
}

package segment

import (
	"fmt"
	"testing"

	"github.com/dgnsrekt/readaloud/document"
)

func twelveLines() *document.Document {
	b := document.NewBuilder("twelve")
	for i := 1; i <= 12; i++ {
		b.Line(fmt.Sprintf("line %d", i))
		if i == 5 {
			b.Break()
		}
	}
	return b.Build()
}

func TestSegmentGapRuleWithTrailingChunk(t *testing.T) {
	doc := twelveLines()
	s := New(doc, DefaultConfig())

	chunks := s.Segment(doc.First(), 2)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Len() != 5 || chunks[1].Len() != 7 {
		t.Errorf("Expected chunk sizes 5 and 7, got %d and %d", chunks[0].Len(), chunks[1].Len())
	}
	if chunks[0].First().Text != "line 1" || chunks[0].Last().Text != "line 5" {
		t.Errorf("Unexpected first chunk %q", chunks[0].Raw())
	}
	if chunks[1].First().Text != "line 6" || chunks[1].Last().Text != "line 12" {
		t.Errorf("Unexpected second chunk %q", chunks[1].Raw())
	}
	if chunks[0].Seq != 0 || chunks[1].Seq != 1 {
		t.Errorf("Expected sequence numbers 0 and 1, got %d and %d", chunks[0].Seq, chunks[1].Seq)
	}
}

func TestSegmentStopsAtMaxParagraphs(t *testing.T) {
	doc := document.NewBuilder("many").
		Line("one").Break().
		Line("two").Break().
		Line("three").Break().
		Line("four").
		Build()
	s := New(doc, DefaultConfig())

	if got := len(s.Segment(doc.First(), 2)); got != 2 {
		t.Errorf("Expected 2 chunks, got %d", got)
	}
	if got := len(s.Segment(doc.First(), 0)); got != 4 {
		t.Errorf("Expected 4 chunks when unbounded, got %d", got)
	}
}

func TestSegmentSingleFragmentParagraph(t *testing.T) {
	doc := document.NewBuilder("single").Line("alone").Build()
	chunks := New(doc, DefaultConfig()).Segment(doc.First(), 5)

	if len(chunks) != 1 || chunks[0].Len() != 1 {
		t.Fatalf("Expected one single-fragment chunk, got %v", chunks)
	}
	if chunks[0].Raw() != "alone" {
		t.Errorf("Expected raw text 'alone', got %q", chunks[0].Raw())
	}
}

func TestSegmentSkipsEmptyFragments(t *testing.T) {
	doc := document.NewBuilder("empties").
		Lines("", "first", "  ", "second").
		Build()
	anchor, _ := doc.Locate(0, 0)

	chunks := New(doc, DefaultConfig()).Segment(anchor, 0)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Raw() != "first second" {
		t.Errorf("Expected 'first second', got %q", chunks[0].Raw())
	}
}

func TestPartitionInvariant(t *testing.T) {
	b := document.NewBuilder("partition")
	b.LinesPerPage = 7
	for i := 0; i < 40; i++ {
		switch {
		case i%9 == 4:
			b.Break()
		case i%11 == 6:
			b.Indented(30, fmt.Sprintf("indented %d", i))
			continue
		case i%13 == 8:
			b.Line("Note: remember this")
			continue
		case i%17 == 2:
			b.Line("")
			continue
		}
		b.Line(fmt.Sprintf("text %d", i))
	}
	doc := b.Build()
	s := New(doc, DefaultConfig())

	anchors := []*document.Fragment{doc.First()}
	for _, f := range doc.FragmentsFrom(doc.First(), 40) {
		if f.Index%3 == 0 {
			anchors = append(anchors, f)
		}
	}

	for _, anchor := range anchors {
		for _, maxParagraphs := range []int{0, 1, 2, 5} {
			chunks := s.Segment(anchor, maxParagraphs)

			var flat []*document.Fragment
			for _, c := range chunks {
				if c.Len() == 0 {
					t.Fatalf("Anchor %s max %d: empty chunk", anchor.ID(), maxParagraphs)
				}
				flat = append(flat, c.Fragments...)
			}

			run := doc.FragmentsFrom(anchor, len(flat))
			if len(run) != len(flat) {
				t.Fatalf("Anchor %s max %d: expected %d fragments, got %d", anchor.ID(), maxParagraphs, len(run), len(flat))
			}
			for i := range run {
				if run[i] != flat[i] {
					t.Fatalf("Anchor %s max %d: position %d expected %s, got %s",
						anchor.ID(), maxParagraphs, i, run[i].ID(), flat[i].ID())
				}
			}
		}
	}
}

func TestSegmentRun(t *testing.T) {
	doc := twelveLines()
	s := New(doc, DefaultConfig())

	run := doc.FragmentsFrom(doc.First(), 8)
	chunks := s.SegmentRun(run)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Len() != 5 || chunks[1].Len() != 3 {
		t.Errorf("Expected sizes 5 and 3, got %d and %d", chunks[0].Len(), chunks[1].Len())
	}

	if got := s.SegmentRun(nil); len(got) != 0 {
		t.Errorf("Expected no chunks for empty run, got %d", len(got))
	}
}

func TestIsBoundaryRuleOrder(t *testing.T) {
	doc := document.NewBuilder("rules").
		Line("plain text").
		Line("more text").
		Indented(25, "indented text").
		Line("Summary: heading").
		Break().
		Indented(40, "CHAPTER ONE").
		Build()
	s := New(doc, DefaultConfig())

	frag := func(i int) *document.Fragment {
		f, err := doc.Locate(0, i)
		if err != nil {
			t.Fatal(err)
		}
		return f
	}

	tests := []struct {
		name     string
		f, next  *document.Fragment
		expected Reason
	}{
		{"continuation", frag(0), frag(1), ReasonNone},
		{"indent increase", frag(1), frag(2), ReasonIndent},
		{"outdent then label", frag(2), frag(3), ReasonPattern},
		{"gap wins over indent and caps", frag(3), frag(4), ReasonGap},
		{"no next fragment", frag(4), nil, ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsBoundary(tt.f, tt.next); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestStartsParagraph(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"Note: this matters", true},
		{"Key Findings: below", true},
		{"3. Third step", true},
		{"12.", true},
		{"INTRODUCTION", true},
		{"PART II", true},
		{"1.5 million people", false},
		{"note: lowercase label", false},
		{"The end of a sentence.", false},
		{"I", false},
		{"", false},
		{"2024", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := StartsParagraph(tt.text); got != tt.expected {
				t.Errorf("StartsParagraph(%q): expected %v, got %v", tt.text, tt.expected, got)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	s := New(twelveLines(), Config{})
	if s.Config().GapRatio != DefaultGapRatio || s.Config().IndentThreshold != DefaultIndentThreshold {
		t.Errorf("Expected default thresholds, got %+v", s.Config())
	}

	doc := twelveLines()
	loose := New(doc, Config{GapRatio: 10, IndentThreshold: 100})
	chunks := loose.Segment(doc.First(), 0)
	if len(chunks) != 1 {
		t.Errorf("Expected a single chunk with loose thresholds, got %d", len(chunks))
	}
}

func TestChunkCleaned(t *testing.T) {
	c := &Chunk{}
	if c.HasCleaned() {
		t.Error("Expected new chunk to have no cleaned text")
	}
	c.SetCleaned("")
	if !c.HasCleaned() {
		t.Error("Expected HasCleaned after SetCleaned")
	}
	if c.First() != nil || c.Last() != nil || c.Raw() != "" {
		t.Error("Expected empty chunk accessors to return zero values")
	}
}

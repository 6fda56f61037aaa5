package segment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/document"
)

// Default thresholds, in layout units.
const (
	DefaultGapRatio        = 1.5
	DefaultIndentThreshold = 20.0
)

// Reason identifies the rule that closed a paragraph.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonGap
	ReasonIndent
	ReasonPattern
)

// String returns a string representation of the reason
func (r Reason) String() string {
	switch r {
	case ReasonGap:
		return "gap"
	case ReasonIndent:
		return "indent"
	case ReasonPattern:
		return "pattern"
	default:
		return "none"
	}
}

var (
	labelPattern      = regexp.MustCompile(`^[A-Z][A-Za-z]*:`)
	enumeratorPattern = regexp.MustCompile(`^\d+\.(\s|$)`)
	twoWordPattern    = regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z][a-z]+:`)
)

// Traverser walks fragments in reading order. *document.Document satisfies
// it.
type Traverser interface {
	Next(f *document.Fragment) *document.Fragment
}

// Config holds the geometric thresholds of the boundary rules.
type Config struct {
	// GapRatio is the vertical gap, as a multiple of the fragment height,
	// above which the next fragment starts a new paragraph.
	GapRatio float64

	// IndentThreshold is the increase in left margin above which the next
	// fragment starts a new paragraph.
	IndentThreshold float64
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		GapRatio:        DefaultGapRatio,
		IndentThreshold: DefaultIndentThreshold,
	}
}

// Segmenter groups fragments into paragraph chunks.
type Segmenter struct {
	doc    Traverser
	config Config
	logger *log.Logger
}

// New creates a segmenter over doc. Zero thresholds fall back to defaults.
func New(doc Traverser, config Config) *Segmenter {
	if config.GapRatio <= 0 {
		config.GapRatio = DefaultGapRatio
	}
	if config.IndentThreshold <= 0 {
		config.IndentThreshold = DefaultIndentThreshold
	}
	return &Segmenter{
		doc:    doc,
		config: config,
		logger: log.Default().WithPrefix("segment"),
	}
}

// Config returns the thresholds in use.
func (s *Segmenter) Config() Config {
	return s.config
}

// Segment walks non-empty fragments from anchor and groups them into
// chunks. It stops once maxParagraphs chunks are closed, or emits the
// trailing partial chunk when traversal is exhausted first. A
// maxParagraphs of zero or less means no limit.
func (s *Segmenter) Segment(anchor *document.Fragment, maxParagraphs int) []*Chunk {
	cur := anchor
	for cur != nil && cur.IsEmpty() {
		cur = s.doc.Next(cur)
	}

	var (
		chunks  []*Chunk
		running []*document.Fragment
	)
	for cur != nil {
		next := s.nextNonEmpty(cur)
		running = append(running, cur)

		if reason := s.IsBoundary(cur, next); reason != ReasonNone {
			chunks = append(chunks, &Chunk{Fragments: running, Seq: len(chunks)})
			s.logger.Debug("Paragraph closed", "at", cur.ID(), "reason", reason, "fragments", len(running))
			running = nil
			if maxParagraphs > 0 && len(chunks) >= maxParagraphs {
				return chunks
			}
		}
		cur = next
	}

	if len(running) > 0 {
		chunks = append(chunks, &Chunk{Fragments: running, Seq: len(chunks)})
	}
	return chunks
}

// SegmentRun groups an already collected run of fragments. Boundary tests
// only look inside the run and the end of the run closes the last chunk.
// Empty fragments in the run are dropped.
func (s *Segmenter) SegmentRun(run []*document.Fragment) []*Chunk {
	frags := make([]*document.Fragment, 0, len(run))
	for _, f := range run {
		if f != nil && !f.IsEmpty() {
			frags = append(frags, f)
		}
	}

	var (
		chunks []*Chunk
		start  int
	)
	for i, f := range frags {
		var next *document.Fragment
		if i+1 < len(frags) {
			next = frags[i+1]
		}
		if next == nil || s.IsBoundary(f, next) != ReasonNone {
			chunks = append(chunks, &Chunk{Fragments: frags[start : i+1 : i+1], Seq: len(chunks)})
			start = i + 1
		}
	}
	return chunks
}

// IsBoundary reports whether a paragraph ends after f, given the fragment
// that follows it. The rules are tried in order: vertical gap, indentation
// increase, then heading or list patterns on the next fragment's text. A
// nil next fragment is never a boundary.
func (s *Segmenter) IsBoundary(f, next *document.Fragment) Reason {
	if f == nil || next == nil {
		return ReasonNone
	}

	if next.Box.Top-f.Box.Bottom > s.config.GapRatio*f.Height() {
		return ReasonGap
	}

	if next.RelativeLeft()-f.RelativeLeft() > s.config.IndentThreshold {
		return ReasonIndent
	}

	if StartsParagraph(next.Text) {
		return ReasonPattern
	}

	return ReasonNone
}

// StartsParagraph reports whether text looks like a heading or list item:
// a capitalized label followed by a colon, a numeric enumerator such as
// "3.", a line in capitals, or two capitalized words followed by a colon.
func StartsParagraph(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	return labelPattern.MatchString(text) ||
		enumeratorPattern.MatchString(text) ||
		isAllCaps(text) ||
		twoWordPattern.MatchString(text)
}

// isAllCaps requires at least two letters so that a lone initial or a
// Roman numeral "I" does not count as a heading.
func isAllCaps(text string) bool {
	letters := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		letters++
	}
	return letters >= 2
}

func (s *Segmenter) nextNonEmpty(f *document.Fragment) *document.Fragment {
	next := s.doc.Next(f)
	for next != nil && next.IsEmpty() {
		next = s.doc.Next(next)
	}
	return next
}

package document

import (
	"fmt"
	"strings"
)

// Rect is an axis-aligned box in document coordinates. The y axis grows
// downwards and page offsets are already applied, so fragments on later
// pages always have larger Top values.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the vertical extent of the box.
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Fragment is the smallest addressable unit of extracted text. Fragments are
// created by a loader and never modified afterwards.
type Fragment struct {
	PageNum int    // Index of the owning page (0-based)
	Index   int    // Position within the page (0-based)
	Text    string // Raw text as laid out
	Box     Rect   // Bounding geometry

	page *Page
}

// Page returns the page the fragment was laid out on.
func (f *Fragment) Page() *Page {
	return f.page
}

// ID returns a stable identifier such as "p2:f14".
func (f *Fragment) ID() string {
	return fmt.Sprintf("p%d:f%d", f.PageNum, f.Index)
}

// Trimmed returns the fragment text without surrounding whitespace.
func (f *Fragment) Trimmed() string {
	return strings.TrimSpace(f.Text)
}

// IsEmpty reports whether the fragment carries no readable text.
func (f *Fragment) IsEmpty() bool {
	return f.Trimmed() == ""
}

// Height returns the height of the fragment's box.
func (f *Fragment) Height() float64 {
	return f.Box.Height()
}

// RelativeLeft returns the left margin of the fragment relative to its page.
func (f *Fragment) RelativeLeft() float64 {
	if f.page == nil {
		return f.Box.Left
	}
	return f.Box.Left - f.page.Box.Left
}

func (f *Fragment) String() string {
	return fmt.Sprintf("%s %q", f.ID(), f.Trimmed())
}

// Page is an ordered collection of fragments. Fragment order within a page
// is reading order.
type Page struct {
	Number    int         // Index in the document (0-based)
	Box       Rect        // Page rectangle in document coordinates
	Fragments []*Fragment // Fragments in reading order
	LaidOut   bool        // Geometry is available for this page
}

// Document is an ordered sequence of pages.
type Document struct {
	Title  string
	Source string

	pages []*Page
}

// New links pages and fragments into a document. Page numbers, fragment
// positions and page back-references are assigned from slice order.
func New(title string, pages ...*Page) *Document {
	d := &Document{Title: title, pages: pages}
	for i, p := range pages {
		p.Number = i
		for j, f := range p.Fragments {
			f.PageNum = i
			f.Index = j
			f.page = p
		}
	}
	return d
}

// Pages returns the document pages in order.
func (d *Document) Pages() []*Page {
	return d.pages
}

// NumPages returns the number of pages.
func (d *Document) NumPages() int {
	return len(d.pages)
}

// Page returns the page at index i, or nil.
func (d *Document) Page(i int) *Page {
	if i < 0 || i >= len(d.pages) {
		return nil
	}
	return d.pages[i]
}

// NumFragments returns the total fragment count, empty fragments included.
func (d *Document) NumFragments() int {
	n := 0
	for _, p := range d.pages {
		n += len(p.Fragments)
	}
	return n
}

// Next returns the fragment following f in reading order: the next fragment
// on the same page if there is one, otherwise the first fragment with text on
// the following laid-out pages. It returns nil at the end of the document.
// Next keeps no iterator state, so any number of callers may walk the
// document from different anchors at the same time.
func (d *Document) Next(f *Fragment) *Fragment {
	if f == nil || f.PageNum < 0 || f.PageNum >= len(d.pages) {
		return nil
	}

	page := d.pages[f.PageNum]
	if f.Index+1 < len(page.Fragments) {
		return page.Fragments[f.Index+1]
	}

	for i := f.PageNum + 1; i < len(d.pages); i++ {
		next := d.pages[i]
		if !next.LaidOut {
			continue
		}
		for _, candidate := range next.Fragments {
			if !candidate.IsEmpty() {
				return candidate
			}
		}
	}

	return nil
}

// NextNonEmpty returns the first fragment after f that carries text.
func (d *Document) NextNonEmpty(f *Fragment) *Fragment {
	next := d.Next(f)
	for next != nil && next.IsEmpty() {
		next = d.Next(next)
	}
	return next
}

// FragmentsFrom collects up to count non-empty fragments starting at anchor
// (inclusive), skipping fragments without text. The result is recomputed on
// every call.
func (d *Document) FragmentsFrom(anchor *Fragment, count int) []*Fragment {
	if anchor == nil || count <= 0 {
		return nil
	}

	out := make([]*Fragment, 0, count)
	for cur := anchor; cur != nil && len(out) < count; cur = d.Next(cur) {
		if cur.IsEmpty() {
			continue
		}
		out = append(out, cur)
	}
	return out
}

// First returns the first fragment with text on a laid-out page.
func (d *Document) First() *Fragment {
	for _, p := range d.pages {
		if !p.LaidOut {
			continue
		}
		for _, f := range p.Fragments {
			if !f.IsEmpty() {
				return f
			}
		}
	}
	return nil
}

// Validate checks that f belongs to this document and that its page has
// been laid out.
func (d *Document) Validate(f *Fragment) error {
	if f == nil {
		return ErrNilFragment
	}
	if f.PageNum < 0 || f.PageNum >= len(d.pages) {
		return ErrUnknownFragment
	}
	page := d.pages[f.PageNum]
	if f.page != page || f.Index < 0 || f.Index >= len(page.Fragments) || page.Fragments[f.Index] != f {
		return ErrUnknownFragment
	}
	if !page.LaidOut {
		return fmt.Errorf("page %d: %w", page.Number+1, ErrPageNotLaidOut)
	}
	return nil
}

// Locate returns the fragment at the given page and position.
func (d *Document) Locate(page, index int) (*Fragment, error) {
	p := d.Page(page)
	if p == nil || index < 0 || index >= len(p.Fragments) {
		return nil, fmt.Errorf("page %d fragment %d: %w", page, index, ErrFragmentNotFound)
	}
	return p.Fragments[index], nil
}

// NextWord returns the first word of the fragment that follows f, looking
// across page boundaries. It returns an empty string at the end of the
// document.
func (d *Document) NextWord(f *Fragment) string {
	next := d.NextNonEmpty(f)
	if next == nil {
		return ""
	}
	fields := strings.Fields(next.Text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

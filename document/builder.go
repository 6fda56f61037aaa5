package document

import (
	"unicode/utf8"
)

// Layout defaults, in points. They match a US Letter page set in 12pt type.
const (
	DefaultPageWidth    = 612.0
	DefaultPageHeight   = 792.0
	DefaultMargin       = 72.0
	DefaultFontSize     = 12.0
	DefaultLeading      = 14.0
	DefaultLinesPerPage = 48
)

// Builder lays out text lines on synthetic pages. Loaders without native
// geometry (Markdown, plain text) use it, and so do tests that need exact
// control over gaps and indentation.
//
// Lines are stacked top to bottom with Leading spacing. Break leaves extra
// vertical space so that the next line starts a new paragraph under the
// default gap rule.
type Builder struct {
	PageWidth    float64
	PageHeight   float64
	Margin       float64
	FontSize     float64
	Leading      float64
	LinesPerPage int // 0 disables automatic page breaks

	title string
	pages []*Page
	cur   *Page
	y     float64 // cursor below the top margin of the current page
	lines int
}

// NewBuilder returns a builder with default letter-size layout.
func NewBuilder(title string) *Builder {
	return &Builder{
		PageWidth:    DefaultPageWidth,
		PageHeight:   DefaultPageHeight,
		Margin:       DefaultMargin,
		FontSize:     DefaultFontSize,
		Leading:      DefaultLeading,
		LinesPerPage: DefaultLinesPerPage,
		title:        title,
	}
}

// NewPage starts a new page. The next line is placed at its top margin.
func (b *Builder) NewPage() *Builder {
	top := float64(len(b.pages)) * b.PageHeight
	b.cur = &Page{
		Box: Rect{
			Left:   0,
			Top:    top,
			Right:  b.PageWidth,
			Bottom: top + b.PageHeight,
		},
		LaidOut: true,
	}
	b.pages = append(b.pages, b.cur)
	b.y = 0
	b.lines = 0
	return b
}

// Unlaid marks the current page as not laid out. Its fragments stay in the
// document but traversal into the page is skipped.
func (b *Builder) Unlaid() *Builder {
	b.ensurePage()
	b.cur.LaidOut = false
	return b
}

// Line adds a line of text at the left margin.
func (b *Builder) Line(text string) *Builder {
	return b.Indented(0, text)
}

// Lines adds several lines at the left margin.
func (b *Builder) Lines(texts ...string) *Builder {
	for _, t := range texts {
		b.Line(t)
	}
	return b
}

// Indented adds a line of text indented from the left margin.
func (b *Builder) Indented(indent float64, text string) *Builder {
	b.ensurePage()
	if b.LinesPerPage > 0 && b.lines >= b.LinesPerPage {
		b.NewPage()
	}

	left := b.cur.Box.Left + b.Margin + indent
	top := b.cur.Box.Top + b.Margin + b.y
	box := Rect{
		Left:   left,
		Top:    top,
		Right:  left + b.textWidth(text),
		Bottom: top + b.FontSize,
	}
	b.cur.Fragments = append(b.cur.Fragments, &Fragment{Text: text, Box: box})

	b.y += b.Leading
	b.lines++
	return b
}

// Break leaves a blank gap of two lines.
func (b *Builder) Break() *Builder {
	b.ensurePage()
	b.y += 2 * b.Leading
	b.lines += 2
	return b
}

// AddFragment appends a fragment with explicit geometry to the current page.
// The box is in document coordinates. The line cursor is not moved.
func (b *Builder) AddFragment(text string, box Rect) *Builder {
	b.ensurePage()
	b.cur.Fragments = append(b.cur.Fragments, &Fragment{Text: text, Box: box})
	return b
}

// CurrentPage returns the page lines are being added to.
func (b *Builder) CurrentPage() *Page {
	b.ensurePage()
	return b.cur
}

// Build links the pages into a document. The builder must not be used
// afterwards.
func (b *Builder) Build() *Document {
	b.ensurePage()
	return New(b.title, b.pages...)
}

func (b *Builder) ensurePage() {
	if b.cur == nil {
		b.NewPage()
	}
}

func (b *Builder) textWidth(text string) float64 {
	w := float64(utf8.RuneCountInString(text)) * b.FontSize * 0.5
	if limit := b.PageWidth - 2*b.Margin; w > limit {
		return limit
	}
	return w
}

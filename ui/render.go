package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/dgnsrekt/readaloud/document"
)

const (
	cursorMarker = "› "
	gutterWidth  = 2

	// Points of horizontal offset per column of indentation.
	pointsPerColumn = 6.0
	maxIndent       = 16
)

var (
	pageHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
			Render

	unlaidStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#C2C2C2", Dark: "#3A3A3A"}).
			Italic(true).
			Render

	cursorStyle = lipgloss.NewStyle().
			Foreground(fuchsia).
			Bold(true).
			Render
)

// rendered is the document laid out for the viewport.
type rendered struct {
	content string
	// First viewport line of each fragment
	lines map[*document.Fragment]int
}

type renderOptions struct {
	width       int
	pageHeaders bool
	cursor      *document.Fragment
	highlighted func(*document.Fragment) bool
	highlight   lipgloss.Style
}

// renderDocument lays out every page of doc as plain terminal lines,
// preserving indentation and marking the cursor and highlighted fragments.
func renderDocument(doc *document.Document, opts renderOptions) rendered {
	width := max(opts.width, 20)
	out := rendered{lines: make(map[*document.Fragment]int)}

	var b strings.Builder
	n := 0
	writeLine := func(s string) {
		if n > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s)
		n++
	}

	for _, page := range doc.Pages() {
		if opts.pageHeaders {
			if n > 0 {
				writeLine("")
			}
			writeLine(pageHeader(page, width))
		}
		if !page.LaidOut {
			writeLine(unlaidStyle("  (page not laid out)"))
			continue
		}

		left := pageLeft(page)
		for _, f := range page.Fragments {
			out.lines[f] = n
			if f.IsEmpty() {
				writeLine("")
				continue
			}

			indent := min(int(math.Round((f.Box.Left-left)/pointsPerColumn)), maxIndent)
			textWidth := max(width-gutterWidth-indent, 10)
			wrapped := strings.Split(wordwrap.String(f.Trimmed(), textWidth), "\n")

			highlighted := opts.highlighted != nil && opts.highlighted(f)
			for i, l := range wrapped {
				l = truncate.String(l, uint(textWidth)) //nolint:gosec
				line := strings.Repeat(" ", indent) + l
				if highlighted {
					line = opts.highlight.Render(runewidth.FillRight(line, width-gutterWidth))
				}

				gutter := strings.Repeat(" ", gutterWidth)
				if i == 0 && f == opts.cursor {
					gutter = cursorStyle(cursorMarker)
				}
				writeLine(gutter + line)
			}
		}
	}

	out.content = b.String()
	return out
}

func pageHeader(page *document.Page, width int) string {
	label := fmt.Sprintf(" page %d ", page.Number+1)
	rule := max(width-runewidth.StringWidth(label)-2, 0)
	return pageHeaderStyle("──" + label + strings.Repeat("─", rule))
}

// pageLeft returns the leftmost edge of any fragment with text on page.
func pageLeft(page *document.Page) float64 {
	left := math.Inf(1)
	for _, f := range page.Fragments {
		if !f.IsEmpty() && f.Box.Left < left {
			left = f.Box.Left
		}
	}
	if math.IsInf(left, 1) {
		return page.Box.Left
	}
	return left
}

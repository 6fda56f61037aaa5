package document

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	pdflib "github.com/ledongthuc/pdf"
)

// spaceGap is the horizontal gap, as a fraction of the font size, above
// which two glyph runs on the same row are joined with a space.
const spaceGap = 0.25

// LoadPDF extracts fragments with geometry from a PDF file. Each text row
// becomes one fragment. Pages whose content cannot be extracted are kept
// but marked as not laid out.
func LoadPDF(path string) (*Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	logger := log.Default().WithPrefix("document")

	numPages := reader.NumPage()
	pages := make([]*Page, 0, numPages)
	var offset float64

	for i := 1; i <= numPages; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, &Page{Box: Rect{Top: offset, Bottom: offset, Right: DefaultPageWidth}})
			continue
		}

		width, height := mediaBox(p)
		page := &Page{
			Box: Rect{
				Left:   0,
				Top:    offset,
				Right:  width,
				Bottom: offset + height,
			},
		}

		frags, err := pdfRows(p, offset, height)
		if err != nil {
			logger.Warn("Page not laid out", "page", i, "error", err)
		} else {
			page.Fragments = frags
			page.LaidOut = true
		}

		pages = append(pages, page)
		offset += height
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := New(title, pages...)
	doc.Source = path
	return doc, nil
}

// pdfRows converts the rows of a page into fragments. PDF y coordinates
// grow upwards from the bottom of the page, so they are flipped and shifted
// by the page offset.
func pdfRows(p pdflib.Page, offset, height float64) (frags []*Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract rows: %v", r)
		}
	}()

	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("extract rows: %w", err)
	}

	// Rows come back ordered by descending y; keep reading order explicit.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Position > rows[j].Position
	})

	for _, row := range rows {
		if len(row.Content) == 0 {
			continue
		}

		var sb strings.Builder
		left, right := row.Content[0].X, row.Content[0].X
		size := row.Content[0].FontSize
		prevEnd := row.Content[0].X

		for i, t := range row.Content {
			if i > 0 && t.X-prevEnd > spaceGap*t.FontSize && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
			sb.WriteString(t.S)
			if t.X < left {
				left = t.X
			}
			if end := t.X + t.W; end > right {
				right = end
			}
			if t.FontSize > size {
				size = t.FontSize
			}
			prevEnd = t.X + t.W
		}

		if size <= 0 {
			size = DefaultFontSize
		}

		top := offset + height - float64(row.Position) - size
		frags = append(frags, &Fragment{
			Text: sb.String(),
			Box: Rect{
				Left:   left,
				Top:    top,
				Right:  right,
				Bottom: top + size,
			},
		})
	}

	return frags, nil
}

func mediaBox(p pdflib.Page) (float64, float64) {
	box := p.V.Key("MediaBox")
	if box.Len() != 4 {
		return DefaultPageWidth, DefaultPageHeight
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return DefaultPageWidth, DefaultPageHeight
	}
	return w, h
}

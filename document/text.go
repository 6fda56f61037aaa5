package document

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tabWidth = 4

// Option adjusts the layout used by the synthetic loaders.
type Option func(*Builder)

// WithLinesPerPage sets how many lines fit on a synthetic page.
func WithLinesPerPage(n int) Option {
	return func(b *Builder) {
		b.LinesPerPage = n
	}
}

// LoadText reads a plain text file and lays it out on synthetic pages.
func LoadText(path string, opts ...Option) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := ParseText(title, src, opts...)
	doc.Source = path
	return doc, nil
}

// ParseText lays out plain text, one fragment per non-blank line. A run of
// blank lines leaves a paragraph gap, a form feed starts a new page and
// leading whitespace becomes indentation.
func ParseText(title string, src []byte, opts ...Option) *Document {
	b := NewBuilder(title)
	for _, opt := range opts {
		opt(b)
	}

	blank := false
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")

		for strings.HasPrefix(line, "\f") {
			b.NewPage()
			line = line[1:]
			blank = false
		}

		if strings.TrimSpace(line) == "" {
			if !blank {
				b.Break()
			}
			blank = true
			continue
		}
		blank = false

		indent := leadingWidth(line)
		b.Indented(float64(indent)*b.FontSize*0.5, strings.TrimSpace(line))
	}

	return b.Build()
}

func leadingWidth(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += tabWidth
		default:
			return n
		}
	}
	return n
}

package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgnsrekt/readaloud/utils"
)

// listIndent is the indentation applied per list or quote level. It is
// larger than the default indentation threshold, so nested blocks start new
// paragraphs.
const listIndent = 24.0

// LoadMarkdown reads a Markdown file and lays it out on synthetic pages.
func LoadMarkdown(path string, opts ...Option) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := ParseMarkdown(title, src, opts...)
	doc.Source = path
	return doc, nil
}

// ParseMarkdown lays out Markdown source. Every source line of a heading,
// paragraph or list item becomes one fragment. Blocks are separated by a
// blank gap, list items and quotes are indented, code blocks are not read
// and thematic breaks start a new page. Front matter is skipped.
func ParseMarkdown(title string, src []byte, opts ...Option) *Document {
	src = utils.RemoveFrontmatter(src)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	l := &markdownLayout{
		source:  src,
		builder: NewBuilder(title),
	}
	for _, opt := range opts {
		opt(l.builder)
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		l.block(n, 0)
	}

	doc := l.builder.Build()
	if l.heading != "" {
		doc.Title = l.heading
	}
	return doc
}

type markdownLayout struct {
	source  []byte
	builder *Builder
	marker  string // list marker for the next emitted line
	heading string // first heading seen
}

func (l *markdownLayout) block(n ast.Node, indent float64) {
	switch n := n.(type) {
	case *ast.Heading:
		lines := l.lines(n)
		if l.heading == "" && len(lines) > 0 {
			l.heading = strings.Join(lines, " ")
		}
		l.emit(indent, lines)
		l.builder.Break()

	case *ast.Paragraph:
		l.emit(indent, l.lines(n))
		l.builder.Break()

	case *ast.TextBlock:
		l.emit(indent, l.lines(n))

	case *ast.List:
		i := 0
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			if n.IsOrdered() {
				l.marker = fmt.Sprintf("%d. ", n.Start+i)
			} else {
				l.marker = "• "
			}
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				l.block(c, indent+listIndent)
			}
			i++
		}
		l.marker = ""
		l.builder.Break()

	case *ast.Blockquote:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			l.block(c, indent+listIndent)
		}

	case *ast.ThematicBreak:
		l.builder.NewPage()

	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		// not read aloud

	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			l.block(c, indent)
		}
	}
}

func (l *markdownLayout) emit(indent float64, lines []string) {
	for _, line := range lines {
		if l.marker != "" {
			line = l.marker + line
			l.marker = ""
		}
		l.builder.Indented(indent, line)
	}
}

// lines flattens the inline content of a block, splitting at soft and hard
// line breaks.
func (l *markdownLayout) lines(n ast.Node) []string {
	var (
		sb  strings.Builder
		out []string
	)
	flush := func() {
		if s := strings.TrimSpace(sb.String()); s != "" {
			out = append(out, s)
		}
		sb.Reset()
	}

	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Text:
				sb.Write(c.Segment.Value(l.source))
				if c.SoftLineBreak() || c.HardLineBreak() {
					flush()
				}
			case *ast.String:
				sb.Write(c.Value)
			case *ast.AutoLink:
				sb.Write(c.Label(l.source))
			case *ast.RawHTML:
				// skipped
			default:
				walk(c)
			}
		}
	}
	walk(n)
	flush()

	return out
}

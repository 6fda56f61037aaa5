package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func texts(p *Page) []string {
	var out []string
	for _, f := range p.Fragments {
		out = append(out, f.Text)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuilderGeometry(t *testing.T) {
	doc := NewBuilder("layout").
		Line("one").
		Line("two").
		Break().
		Line("three").
		Build()

	one, _ := doc.Locate(0, 0)
	two, _ := doc.Locate(0, 1)
	three, _ := doc.Locate(0, 2)

	if gap := two.Box.Top - one.Box.Bottom; gap != DefaultLeading-DefaultFontSize {
		t.Errorf("Expected line gap %v, got %v", DefaultLeading-DefaultFontSize, gap)
	}
	if gap := three.Box.Top - two.Box.Bottom; gap <= 1.5*two.Height() {
		t.Errorf("Expected paragraph gap above %v, got %v", 1.5*two.Height(), gap)
	}
}

func TestBuilderPageBreaks(t *testing.T) {
	b := NewBuilder("pages")
	b.LinesPerPage = 2
	doc := b.Lines("a", "b", "c", "d", "e").Build()

	if doc.NumPages() != 3 {
		t.Fatalf("Expected 3 pages, got %d", doc.NumPages())
	}
	last, _ := doc.Locate(2, 0)
	if last.Text != "e" || last.PageNum != 2 || last.Index != 0 {
		t.Errorf("Unexpected last fragment %v", last)
	}
	if last.Box.Top < doc.Page(2).Box.Top {
		t.Error("Expected fragment geometry to include the page offset")
	}
}

func TestParseMarkdown(t *testing.T) {
	src := "# Title\n\n" +
		"First paragraph line one\nline two.\n\n" +
		"- item one\n- item two\n\n" +
		"1. step\n\n" +
		"> quoted\n\n" +
		"```\ncode is skipped\n```\n\n" +
		"---\n\n" +
		"Next page text.\n"

	doc := ParseMarkdown("fallback", []byte(src))

	if doc.Title != "Title" {
		t.Errorf("Expected title from first heading, got %q", doc.Title)
	}
	if doc.NumPages() != 2 {
		t.Fatalf("Expected 2 pages, got %d", doc.NumPages())
	}

	want := []string{
		"Title",
		"First paragraph line one",
		"line two.",
		"• item one",
		"• item two",
		"1. step",
		"quoted",
	}
	if got := texts(doc.Page(0)); !equalStrings(got, want) {
		t.Errorf("Expected page 0 %q, got %q", want, got)
	}
	if got := texts(doc.Page(1)); !equalStrings(got, []string{"Next page text."}) {
		t.Errorf("Unexpected page 1 %q", got)
	}

	item, _ := doc.Locate(0, 3)
	para, _ := doc.Locate(0, 1)
	if diff := item.RelativeLeft() - para.RelativeLeft(); diff != listIndent {
		t.Errorf("Expected list indent %v, got %v", listIndent, diff)
	}
}

func TestParseMarkdownSkipsFrontmatter(t *testing.T) {
	doc := ParseMarkdown("notes", []byte("---\ntitle: hidden\n---\nBody text.\n"))

	if doc.NumPages() != 1 {
		t.Fatalf("Expected 1 page, got %d", doc.NumPages())
	}
	if got := texts(doc.Page(0)); !equalStrings(got, []string{"Body text."}) {
		t.Errorf("Expected only the body, got %q", got)
	}
}

func TestParseText(t *testing.T) {
	src := "Heading\n\nPara line one\npara line two\n\n\n    indented\n\fNew page\n"
	doc := ParseText("plain", []byte(src))

	if doc.NumPages() != 2 {
		t.Fatalf("Expected 2 pages, got %d", doc.NumPages())
	}
	want := []string{"Heading", "Para line one", "para line two", "indented"}
	if got := texts(doc.Page(0)); !equalStrings(got, want) {
		t.Errorf("Expected page 0 %q, got %q", want, got)
	}

	heading, _ := doc.Locate(0, 0)
	para, _ := doc.Locate(0, 1)
	if gap := para.Box.Top - heading.Box.Bottom; gap <= 1.5*heading.Height() {
		t.Errorf("Expected paragraph gap after blank line, got %v", gap)
	}

	indented, _ := doc.Locate(0, 3)
	if indented.RelativeLeft()-para.RelativeLeft() != 4*DefaultFontSize*0.5 {
		t.Errorf("Expected leading spaces to become indentation, got %v", indented.RelativeLeft())
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	md := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(md, []byte("Hello from markdown.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Open(md)
	if err != nil {
		t.Fatalf("Open markdown failed: %v", err)
	}
	if doc.Source != md || doc.First().Text != "Hello from markdown." {
		t.Errorf("Unexpected document %q from %s", doc.First().Text, doc.Source)
	}

	txt := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(txt, []byte("\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(txt); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Expected ErrEmptyDocument, got %v", err)
	}

	if _, err := Open(filepath.Join(dir, "sheet.xlsx")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}

	if Supported("a.xlsx") || !Supported("a.PDF") || !Supported("README.markdown") {
		t.Error("Unexpected Supported result")
	}
}

func TestFind(t *testing.T) {
	doc := NewBuilder("find").
		Lines("The quick brown fox", "jumps over", "the lazy dog").
		NewPage().
		Line("quick thinking").
		Unlaid().
		Build()

	matches := doc.Find("lazy")
	if len(matches) == 0 || matches[0].Fragment.Text != "the lazy dog" {
		t.Fatalf("Expected 'the lazy dog' first, got %v", matches)
	}

	for _, m := range doc.Find("quick") {
		if m.Fragment.Text == "quick thinking" {
			t.Error("Expected unlaid page to be excluded from search")
		}
	}

	if got := doc.Find("   "); got != nil {
		t.Errorf("Expected no matches for blank query, got %v", got)
	}

	if _, err := doc.FindFirst("zebra"); !errors.Is(err, ErrFragmentNotFound) {
		t.Errorf("Expected ErrFragmentNotFound, got %v", err)
	}
}

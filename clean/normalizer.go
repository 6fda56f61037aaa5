package clean

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer(
	"\ufb00", "ff",
	"\ufb01", "fi",
	"\ufb02", "fl",
	"\ufb03", "ffi",
	"\ufb04", "ffl",
	"\ufb05", "st",
	"\ufb06", "st",
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2010", "-",
	"\u2011", "-",
)

// lineBreakHyphen matches a word broken at a line end: raw text joins
// fragments with a space, so "exam- ple" is what remains of "exam-\nple".
var lineBreakHyphen = regexp.MustCompile(`(\p{Ll})- (\p{Ll})`)

// Normalizer is the local cleaner. It composes Unicode (NFC), expands
// typographic ligatures, drops invisible characters, rejoins words
// hyphenated across lines and collapses whitespace. Paragraph separators in
// a batch are preserved.
type Normalizer struct{}

// NewNormalizer returns the local cleaner.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Clean implements Cleaner.
func (n *Normalizer) Clean(ctx context.Context, raw string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Normalize(raw), nil
}

// Normalize cleans text without a context.
func Normalize(raw string) string {
	paragraphs := Split(raw)
	for i, p := range paragraphs {
		paragraphs[i] = normalizeParagraph(p)
	}
	return Join(paragraphs)
}

func normalizeParagraph(p string) string {
	p = norm.NFC.String(p)
	p = ligatures.Replace(p)
	p = strings.Map(func(r rune) rune {
		switch r {
		case '\u00ad', '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			return -1
		}
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, p)
	p = strings.Join(strings.Fields(p), " ")
	return lineBreakHyphen.ReplaceAllString(p, "$1$2")
}

package document

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Match is a fragment found by Find.
type Match struct {
	Fragment *Fragment
	Score    int
	Matched  []int // byte offsets of matched characters in the trimmed text
}

// fragmentSource adapts laid-out, non-empty fragments to fuzzy.Source.
type fragmentSource []*Fragment

func (s fragmentSource) String(i int) string { return s[i].Trimmed() }
func (s fragmentSource) Len() int            { return len(s) }

// Find fuzzy-matches query against the text of every readable fragment and
// returns matches best first. An exact substring match always ranks ahead
// of scattered matches.
func (d *Document) Find(query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var src fragmentSource
	for _, p := range d.pages {
		if !p.LaidOut {
			continue
		}
		for _, f := range p.Fragments {
			if !f.IsEmpty() {
				src = append(src, f)
			}
		}
	}

	var exact, scattered []Match
	lower := strings.ToLower(query)
	for _, m := range fuzzy.FindFrom(query, src) {
		match := Match{
			Fragment: src[m.Index],
			Score:    m.Score,
			Matched:  m.MatchedIndexes,
		}
		if strings.Contains(strings.ToLower(m.Str), lower) {
			exact = append(exact, match)
		} else {
			scattered = append(scattered, match)
		}
	}

	return append(exact, scattered...)
}

// FindFirst returns the best match for query.
func (d *Document) FindFirst(query string) (*Fragment, error) {
	matches := d.Find(query)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%q: %w", query, ErrFragmentNotFound)
	}
	return matches[0].Fragment, nil
}

package clean

import (
	"context"
	"strings"
)

// Separator joins paragraphs in a batch sent to a cleaner.
const Separator = "\n\n"

// Cleaner turns raw extracted text into text fit for speech. Cleaners are
// stateless and may be slow or fail; callers bound them with a context
// deadline.
type Cleaner interface {
	Clean(ctx context.Context, raw string) (string, error)
}

// Func adapts an ordinary function to the Cleaner interface.
type Func func(ctx context.Context, raw string) (string, error)

// Clean calls f(ctx, raw).
func (f Func) Clean(ctx context.Context, raw string) (string, error) {
	return f(ctx, raw)
}

// Join builds a batch from paragraph texts.
func Join(paragraphs []string) string {
	return strings.Join(paragraphs, Separator)
}

// Split divides a cleaned batch back into paragraphs.
func Split(batch string) []string {
	return strings.Split(batch, Separator)
}

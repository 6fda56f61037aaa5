package document

import "errors"

var (
	// ErrNilFragment is returned when a nil fragment is designated.
	ErrNilFragment = errors.New("no fragment designated")

	// ErrUnknownFragment is returned when a fragment does not belong to the document.
	ErrUnknownFragment = errors.New("fragment does not belong to this document")

	// ErrPageNotLaidOut is returned when a fragment's page has no geometry yet.
	ErrPageNotLaidOut = errors.New("page has not been laid out")

	// ErrFragmentNotFound is returned by Locate for out-of-range positions.
	ErrFragmentNotFound = errors.New("fragment not found")

	// ErrEmptyDocument is returned when a loader produced no readable text.
	ErrEmptyDocument = errors.New("document contains no text")

	// ErrUnsupportedFormat is returned by Open for unknown file types.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

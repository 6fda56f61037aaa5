package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

var markdownExtensions = []string{".md", ".mdown", ".mkdn", ".mkd", ".markdown"}

// Open loads a document, choosing the loader from the file extension.
func Open(path string, opts ...Option) (*Document, error) {
	var (
		doc *Document
		err error
	)

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		doc, err = LoadPDF(path)
	case isMarkdown(ext):
		doc, err = LoadMarkdown(path, opts...)
	case ext == ".txt" || ext == "":
		doc, err = LoadText(path, opts...)
	default:
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	if doc.First() == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}
	return doc, nil
}

// Supported reports whether Open can load the file.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || ext == ".txt" || ext == "" || isMarkdown(ext)
}

func isMarkdown(ext string) bool {
	for _, e := range markdownExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

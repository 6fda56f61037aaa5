// Package document models a paginated document as ordered pages of text
// fragments with layout geometry. It provides stateless traversal across
// page boundaries and loaders that lay out PDF, Markdown and plain-text
// sources.
package document

// Package clean defines the text cleaning boundary and its adapters: a
// local normalizer, an HTTP client for a remote cleaning service, a cached
// wrapper and the HTTP service itself.
package clean

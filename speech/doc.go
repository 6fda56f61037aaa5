// Package speech renders text as audio. Every Speaker blocks until the text
// has been spoken, or until its context ends.
package speech

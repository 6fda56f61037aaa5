// Package reading drives read-aloud playback of a document: it turns
// paragraph chunks into playback entries, keeps a lookahead buffer filled in
// the background and runs the playback loop that speaks and highlights
// fragments in order.
package reading

// Package segment groups a stream of document fragments into paragraph
// chunks using layout and lexical heuristics.
package segment

// Package cache stores cleaned text in two levels: an in-memory LRU (L1) in
// front of a zstd-compressed disk store (L2) that survives restarts.
package cache

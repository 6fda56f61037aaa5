package clean

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/charmbracelet/log"
)

// Store holds cleaned text by key. The two-level cache in internal/cache
// satisfies it.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// Cached serves repeated batches from a store and forwards misses to the
// wrapped cleaner. Failed calls are never stored.
type Cached struct {
	next      Cleaner
	store     Store
	namespace string
	logger    *log.Logger
}

// NewCached wraps next. The namespace separates entries produced by
// different cleaners that share a store.
func NewCached(next Cleaner, store Store, namespace string) *Cached {
	return &Cached{
		next:      next,
		store:     store,
		namespace: namespace,
		logger:    log.Default().WithPrefix("clean"),
	}
}

// Clean implements Cleaner.
func (c *Cached) Clean(ctx context.Context, raw string) (string, error) {
	key := c.Key(raw)
	if data, ok := c.store.Get(key); ok {
		c.logger.Debug("Clean cache hit", "key", key[:12])
		return string(data), nil
	}

	text, err := c.next.Clean(ctx, raw)
	if err != nil {
		return "", err
	}

	if err := c.store.Put(key, []byte(text)); err != nil {
		c.logger.Warn("Failed to cache cleaned text", "error", err)
	}
	return text, nil
}

// Key returns the store key for a raw batch.
func (c *Cached) Key(raw string) string {
	h := sha256.New()
	h.Write([]byte(c.namespace))
	h.Write([]byte{0})
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

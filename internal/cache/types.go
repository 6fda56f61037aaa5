package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when cache data cannot be decoded
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Stats holds the counters of one cache level.
type Stats struct {
	Capacity  int64 // bytes
	Size      int64 // bytes currently stored
	Items     int64
	Hits      int64
	Misses    int64
	Evictions int64

	LastAccess time.Time
}

// HitRate returns hits / (hits + misses).
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// String renders the stats for logs and the status bar.
func (s Stats) String() string {
	return fmt.Sprintf("%d items, %s of %s, %.0f%% hits",
		s.Items,
		humanize.Bytes(uint64(s.Size)),
		humanize.Bytes(uint64(s.Capacity)),
		s.HitRate()*100)
}

// Config holds configuration for a Manager.
type Config struct {
	MemoryCapacity   int64  // bytes
	DiskCapacity     int64  // bytes; zero disables the disk level
	Dir              string // directory of the disk level
	CompressionLevel int    // zstd level, zero stores plain text

	TTL             time.Duration // age after which entries expire
	CleanupInterval time.Duration // zero disables background cleanup
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   16 * 1024 * 1024,
		DiskCapacity:     128 * 1024 * 1024,
		CompressionLevel: 3,
		TTL:              30 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

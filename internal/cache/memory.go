package cache

import (
	"container/list"
	"sync"
	"time"
)

// MemoryCache is the L1 level: an LRU bounded by the total size of the
// stored values.
type MemoryCache struct {
	capacity int64
	size     int64

	items    map[string]*list.Element
	eviction *list.List

	mu    sync.Mutex
	stats Stats
}

type memoryEntry struct {
	key    string
	value  []byte
	stored time.Time
}

// NewMemoryCache creates a memory cache holding up to capacity bytes.
func NewMemoryCache(capacity int64) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats:    Stats{Capacity: capacity},
	}
}

// Get retrieves a value and marks it most recently used.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	c.eviction.MoveToFront(elem)
	c.stats.Hits++
	c.stats.LastAccess = time.Now()
	return elem.Value.(*memoryEntry).value, true
}

// Put stores a value, evicting least recently used entries to make room.
func (c *MemoryCache) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(value))
	if size > c.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}

	for c.size+size > c.capacity && c.eviction.Len() > 0 {
		c.removeElement(c.eviction.Back())
		c.stats.Evictions++
	}

	c.items[key] = c.eviction.PushFront(&memoryEntry{key: key, value: value, stored: time.Now()})
	c.size += size
	return nil
}

// Delete removes an entry.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
}

// Contains checks if a key exists without updating recency.
func (c *MemoryCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}

// Size returns the stored bytes.
func (c *MemoryCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.size
}

// Prune removes entries stored before now minus maxAge.
func (c *MemoryCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	pruned := 0
	for elem := c.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry).stored.Before(cutoff) {
			c.removeElement(elem)
			pruned++
		}
		elem = prev
	}
	return pruned
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = c.size
	stats.Items = int64(len(c.items))
	return stats
}

// removeElement must be called with the lock held.
func (c *MemoryCache) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*memoryEntry)
	delete(c.items, entry.key)
	c.size -= int64(len(entry.value))
}

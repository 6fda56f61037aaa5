package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	indexFile = "index.gob"

	// Values shorter than this are stored as-is.
	compressThreshold = 256
)

// DiskCache is the L2 level: one file per entry and a gob-encoded index,
// with values compressed by zstd.
type DiskCache struct {
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	Key        string
	File       string // base name inside dir
	Size       int64  // bytes on disk
	Compressed bool
	Stored     time.Time
	LastAccess time.Time
}

// NewDiskCache opens or creates a disk cache in dir. A compression level of
// zero stores values uncompressed.
func NewDiskCache(dir string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Capacity: capacity},
	}

	if compressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	// Entries written with compression stay readable after the level is
	// turned off, so the decoder is always available.
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	dc.decoder = decoder

	if err := dc.loadIndex(); err != nil {
		dc.index = make(map[string]*diskEntry)
	}
	for _, e := range dc.index {
		dc.size += e.Size
	}

	return dc, nil
}

// Get reads a value from disk. Missing or undecodable files are dropped
// from the index and reported as misses.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := dc.read(entry)
	if err != nil {
		dc.removeEntry(entry)
		dc.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	dc.stats.Hits++
	dc.stats.LastAccess = entry.LastAccess
	return data, true
}

// Put writes a value to disk, evicting least recently used entries to
// make room.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	data := value
	compressed := false
	if dc.encoder != nil && len(value) >= compressThreshold {
		if enc := dc.encoder.EncodeAll(value, nil); len(enc) < len(value) {
			data = enc
			compressed = true
		}
	}

	size := int64(len(data))
	if size > dc.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := dc.index[key]; ok {
		dc.removeEntry(existing)
	}
	for dc.size+size > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	name := fileName(key)
	if err := writeAtomic(filepath.Join(dc.dir, name), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	dc.index[key] = &diskEntry{
		Key:        key,
		File:       name,
		Size:       size,
		Compressed: compressed,
		Stored:     now,
		LastAccess: now,
	}
	dc.size += size
	return nil
}

// Delete removes an entry and its file.
func (dc *DiskCache) Delete(key string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if entry, ok := dc.index[key]; ok {
		dc.removeEntry(entry)
	}
}

// Clear removes every entry and saves the empty index.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, entry := range dc.index {
		os.Remove(filepath.Join(dc.dir, entry.File))
	}
	dc.index = make(map[string]*diskEntry)
	dc.size = 0
	return dc.saveIndex()
}

// Contains checks if a key exists without reading it.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	_, ok := dc.index[key]
	return ok
}

// Size returns the bytes stored on disk.
func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	return dc.size
}

// RemoveOlderThan removes entries stored before cutoff.
func (dc *DiskCache) RemoveOlderThan(cutoff time.Time) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	removed := 0
	for _, entry := range dc.index {
		if entry.Stored.Before(cutoff) {
			dc.removeEntry(entry)
			removed++
		}
	}
	return removed
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Size = dc.size
	stats.Items = int64(len(dc.index))
	return stats
}

// Flush saves the index.
func (dc *DiskCache) Flush() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	return dc.saveIndex()
}

// Close saves the index and releases the codec.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	err := dc.saveIndex()
	if dc.encoder != nil {
		dc.encoder.Close()
	}
	dc.decoder.Close()
	return err
}

func (dc *DiskCache) read(entry *diskEntry) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dc.dir, entry.File))
	if err != nil {
		return nil, err
	}
	if !entry.Compressed {
		return data, nil
	}
	out, err := dc.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	return out, nil
}

// removeEntry must be called with the lock held.
func (dc *DiskCache) removeEntry(entry *diskEntry) {
	os.Remove(filepath.Join(dc.dir, entry.File))
	delete(dc.index, entry.Key)
	dc.size -= entry.Size
}

func (dc *DiskCache) evictOldest() {
	entries := make([]*diskEntry, 0, len(dc.index))
	for _, e := range dc.index {
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})
	dc.removeEntry(entries[0])
	dc.stats.Evictions++
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	return gob.NewDecoder(f).Decode(&dc.index)
}

func (dc *DiskCache) saveIndex() error {
	f, err := os.CreateTemp(dc.dir, indexFile+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	err = gob.NewEncoder(f).Encode(dc.index)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filepath.Join(dc.dir, indexFile))
}

func fileName(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + ".txt"
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

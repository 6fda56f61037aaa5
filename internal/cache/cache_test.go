package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := NewMemoryCache(1024)

	if err := cache.Put("key", []byte("cleaned text")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := cache.Get("key")
	if !ok || string(got) != "cleaned text" {
		t.Errorf("Expected 'cleaned text', got %q (found=%v)", got, ok)
	}
	if !cache.Contains("key") {
		t.Error("Contains returned false for existing key")
	}
	if cache.Size() != int64(len("cleaned text")) {
		t.Errorf("Expected size %d, got %d", len("cleaned text"), cache.Size())
	}

	cache.Delete("key")
	if _, ok := cache.Get("key"); ok {
		t.Error("Key still exists after delete")
	}
	if cache.Size() != 0 {
		t.Errorf("Expected size 0 after delete, got %d", cache.Size())
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	cache := NewMemoryCache(30)

	cache.Put("a", []byte("0123456789"))
	cache.Put("b", []byte("0123456789"))
	cache.Put("c", []byte("0123456789"))

	// Touch a so b becomes least recently used.
	cache.Get("a")
	cache.Put("d", []byte("0123456789"))

	if cache.Contains("b") {
		t.Error("Expected b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if !cache.Contains(k) {
			t.Errorf("Expected %s to remain", k)
		}
	}
	if stats := cache.Stats(); stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestMemoryCache_ReplaceAndTooLarge(t *testing.T) {
	cache := NewMemoryCache(16)

	cache.Put("k", []byte("short"))
	cache.Put("k", []byte("longer value"))
	if cache.Size() != int64(len("longer value")) {
		t.Errorf("Expected size to track replacement, got %d", cache.Size())
	}

	if err := cache.Put("big", []byte(strings.Repeat("x", 17))); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Expected ErrItemTooLarge, got %v", err)
	}
}

func TestMemoryCache_Prune(t *testing.T) {
	cache := NewMemoryCache(1024)
	cache.Put("old", []byte("x"))
	time.Sleep(20 * time.Millisecond)
	cache.Put("new", []byte("y"))

	if pruned := cache.Prune(10 * time.Millisecond); pruned != 1 {
		t.Errorf("Expected 1 pruned entry, got %d", pruned)
	}
	if cache.Contains("old") || !cache.Contains("new") {
		t.Error("Expected only the old entry to be pruned")
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache(4096)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d-%d", id, j%10)
				cache.Put(key, []byte(key))
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Size() > 4096 {
		t.Errorf("Size %d exceeds capacity", cache.Size())
	}
}

func TestDiskCache_PersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("a sentence that compresses well. ", 40)

	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	if err := dc.Put("short", []byte("tiny")); err != nil {
		t.Fatal(err)
	}
	if err := dc.Put("long", []byte(long)); err != nil {
		t.Fatal(err)
	}
	if dc.Size() >= int64(len(long)+4) {
		t.Errorf("Expected compression to reduce size, got %d", dc.Size())
	}
	if err := dc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewDiskCache(dir, 1<<20, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if got, ok := reopened.Get("long"); !ok || string(got) != long {
		t.Error("Expected compressed entry to survive restart")
	}
	if got, ok := reopened.Get("short"); !ok || string(got) != "tiny" {
		t.Errorf("Expected 'tiny', got %q", got)
	}
}

func TestDiskCache_MissingFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	dc, _ := NewDiskCache(dir, 1<<20, 0)
	defer dc.Close()

	dc.Put("k", []byte("value"))
	os.Remove(filepath.Join(dir, fileName("k")))

	if _, ok := dc.Get("k"); ok {
		t.Error("Expected miss for deleted file")
	}
	if dc.Contains("k") {
		t.Error("Expected entry to be dropped from the index")
	}
	if dc.Size() != 0 {
		t.Errorf("Expected size 0, got %d", dc.Size())
	}
}

func TestDiskCache_EvictionAndExpiry(t *testing.T) {
	dc, _ := NewDiskCache(t.TempDir(), 20, 0)
	defer dc.Close()

	dc.Put("a", []byte("0123456789"))
	time.Sleep(5 * time.Millisecond)
	dc.Put("b", []byte("0123456789"))
	time.Sleep(5 * time.Millisecond)
	dc.Put("c", []byte("0123456789"))

	if dc.Contains("a") {
		t.Error("Expected oldest entry to be evicted")
	}

	if removed := dc.RemoveOlderThan(time.Now().Add(time.Minute)); removed != 2 {
		t.Errorf("Expected 2 expired entries, got %d", removed)
	}
	if err := dc.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
}

func TestManager_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		MemoryCapacity:   1024,
		DiskCapacity:     1 << 20,
		Dir:              dir,
		CompressionLevel: 3,
	}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := m.Put("k", []byte("cleaned")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	m.Close()

	m2, err := NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer m2.Close()

	if got, ok := m2.Get("k"); !ok || string(got) != "cleaned" {
		t.Fatalf("Expected disk hit, got %q (found=%v)", got, ok)
	}
	if !m2.memory.Contains("k") {
		t.Error("Expected disk hit to be promoted to memory")
	}

	stats := m2.Stats()
	if stats.Promotions != 1 || !stats.DiskOn {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if !strings.Contains(stats.String(), "disk:") {
		t.Errorf("Expected disk summary in %q", stats.String())
	}
}

func TestManager_MemoryOnly(t *testing.T) {
	m, err := NewManager(Config{MemoryCapacity: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if err := m.Put("k", []byte("too large for memory")); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Expected ErrItemTooLarge without a disk level, got %v", err)
	}
	if m.Stats().DiskOn {
		t.Error("Expected disk level to be off")
	}

	if _, err := NewManager(Config{DiskCapacity: 10}); err == nil {
		t.Error("Expected error for disk level without directory")
	}
}

func TestManager_Cleanup(t *testing.T) {
	m, err := NewManager(Config{
		MemoryCapacity: 1024,
		DiskCapacity:   1024,
		Dir:            t.TempDir(),
		TTL:            10 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	m.Put("k", []byte("v"))
	time.Sleep(20 * time.Millisecond)
	m.Cleanup()

	if _, ok := m.Get("k"); ok {
		t.Error("Expected expired entry to be gone")
	}
	if m.Stats().Cleanups != 1 {
		t.Errorf("Expected 1 cleanup run, got %d", m.Stats().Cleanups)
	}
}

func TestStatsString(t *testing.T) {
	s := Stats{Capacity: 2000, Size: 1000, Items: 3, Hits: 3, Misses: 1}
	if got := s.String(); got != "3 items, 1.0 kB of 2.0 kB, 75% hits" {
		t.Errorf("Unexpected stats string %q", got)
	}
}

package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager puts the memory level in front of the disk level. Disk hits are
// promoted to memory.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache // nil when the disk level is disabled

	config Config
	logger *log.Logger

	cleanupStop chan struct{}
	cleanupWg   sync.WaitGroup
	closeOnce   sync.Once

	mu         sync.Mutex
	promotions int64
	cleanups   int64
}

// ManagerStats aggregates the statistics of both levels.
type ManagerStats struct {
	Memory     Stats
	Disk       Stats
	DiskOn     bool
	Promotions int64
	Cleanups   int64
}

// String renders a one-line summary.
func (s ManagerStats) String() string {
	if !s.DiskOn {
		return "memory: " + s.Memory.String()
	}
	return fmt.Sprintf("memory: %s; disk: %s", s.Memory, s.Disk)
}

// NewManager creates the cache levels described by config.
func NewManager(config Config) (*Manager, error) {
	if config.MemoryCapacity <= 0 {
		config.MemoryCapacity = DefaultConfig().MemoryCapacity
	}

	m := &Manager{
		memory:      NewMemoryCache(config.MemoryCapacity),
		config:      config,
		logger:      log.Default().WithPrefix("cache"),
		cleanupStop: make(chan struct{}),
	}

	if config.DiskCapacity > 0 {
		if config.Dir == "" {
			return nil, errors.New("cache directory is required for the disk level")
		}
		disk, err := NewDiskCache(config.Dir, config.DiskCapacity, config.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		m.disk = disk
	}

	if config.CleanupInterval > 0 {
		m.startCleanup()
	}

	return m, nil
}

// Get checks memory, then disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		return data, true
	}
	if m.disk == nil {
		return nil, false
	}

	data, ok := m.disk.Get(key)
	if !ok {
		return nil, false
	}

	m.mu.Lock()
	m.promotions++
	m.mu.Unlock()
	_ = m.memory.Put(key, data)

	return data, true
}

// Put stores a value in both levels. A value too large for memory is still
// written to disk.
func (m *Manager) Put(key string, value []byte) error {
	memErr := m.memory.Put(key, value)
	if memErr != nil && !errors.Is(memErr, ErrItemTooLarge) {
		return fmt.Errorf("memory cache: %w", memErr)
	}

	if m.disk != nil {
		if err := m.disk.Put(key, value); err != nil {
			return fmt.Errorf("disk cache: %w", err)
		}
		return nil
	}
	return memErr
}

// Delete removes an entry from every level.
func (m *Manager) Delete(key string) {
	m.memory.Delete(key)
	if m.disk != nil {
		m.disk.Delete(key)
	}
}

// Clear removes all entries from every level.
func (m *Manager) Clear() error {
	m.memory.Clear()
	if m.disk != nil {
		return m.disk.Clear()
	}
	return nil
}

// Stats returns statistics of both levels.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := ManagerStats{
		Memory:     m.memory.Stats(),
		Promotions: m.promotions,
		Cleanups:   m.cleanups,
	}
	m.mu.Unlock()

	if m.disk != nil {
		stats.Disk = m.disk.Stats()
		stats.DiskOn = true
	}
	return stats
}

// Cleanup expires entries older than the configured TTL and saves the disk
// index.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	m.cleanups++
	m.mu.Unlock()

	if m.config.TTL > 0 {
		pruned := m.memory.Prune(m.config.TTL)
		removed := 0
		if m.disk != nil {
			removed = m.disk.RemoveOlderThan(time.Now().Add(-m.config.TTL))
		}
		if pruned+removed > 0 {
			m.logger.Debug("Expired cache entries", "memory", pruned, "disk", removed)
		}
	}

	if m.disk != nil {
		if err := m.disk.Flush(); err != nil {
			m.logger.Warn("Failed to save cache index", "error", err)
		}
	}
}

// Close stops background cleanup and saves the disk index.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.cleanupStop)
		m.cleanupWg.Wait()
		if m.disk != nil {
			if cerr := m.disk.Close(); cerr != nil {
				err = fmt.Errorf("failed to close disk cache: %w", cerr)
			}
		}
	})
	return err
}

func (m *Manager) startCleanup() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	m.cleanupWg.Add(1)

	go func() {
		defer m.cleanupWg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Cleanup()
			case <-m.cleanupStop:
				return
			}
		}
	}()
}

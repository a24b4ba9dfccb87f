package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryBackend implements an in-memory backend with LRU eviction.
// It is used as the L1 tier and on its own for throwaway sessions.
type MemoryBackend struct {
	capacity int64 // Maximum size in bytes, 0 for unbounded
	size     int64 // Current size in bytes

	// LRU implementation
	items    map[string]*list.Element
	eviction *list.List

	// Synchronization
	mu sync.Mutex

	// Metrics
	stats CacheStats
}

// memoryEntry represents an entry in the memory backend
type memoryEntry struct {
	key   string
	value string
	size  int64
}

// NewMemoryBackend creates a memory backend with the given capacity in bytes.
// A capacity of zero or less means unbounded.
func NewMemoryBackend(capacity int64) *MemoryBackend {
	if capacity < 0 {
		capacity = 0
	}
	return &MemoryBackend{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats: CacheStats{
			Capacity: capacity,
		},
	}
}

// Get retrieves a value from the cache.
func (c *MemoryBackend) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return "", ErrCacheMiss
	}

	// Move to front (most recently used)
	c.eviction.MoveToFront(elem)
	entry := elem.Value.(*memoryEntry)

	c.stats.Hits++
	c.stats.LastAccess = time.Now()
	return entry.value, nil
}

// Set stores a value in the cache, evicting least recently used entries
// to make room. Values larger than the capacity return ErrItemTooLarge.
func (c *MemoryBackend) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	valueSize := int64(len(value))

	if c.capacity > 0 && valueSize > c.capacity {
		return ErrItemTooLarge
	}

	// Check if key already exists
	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		entry := elem.Value.(*memoryEntry)

		c.size += valueSize - entry.size
		entry.value = value
		entry.size = valueSize

		c.evictToCapacity()
		return nil
	}

	// Evict items if necessary
	if c.capacity > 0 {
		for c.size+valueSize > c.capacity && c.eviction.Len() > 0 {
			c.evictOldest()
		}
	}

	entry := &memoryEntry{
		key:   key,
		value: value,
		size:  valueSize,
	}

	c.items[key] = c.eviction.PushFront(entry)
	c.size += valueSize
	return nil
}

// Delete removes an entry from the cache.
func (c *MemoryBackend) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
	return nil
}

// Clear removes all entries from the cache.
func (c *MemoryBackend) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
	return nil
}

// Close releases the stored values.
func (c *MemoryBackend) Close() error {
	return c.Clear(context.Background())
}

// Size returns the current cache size in bytes.
func (c *MemoryBackend) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.size
}


// Stats returns cache statistics.
func (c *MemoryBackend) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = c.size
	stats.ItemCount = int64(len(c.items))
	stats.updateHitRate()
	return stats
}


// evictToCapacity evicts until the size fits (must be called with lock held).
func (c *MemoryBackend) evictToCapacity() {
	if c.capacity == 0 {
		return
	}
	for c.size > c.capacity && c.eviction.Len() > 1 {
		c.evictOldest()
	}
}

// evictOldest removes the least recently used item (must be called with lock held).
func (c *MemoryBackend) evictOldest() {
	elem := c.eviction.Back()
	if elem != nil {
		c.removeElement(elem)
		c.stats.Evictions++
		c.stats.LastEvict = time.Now()
	}
}

// removeElement removes an element from the cache (must be called with lock held).
func (c *MemoryBackend) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*memoryEntry)
	delete(c.items, entry.key)
	c.size -= entry.size
}

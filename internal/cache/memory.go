package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process LRU cache with per-entry TTL
type MemoryCache struct {
	capacity int
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	lru      *list.List // front = most recently used
	now      func() time.Time
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	element   *list.Element
}

// NewMemoryCache creates a cache holding at most capacity entries
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]*memoryEntry),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get returns a copy of the cached value
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}

	if !c.now().Before(entry.expiresAt) {
		c.removeLocked(entry)
		return nil, false, nil
	}

	c.lru.MoveToFront(entry.element)
	return append([]byte(nil), entry.value...), true, nil
}

// Set stores a copy of value, evicting the least recently used entry when full
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	stored := append([]byte(nil), value...)

	if entry, ok := c.entries[key]; ok {
		entry.value = stored
		entry.expiresAt = expiresAt
		c.lru.MoveToFront(entry.element)
		return nil
	}

	entry := &memoryEntry{key: key, value: stored, expiresAt: expiresAt}
	entry.element = c.lru.PushFront(entry)
	c.entries[key] = entry

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeLocked(oldest.Value.(*memoryEntry))
		}
	}
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.removeLocked(entry)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close drops all entries
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*memoryEntry)
	c.lru.Init()
	return nil
}

// removeLocked removes an entry (must hold lock)
func (c *MemoryCache) removeLocked(entry *memoryEntry) {
	c.lru.Remove(entry.element)
	delete(c.entries, entry.key)
}

package cache

import (
	"container/list"
	"context"
	"sync"
)

// MemoryCache is an in-memory LRU cache bounded by total payload bytes.
type MemoryCache struct {
	mu       sync.Mutex
	maxBytes int
	size     int
	order    *list.List // front = most recently used
	entries  map[string]*list.Element
}

type memoryEntry struct {
	key  string
	data []byte
}

// DefaultMaxBytes bounds a memory cache when no limit is given (64 MiB).
const DefaultMaxBytes = 64 << 20

// NewMemoryCache creates a memory cache holding at most maxBytes of payload
// data. A non-positive limit means [DefaultMaxBytes].
func NewMemoryCache(maxBytes int) *MemoryCache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &MemoryCache{
		maxBytes: maxBytes,
		order:    list.New(),
		entries:  map[string]*list.Element{},
	}
}

// Get retrieves a value and marks it recently used.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	c.order.MoveToFront(el)
	return el.Value.(*memoryEntry).data, true, nil
}

// Set stores a value, evicting least recently used entries if needed.
// Payloads larger than the cache limit are silently not stored.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte) error {
	if len(data) > c.maxBytes {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*memoryEntry)
		c.size += len(data) - len(entry.data)
		entry.data = data
		c.order.MoveToFront(el)
	} else {
		c.entries[key] = c.order.PushFront(&memoryEntry{key: key, data: data})
		c.size += len(data)
	}
	for c.size > c.maxBytes {
		c.evictOldest()
	}
	return nil
}

// Delete removes a value.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	return nil
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = map[string]*list.Element{}
	c.size = 0
	return nil
}

func (c *MemoryCache) evictOldest() {
	if el := c.order.Back(); el != nil {
		c.remove(el)
	}
}

func (c *MemoryCache) remove(el *list.Element) {
	entry := el.Value.(*memoryEntry)
	c.order.Remove(el)
	delete(c.entries, entry.key)
	c.size -= len(entry.data)
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)

package dedup

import (
	"container/list"
	"sync"
)

// fingerprintCache is a bounded LRU set of recently seen fingerprints.
// It is shared across all fetch tasks in a run and across runs, so all
// operations are safe under concurrent access.
type fingerprintCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

// newFingerprintCache creates a cache holding at most capacity fingerprints.
func newFingerprintCache(capacity int) *fingerprintCache {
	return &fingerprintCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Contains reports whether the fingerprint is cached, refreshing its recency.
func (c *fingerprintCache) Contains(fingerprint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[fingerprint]
	if ok {
		c.order.MoveToFront(elem)
	}

	return ok
}

// Add inserts a fingerprint, evicting the least recently used entry when
// the cache is at capacity.
func (c *fingerprintCache) Add(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[fingerprint]; ok {
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(string))
		}
	}

	c.entries[fingerprint] = c.order.PushFront(fingerprint)
}

// Reset drops all entries.
func (c *fingerprintCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// Len returns the number of cached fingerprints.
func (c *fingerprintCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCapacity bounds every analysis cache unless overridden.
const DefaultCapacity = 1000

// Cache is a bounded insertion-ordered cache. When an insert would exceed
// the capacity the oldest entry is evicted; with a TTL configured, expired
// entries are purged first and a read of an expired entry is a miss.
// Cache state is a performance optimization only: a miss must always be
// able to fall through to recomputation.
type Cache[V any] struct {
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List
	now      func() time.Time
	mu       sync.Mutex
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// New creates a bounded cache without expiry.
func New[V any](capacity int) *Cache[V] {
	return NewTTL[V](capacity, 0)
}

// NewTTL creates a bounded cache whose entries expire after ttl.
// A zero ttl disables expiry.
func NewTTL[V any](capacity int, ttl time.Duration) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[V]{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached value for key, reporting a miss for absent or
// expired entries.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	ent := elem.Value.(*entry[V])
	if c.ttl > 0 && c.now().After(ent.expires) {
		c.remove(elem)
		return zero, false
	}
	return ent.value, true
}

// Put stores value under key, evicting as needed to keep the cache bounded.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		ent := elem.Value.(*entry[V])
		ent.value = value
		if c.ttl > 0 {
			ent.expires = c.now().Add(c.ttl)
		}
		return
	}
	ent := &entry[V]{key: key, value: value}
	if c.ttl > 0 {
		ent.expires = c.now().Add(c.ttl)
	}
	c.entries[key] = c.order.PushFront(ent)
	c.evictIfNeeded()
}

// Len returns the number of stored entries, including any not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// evictIfNeeded first drops expired entries, then falls back to
// oldest-first eviction until the capacity holds. Callers hold c.mu.
func (c *Cache[V]) evictIfNeeded() {
	if c.order.Len() <= c.capacity {
		return
	}
	if c.ttl > 0 {
		now := c.now()
		for elem := c.order.Back(); elem != nil; {
			prev := elem.Prev()
			if now.After(elem.Value.(*entry[V]).expires) {
				c.remove(elem)
			}
			elem = prev
		}
	}
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		c.remove(oldest)
	}
}

func (c *Cache[V]) remove(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*entry[V]).key)
}

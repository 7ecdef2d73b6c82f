// Package cache provides a small TTL+LRU cache used to memoize derived
// analytics responses. It is a performance layer only: callers must stay
// correct when entries expire, are evicted, or the cache is cleared.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type item[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// Cache is a fixed-capacity LRU with per-entry TTL.
type Cache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
}

func New[T any](maxSize int, ttl time.Duration) *Cache[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	it := elem.Value.(*item[T])
	if c.now().After(it.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.lru.MoveToFront(elem)
	return it.data, true
}

// Set stores data under key, evicting the least recently used entry when full.
func (c *Cache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it := &item[T]{key: key, data: data, expiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value = it
		c.lru.MoveToFront(elem)
		return
	}
	c.items[key] = c.lru.PushFront(it)
	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

// Clear drops every entry. Called on expense/category mutations so readers
// never observe pre-write aggregates past the write.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru.Init()
}

// Len reports the number of live entries, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache[T]) remove(elem *list.Element) {
	it := elem.Value.(*item[T])
	delete(c.items, it.key)
	c.lru.Remove(elem)
}

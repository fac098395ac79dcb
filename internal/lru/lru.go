// Package lru provides a small generic least-recently-used cache used for
// single-character query results and decoded icons.
package lru

import (
	"container/list"
	"sync"
)

// Cache is a fixed-capacity LRU cache. It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List
}

type entry[K comparable, V any] struct {
	key K
	val V
}

// New creates a cache holding at most capacity entries (minimum 1)
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached value and marks it as recently used
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*entry[K, V]).val, true
	}
	var zero V
	return zero, false
}

// Put inserts or replaces a value, evicting the least recently used entry when full
func (c *Cache[K, V]) Put(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*entry[K, V]).val = val
		c.order.MoveToFront(elem)
		return
	}

	for c.order.Len() >= c.capacity {
		c.removeElement(c.order.Back())
	}
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, val: val})
}

// Delete removes key and reports whether it was present
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
		return true
	}
	return false
}

// DeleteFunc removes every entry matching pred and returns how many were removed
func (c *Cache[K, V]) DeleteFunc(pred func(K, V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for e := c.order.Front(); e != nil; {
		next := e.Next()
		ent := e.Value.(*entry[K, V])
		if pred(ent.key, ent.val) {
			c.removeElement(e)
			removed++
		}
		e = next
	}
	return removed
}

// Keys returns keys from most to least recently used
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*entry[K, V]).key)
	}
	return keys
}

// Len returns the number of cached entries
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear drops all entries
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

func (c *Cache[K, V]) removeElement(elem *list.Element) {
	if elem == nil {
		return
	}
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry[K, V]).key)
}

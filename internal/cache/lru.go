package cache

import (
	"sync"
	"time"
)

// LRUCache holds at most maxSize values keyed by string. Reads refresh
// recency; values older than ttl read as missing and are dropped lazily.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	byKey map[string]*node[T]
	// head is a sentinel: head.next is the most recent node, head.prev the
	// least recent.
	head node[T]
}

type node[T any] struct {
	key        string
	value      T
	expires    time.Time
	prev, next *node[T]
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	c := &LRUCache[T]{
		maxSize: max(maxSize, 1),
		ttl:     ttl,
		now:     time.Now,
		byKey:   make(map[string]*node[T]),
	}
	c.head.prev, c.head.next = &c.head, &c.head
	return c
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.byKey[key]
	if !ok || c.stale(n, c.now()) {
		if ok {
			c.unlink(n)
		}
		var zero T
		return zero, false
	}
	c.touch(n)
	return n.value, true
}

func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if n, ok := c.byKey[key]; ok {
		n.value, n.expires = value, expires
		c.touch(n)
		return
	}

	n := &node[T]{key: key, value: value, expires: expires}
	c.byKey[key] = n
	c.pushFront(n)
	for len(c.byKey) > c.maxSize {
		c.unlink(c.head.prev)
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.byKey[key]; ok {
		c.unlink(n)
	}
}

// Purge forgets every value.
func (c *LRUCache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.byKey)
	c.head.prev, c.head.next = &c.head, &c.head
}

// CleanExpired drops stale values and reports how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for n := c.head.next; n != &c.head; {
		next := n.next
		if c.stale(n, now) {
			c.unlink(n)
			dropped++
		}
		n = next
	}
	return dropped
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

func (c *LRUCache[T]) stale(n *node[T], now time.Time) bool {
	return now.After(n.expires)
}

func (c *LRUCache[T]) pushFront(n *node[T]) {
	n.prev, n.next = &c.head, c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRUCache[T]) touch(n *node[T]) {
	n.prev.next, n.next.prev = n.next, n.prev
	c.pushFront(n)
}

func (c *LRUCache[T]) unlink(n *node[T]) {
	n.prev.next, n.next.prev = n.next, n.prev
	n.prev, n.next = nil, nil
	delete(c.byKey, n.key)
}

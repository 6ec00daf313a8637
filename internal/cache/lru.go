package cache

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"time"
)

const (
	defaultCapacity = 512
	defaultTTL      = time.Minute
)

type entry struct {
	key     string
	labels  []string
	expires time.Time
	element *list.Element
}

// LRU is an in-process least-recently-used cache with a per-entry TTL.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*entry
	order    *list.List
	now      func() time.Time
}

// NewLRU creates an LRU cache. Non-positive capacity or ttl use defaults
// (512 entries, one minute).
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &LRU{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*entry, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

func (c *LRU) Get(_ context.Context, key string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(ent.expires) {
		c.removeEntry(ent)
		return nil, false, nil
	}
	c.order.MoveToFront(ent.element)
	return slices.Clone(ent.labels), true, nil
}

func (c *LRU) Set(_ context.Context, key string, labels []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if ent, ok := c.items[key]; ok {
		ent.labels = slices.Clone(labels)
		ent.expires = expires
		c.order.MoveToFront(ent.element)
		return nil
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}
	ent := &entry{key: key, labels: slices.Clone(labels), expires: expires}
	ent.element = c.order.PushFront(ent)
	c.items[key] = ent
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Purge drops every entry.
func (c *LRU) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry, c.capacity)
	c.order.Init()
}

func (c *LRU) evictOldest() {
	if back := c.order.Back(); back != nil {
		c.removeEntry(back.Value.(*entry))
	}
}

func (c *LRU) removeEntry(ent *entry) {
	c.order.Remove(ent.element)
	delete(c.items, ent.key)
}

var _ Cache = (*LRU)(nil)

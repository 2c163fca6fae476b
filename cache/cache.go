package cache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader produces the value for a key on a cache miss, typically by reading
// the backing store. Errors propagate unchanged to the GetOrLoad caller.
type Loader[V any] func(ctx context.Context) (V, error)

// Config defines a public type used by authengine APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// The On* hooks, when set, are invoked outside the cache lock and must be
// safe for concurrent use; the engine wires them to its metric counters.
type Config struct {
	MaxEntries int

	OnHit      func()
	OnMiss     func()
	OnEviction func()
}

type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
}

// Cache is a concurrency-safe keyed cache with LRU eviction. The zero value
// is not usable; construct with [New].
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List        // front = most recently used
	gens    map[string]uint64 // per-key write generation, tracked while a load is in flight
	loads   map[string]int    // in-flight load count per key
	cfg     Config

	group singleflight.Group
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
func New[V any](cfg Config) (*Cache[V], error) {
	if cfg.MaxEntries <= 0 {
		return nil, errors.New("cache capacity must be positive")
	}
	return &Cache[V]{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		gens:    make(map[string]uint64),
		loads:   make(map[string]int),
		cfg:     cfg,
	}, nil
}

// Get returns the cached value for key without loading on a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*entry[V]).value, true
}

// Put unconditionally overwrites the entry for key. Callers must complete the
// backing store write before calling Put: the cache must never run ahead of a
// store that later fails to persist.
func (c *Cache[V]) Put(key string, value V) {
	c.group.Forget(key)

	c.mu.Lock()
	c.bumpLocked(key)
	evicted := c.putLocked(key, value)
	c.mu.Unlock()

	if evicted && c.cfg.OnEviction != nil {
		c.cfg.OnEviction()
	}
}

// Evict removes the entry for key, reporting whether one was present. A
// failed delete at the store layer must not be followed by Evict.
func (c *Cache[V]) Evict(key string) bool {
	c.group.Forget(key)

	c.mu.Lock()
	c.bumpLocked(key)
	elem, ok := c.entries[key]
	if ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return ok
}

// GetOrLoad returns the cached value for key, or invokes loader on a miss,
// stores the result, and returns it. Concurrent misses for the same key share
// a single loader invocation. The loader runs outside the cache lock.
//
// A Put or Evict that completes while a load for the same key is in flight
// wins: the loaded value is still returned to the flight's callers, but it is
// not installed, so a finished write is never overwritten by older store data.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, loader Loader[V]) (V, error) {
	if value, ok := c.Get(key); ok {
		if c.cfg.OnHit != nil {
			c.cfg.OnHit()
		}
		return value, nil
	}
	if c.cfg.OnMiss != nil {
		c.cfg.OnMiss()
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have populated the key between the miss and
		// the flight start; prefer what is already cached.
		c.mu.Lock()
		if elem, ok := c.entries[key]; ok {
			c.order.MoveToFront(elem)
			value := elem.Value.(*entry[V]).value
			c.mu.Unlock()
			return value, nil
		}
		gen := c.gens[key]
		c.loads[key]++
		c.mu.Unlock()

		value, err := loader(ctx)

		c.mu.Lock()
		var evicted bool
		if err == nil && c.gens[key] == gen {
			evicted = c.putLocked(key, value)
		}
		c.loadDoneLocked(key)
		c.mu.Unlock()

		if err != nil {
			return nil, err
		}
		if evicted && c.cfg.OnEviction != nil {
			c.cfg.OnEviction()
		}

		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	return result.(V), nil
}

// Len reports the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// bumpLocked invalidates any in-flight load for key so its result is not
// installed over a write that completed here. Keys with no load in flight
// need no generation: nothing captured one.
func (c *Cache[V]) bumpLocked(key string) {
	if c.loads[key] > 0 {
		c.gens[key]++
	}
}

// loadDoneLocked retires one in-flight load for key, releasing the
// generation bookkeeping once the last load finishes.
func (c *Cache[V]) loadDoneLocked(key string) {
	if n := c.loads[key]; n <= 1 {
		delete(c.loads, key)
		delete(c.gens, key)
	} else {
		c.loads[key] = n - 1
	}
}

// putLocked inserts or overwrites key and enforces the capacity bound.
// It reports whether an unrelated entry was evicted.
func (c *Cache[V]) putLocked(key string, value V) bool {
	now := time.Now()
	if elem, ok := c.entries[key]; ok {
		ent := elem.Value.(*entry[V])
		ent.value = value
		ent.storedAt = now
		c.order.MoveToFront(elem)
		return false
	}

	c.entries[key] = c.order.PushFront(&entry[V]{
		key:      key,
		value:    value,
		storedAt: now,
	})

	if len(c.entries) <= c.cfg.MaxEntries {
		return false
	}

	oldest := c.order.Back()
	if oldest == nil {
		return false
	}
	c.order.Remove(oldest)
	delete(c.entries, oldest.Value.(*entry[V]).key)
	return true
}

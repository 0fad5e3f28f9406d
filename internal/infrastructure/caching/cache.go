// Package caching implements the TTL cache with single-flight coalescing that
// fronts every read against the backing store. A Cache is a constructed
// object; callers receive one through the container rather than a package
// global, so tests can build isolated instances with their own clocks.
//
// Locking: one mutex guards entries, in-flight registrations, and generation
// counters. Fetch functions always run outside the lock.
package caching

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
)

// FetchFunc produces a fresh value for a cache key.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// flight is a single in-flight fetch. Waiters block on done; val and err are
// readable once done is closed. gen records the key's generation at takeoff
// so a result landing after an invalidation is delivered but never stored.
type flight struct {
	done chan struct{}
	val  any
	err  error
	gen  uint64
}

// Cache is a mutex-protected TTL cache with per-key request coalescing.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	flights map[string]*flight
	gens    map[string]uint64

	clock  func() time.Time
	logger *logging.ChanneledLogger
}

// NewCache builds an empty cache. logger may be nil.
func NewCache(logger *logging.ChanneledLogger) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		flights: make(map[string]*flight),
		gens:    make(map[string]uint64),
		clock:   time.Now,
		logger:  logger,
	}
}

// SetClock replaces the time source. Tests only; not safe once the cache is
// shared between goroutines.
func (c *Cache) SetClock(clock func() time.Time) { c.clock = clock }

// GetOrFetch returns the cached value for key if it is still within ttl.
// Otherwise exactly one caller runs fetch while concurrent callers for the
// same key wait and share the outcome. Errors are never cached. The boolean
// reports whether the value was served from the cache.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (any, bool, error) {
	start := c.clock()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if c.clock().Sub(e.storedAt) < e.ttl {
			c.mu.Unlock()
			if c.logger != nil {
				c.logger.LogCacheOperation("get", key, true, time.Since(start))
			}
			return e.value, true, nil
		}
		delete(c.entries, key)
	}

	if fl, ok := c.flights[key]; ok {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.val, false, fl.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	fl := &flight{done: make(chan struct{}), gen: c.gens[key]}
	c.flights[key] = fl
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.LogCacheOperation("get", key, false, time.Since(start))
	}

	fl.val, fl.err = fetch(ctx)

	c.mu.Lock()
	// Clear the registration before releasing waiters so no later caller can
	// attach to a completed flight. An invalidation may already have replaced
	// or removed the registration; only remove our own.
	if c.flights[key] == fl {
		delete(c.flights, key)
	}
	if fl.err == nil && c.gens[key] == fl.gen {
		c.entries[key] = &entry{value: fl.val, storedAt: c.clock(), ttl: ttl}
	}
	c.mu.Unlock()
	close(fl.done)

	return fl.val, false, fl.err
}

// Invalidate removes the entry for key and marks any in-flight fetch as
// outdated. Waiters already attached to the flight still receive its result;
// the result is just never stored, so the next caller fetches fresh data.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	delete(c.flights, key)
	c.gens[key]++
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Cache().Debug("Cache invalidated", "key", key)
	}
}

// InvalidatePrefix evicts every entry whose key starts with prefix and
// outdates matching in-flight fetches. Writes use it to drop a resource
// across all actors at once, dashboard aggregates in particular.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	for key := range c.flights {
		if strings.HasPrefix(key, prefix) {
			c.gens[key]++
			delete(c.flights, key)
		}
	}
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Cache().Debug("Cache invalidated by prefix", "prefix", prefix)
	}
}

// InvalidateAll clears the whole keyspace. Used on sign-out.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	for key := range c.entries {
		delete(c.entries, key)
	}
	// Outdate every in-flight fetch so nothing lands after the clear.
	for key := range c.flights {
		c.gens[key]++
		delete(c.flights, key)
	}
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Cache().Debug("Cache cleared")
	}
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetch is the typed wrapper around Cache.GetOrFetch.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, bool, error) {
	v, hit, err := c.GetOrFetch(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, hit, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, hit, nil
	}
	return typed, hit, nil
}

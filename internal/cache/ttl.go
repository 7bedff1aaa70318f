// Package cache provides a generic in-memory cache with per-entry expiry.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value   V
	expires time.Time // zero never expires
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Stats holds lookup counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock sets the clock used for expiry.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// TTL is a map whose entries expire after a time-to-live. It is safe for
// concurrent use.
type TTL[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	clock   clockwork.Clock
	loads   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache whose entries live for ttl unless set otherwise. A
// non-positive ttl keeps entries until they are deleted.
func New[V any](ttl time.Duration, opts ...Option) *TTL[V] {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		clock:   o.clock,
	}
}

// Get returns the live value for key.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(c.clock.Now()) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *TTL[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key. A non-positive ttl uses the default.
func (c *TTL[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	e := entry[V]{value: value}
	if ttl > 0 {
		e.expires = c.clock.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result for ttl. Concurrent callers for the same key share one load, which
// runs detached from any caller's cancellation; a caller whose ctx ends stops
// waiting while the load completes for the others. Errors are returned to
// every waiting caller and never cached. The bool reports whether the value
// came from the cache.
func (c *TTL[V]) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(key, func() (any, error) {
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && !e.expired(c.clock.Now()) {
			return e.value, nil
		}

		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		c.SetWithTTL(key, v, ttl)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, false, r.Err
		}
		return r.Val.(V), false, nil
	}
}

// Delete removes key.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge removes every entry.
func (c *TTL[V]) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len returns the number of live entries.
func (c *TTL[V]) Len() int {
	now := c.clock.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// RemoveExpired deletes expired entries and returns how many were removed.
func (c *TTL[V]) RemoveExpired() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns the lookup counters.
func (c *TTL[V]) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.Len(),
	}
}

// StartJanitor removes expired entries every interval until ctx is done.
func (c *TTL[V]) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := c.clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				c.RemoveExpired()
			}
		}
	}()
}

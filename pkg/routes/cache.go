package routes

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Outcome describes how Cache.Resolve obtained its answer.
type Outcome int

const (
	// FromCache means the route was already cached; no lookup was made.
	FromCache Outcome = iota

	// Fetched means this caller issued the outbound lookup.
	Fetched

	// Joined means another caller's in-flight lookup for the same
	// callsign answered this one.
	Joined
)

func (o Outcome) String() string {
	switch o {
	case FromCache:
		return "cache"
	case Fetched:
		return "fetched"
	case Joined:
		return "joined"
	default:
		return "unknown"
	}
}

// Cache maps normalized callsigns to resolved routes.
//
// A stored empty Route is a permanent "no route known" marker, distinct
// from a callsign that was never looked up. Entries never expire unless
// the cache was built with NewBoundedCache.
//
// Cache is safe for concurrent use. Resolve guarantees at most one
// outbound lookup per callsign at a time.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Route

	// bounded replaces entries when a size or TTL is configured
	bounded *expirable.LRU[string, Route]

	group singleflight.Group
}

// NewCache creates an unbounded cache that lives as long as the process.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Route)}
}

// NewBoundedCache creates a cache holding at most size entries, each
// expiring after ttl. size <= 0 means no size limit and ttl <= 0 means
// no expiry; with both unset this is the same as NewCache.
func NewBoundedCache(size int, ttl time.Duration) *Cache {
	if size <= 0 && ttl <= 0 {
		return NewCache()
	}
	if size < 0 {
		size = 0
	}
	return &Cache{bounded: expirable.NewLRU[string, Route](size, nil, ttl)}
}

// Get returns the cached route for callsign.
func (c *Cache) Get(callsign string) (Route, bool) {
	key := NormalizeCallsign(callsign)
	if c.bounded != nil {
		return c.bounded.Get(key)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	return r, ok
}

// Put stores route for callsign, replacing any previous value.
func (c *Cache) Put(callsign string, route Route) {
	key := NormalizeCallsign(callsign)
	if key == "" {
		return
	}
	if c.bounded != nil {
		c.bounded.Add(key, route)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = route
}

// Len returns the number of cached callsigns.
func (c *Cache) Len() int {
	if c.bounded != nil {
		return c.bounded.Len()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Resolve returns the route for callsign, calling fetch on a miss.
//
// Concurrent Resolve calls for the same callsign share a single fetch.
// ErrNotFound from fetch is stored as the empty-route marker and reported
// as success. Any other fetch error is returned and nothing is stored, so
// a later call may retry.
func (c *Cache) Resolve(ctx context.Context, callsign string, fetch func(context.Context, string) (Route, error)) (Route, Outcome, error) {
	key := NormalizeCallsign(callsign)
	if r, ok := c.Get(key); ok {
		return r, FromCache, nil
	}

	leader := false
	hit := false
	v, err, _ := c.group.Do(key, func() (any, error) {
		leader = true

		// Another flight may have finished between Get and Do.
		if r, ok := c.Get(key); ok {
			hit = true
			return r, nil
		}

		r, err := fetch(ctx, key)
		if errors.Is(err, ErrNotFound) {
			r, err = Route{}, nil
		}
		if err != nil {
			return Route{}, err
		}
		c.Put(key, r)
		return r, nil
	})

	outcome := Joined
	switch {
	case leader && hit:
		outcome = FromCache
	case leader:
		outcome = Fetched
	}

	if err != nil {
		return Route{}, outcome, err
	}
	return v.(Route), outcome, nil
}

package sentry

import (
	"context"
	"sync"

	"github.com/orbitwatch/neo-data-service/internal/domain"
)

// ObjectFetcher is the per-object lookup the cache decorates.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, designation string) (*domain.ThreatAssessment, error)
}

// CachedClient wraps per-object Sentry lookups with an in-memory LRU
// cache. The risk-table fetch is never cached.
type CachedClient struct {
	inner    ObjectFetcher
	cache    *lruCache
	onLookup func(hit bool)
}

// NewCachedClient creates a cache decorator around a Sentry client.
func NewCachedClient(inner ObjectFetcher, maxEntries int) *CachedClient {
	return &CachedClient{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

// OnLookup registers a callback invoked after every lookup, used to feed
// hit/miss metrics without coupling the adapter to a registry.
func (c *CachedClient) OnLookup(fn func(hit bool)) {
	c.onLookup = fn
}

func (c *CachedClient) FetchObject(ctx context.Context, designation string) (*domain.ThreatAssessment, error) {
	t, ok := c.cache.get(designation)
	if c.onLookup != nil {
		c.onLookup(ok)
	}
	if ok {
		return t, nil
	}
	t, err := c.inner.FetchObject(ctx, designation)
	if err != nil {
		return nil, err
	}
	// Absent objects are cached too: "not found" and "removed" are stable
	// answers within one sync run.
	c.cache.put(designation, t)
	return t, nil
}

// lruCache is a simple thread-safe LRU cache for threat assessments.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *domain.ThreatAssessment
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*domain.ThreatAssessment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *domain.ThreatAssessment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}

// Package memo caches the results of pure computations over an immutable
// dataset. Entries are addressed by the computation name, the dataset
// fingerprint and the arguments, and live for the lifetime of the cache.
package memo

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// Key identifies one computation result.
type Key struct {
	Fn      string
	Dataset uint64
	Args    []any
}

// Sum hashes the key. Arguments are hashed through their %v form, so they
// must print deterministically.
func (k Key) Sum() uint64 {
	d := xxhash.New()
	fmt.Fprintf(d, "%s\x00%016x", k.Fn, k.Dataset)
	for _, a := range k.Args {
		fmt.Fprintf(d, "\x00%T:%v", a, a)
	}
	return d.Sum64()
}

type entry struct {
	value any
	err   error
}

type Cache struct {
	mu       sync.RWMutex
	entries  map[uint64]entry
	group    singleflight.Group
	onLookup func(fn string, hit bool)
}

type Option func(*Cache)

// WithLookupHook registers a callback run on every lookup.
func WithLookupHook(hook func(fn string, hit bool)) Option {
	return func(c *Cache) {
		c.onLookup = hook
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{entries: make(map[uint64]entry)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[uint64]entry)
	c.mu.Unlock()
}

func (c *Cache) get(sum uint64) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[sum]
	return e, ok
}

func (c *Cache) put(sum uint64, e entry) {
	c.mu.Lock()
	c.entries[sum] = e
	c.mu.Unlock()
}

func (c *Cache) lookup(fn string, hit bool) {
	if c.onLookup != nil {
		c.onLookup(fn, hit)
	}
}

// Do returns the cached result for key, computing it at most once.
// Concurrent callers with the same key share one computation. Errors are
// cached like values: computations are deterministic, so retrying would
// fail the same way.
func Do[T any](c *Cache, key Key, compute func() (T, error)) (T, error) {
	sum := key.Sum()
	if e, ok := c.get(sum); ok {
		c.lookup(key.Fn, true)
		v, _ := e.value.(T)
		return v, e.err
	}
	c.lookup(key.Fn, false)

	res, err, _ := c.group.Do(strconv.FormatUint(sum, 16), func() (any, error) {
		if e, ok := c.get(sum); ok {
			return e.value, e.err
		}
		v, err := compute()
		c.put(sum, entry{value: v, err: err})
		return v, err
	})
	v, _ := res.(T)
	return v, err
}

// Package ristretto backs the cache port with an in-process ristretto
// cache. Adjutant keeps rendered knowledge context blocks in it, keyed
// by agent id, so back-to-back sessions skip the render query.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const (
	bufferItems = 64

	// Context blocks run a few KB; the admission counters are sized for
	// roughly ten times the entry count that fits in the budget.
	avgEntryBytes = 4 << 10
	minCounters   = 10_000
)

// Cache adapts ristretto to the cache port. Cost is value length in
// bytes, so the configured budget bounds memory, not entry count.
type Cache struct {
	inner *ristretto.Cache[string, []byte]
}

// New creates a cache holding at most maxBytes of values.
func New(maxBytes int64) (*Cache, error) {
	counters := maxBytes / avgEntryBytes * 10
	if counters < minCounters {
		counters = minCounters
	}
	inner, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: counters,
		MaxCost:     maxBytes,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := c.inner.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.inner.SetWithTTL(key, value, int64(len(value)), ttl)
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.inner.Del(key)
	return nil
}

// Close releases the cache's internal goroutines.
func (c *Cache) Close() {
	c.inner.Close()
}

// Copyright (c) 2025 Neomantra Corp
//
// Hot-partition caching (spec §4.6.3's latency budget, §5's consistent-
// snapshot guarantee): three fixed-capacity LRU caches, one per
// resource kind, each entry additionally expiring on a TTL. Chain
// entries are fingerprinted on the query plus the manifest hash in
// effect at read time (fingerprint.go), so a verified manifest change
// can never serve a stale chain view even before its TTL lapses; bar
// and spot entries are keyed on the query alone and rely on their TTL.
//
// Backed by hashicorp/golang-lru/v2, the same LRU library used
// elsewhere in the example corpus for bounded in-memory caches.

package query

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quantlayer/alphastore"
)

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// ttlCache wraps an LRU of fixed capacity with a per-entry TTL on top.
// A TTL-expired entry is treated as a miss and evicted on next access.
type ttlCache[V any] struct {
	lru *lru.Cache[string, cacheEntry[V]]
	ttl time.Duration
	now func() time.Time
}

func newTTLCache[V any](capacity int, ttl time.Duration, now func() time.Time) *ttlCache[V] {
	c, _ := lru.New[string, cacheEntry[V]](capacity)
	if now == nil {
		now = time.Now
	}
	return &ttlCache[V]{lru: c, ttl: ttl, now: now}
}

func (c *ttlCache[V]) Get(key string) (V, bool) {
	var zero V
	entry, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(entry.expires) {
		c.lru.Remove(key)
		return zero, false
	}
	return entry.value, true
}

func (c *ttlCache[V]) Put(key string, value V) {
	c.lru.Add(key, cacheEntry[V]{value: value, expires: c.now().Add(c.ttl)})
}

// Cache bundles the chain/bar/spot caches with their spec §4.8/§6
// default sizes and TTLs (15m / 5m / 1m).
type Cache struct {
	chains *ttlCache[alphastore.ChainView]
	bars   *ttlCache[[]alphastore.UnderlyingBar]
	spots  *ttlCache[*alphastore.Money]
}

// CacheConfig sizes each of the three per-resource caches.
type CacheConfig struct {
	ChainCapacity int
	BarCapacity   int
	SpotCapacity  int
}

// DefaultCacheConfig returns reasonable capacities for a single engine
// instance; spec §4.6.3 fixes the TTLs, not the entry counts.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{ChainCapacity: 256, BarCapacity: 256, SpotCapacity: 512}
}

// NewCache builds a Cache using spec §4.6's default TTLs (chains 15m,
// bars 5m, spot 1m). now is injectable for deterministic tests; nil
// uses time.Now.
func NewCache(cfg CacheConfig, now func() time.Time) *Cache {
	return &Cache{
		chains: newTTLCache[alphastore.ChainView](cfg.ChainCapacity, alphastore.DefaultChainCacheTTLMin*time.Minute, now),
		bars:   newTTLCache[[]alphastore.UnderlyingBar](cfg.BarCapacity, alphastore.DefaultBarCacheTTLMin*time.Minute, now),
		spots:  newTTLCache[*alphastore.Money](cfg.SpotCapacity, alphastore.DefaultSpotCacheTTLMin*time.Minute, now),
	}
}

func (c *Cache) GetChainView(key string) (alphastore.ChainView, bool) { return c.chains.Get(key) }
func (c *Cache) PutChainView(key string, v alphastore.ChainView)      { c.chains.Put(key, v) }

func (c *Cache) GetBars(key string) ([]alphastore.UnderlyingBar, bool) { return c.bars.Get(key) }
func (c *Cache) PutBars(key string, v []alphastore.UnderlyingBar)      { c.bars.Put(key, v) }

func (c *Cache) GetSpot(key string) (*alphastore.Money, bool) { return c.spots.Get(key) }
func (c *Cache) PutSpot(key string, v *alphastore.Money)      { c.spots.Put(key, v) }

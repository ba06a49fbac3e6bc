package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Simplici0/nactco/internal/tco"
)

// ResultCache memoises per-vendor TCO breakdowns across calculations. It is
// owned by the caller and safe for concurrent use. Flush it whenever the
// catalog it was filled from changes.
type ResultCache struct {
	store  *cache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats are cumulative lookup counters.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// CacheKey identifies one vendor's breakdown. Fingerprint covers the
// remaining cost-relevant inputs so entries never leak across configs.
type CacheKey struct {
	VendorID    string
	DeviceCount int
	Years       int
	Fingerprint string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%d|%d|%s", k.VendorID, k.DeviceCount, k.Years, k.Fingerprint)
}

// NewResultCache creates a cache whose entries expire after ttl. A ttl of zero
// keeps entries until Flush.
func NewResultCache(ttl, cleanupInterval time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &ResultCache{store: cache.New(ttl, cleanupInterval)}
}

func (c *ResultCache) get(key CacheKey) (tco.Breakdown, bool) {
	if v, ok := c.store.Get(key.String()); ok {
		if b, ok := v.(tco.Breakdown); ok {
			c.hits.Add(1)
			return b, true
		}
	}
	c.misses.Add(1)
	return tco.Breakdown{}, false
}

func (c *ResultCache) put(key CacheKey, b tco.Breakdown) {
	c.store.SetDefault(key.String(), b)
}

// Flush drops every entry.
func (c *ResultCache) Flush() {
	c.store.Flush()
}

// Stats returns the counters accumulated since creation.
func (c *ResultCache) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.store.ItemCount(),
	}
}

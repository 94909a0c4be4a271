// Package cache provides a bounded, read-through estimate cache over
// any estimator's Get method, grounded on the teacher's own use of
// freecache.Cache as localCache in src/redis/cache_impl.go.
package cache

import (
	"github.com/coocood/freecache"

	"github.com/upgle/sketchbound/src/logging"
)

// Getter is satisfied by sketch.Sketch[C].Get and table.Table.Get.
type Getter interface {
	Get(key []byte) int64
}

// QueryCache decorates a Getter with a freecache-backed, TTL-bounded
// cache of recent Get results. It never changes correctness: a miss
// always falls through to the wrapped Getter, and the cache holds
// estimates, not ground truth, the same way the estimators it wraps
// already only approximate.
type QueryCache struct {
	inner    Getter
	local    *freecache.Cache
	ttlSecs  int
	log      logging.Logger
}

// Option configures a QueryCache at construction.
type Option func(*QueryCache)

// WithLogger attaches a diagnostic logger (default: logging.Nop).
func WithLogger(l logging.Logger) Option {
	return func(c *QueryCache) { c.log = l }
}

// New wraps inner with a freecache.Cache of the given byte budget,
// caching each Get result for ttlSeconds.
func New(inner Getter, sizeBytes int, ttlSeconds int, opts ...Option) *QueryCache {
	c := &QueryCache{
		inner:   inner,
		local:   freecache.NewCache(sizeBytes),
		ttlSecs: ttlSeconds,
		log:     logging.Nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns key's cached estimate if present and unexpired,
// otherwise falls through to the wrapped Getter and populates the
// cache with the result.
func (c *QueryCache) Get(key []byte) int64 {
	if cached, err := c.local.Get(key); err == nil && len(cached) == 8 {
		return int64(decodeLE64(cached))
	}

	v := c.inner.Get(key)

	buf := make([]byte, 8)
	encodeLE64(buf, uint64(v))
	if err := c.local.Set(key, buf, c.ttlSecs); err != nil {
		c.log.Debugf("query cache set failed for key: %v", err)
	}
	return v
}

// Invalidate drops key's cached value, if any, so the next Get
// re-reads the wrapped Getter.
func (c *QueryCache) Invalidate(key []byte) {
	c.local.Del(key)
}

// EntryCount reports how many keys are currently cached.
func (c *QueryCache) EntryCount() int64 {
	return c.local.EntryCount()
}

func encodeLE64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func decodeLE64(buf []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v
}

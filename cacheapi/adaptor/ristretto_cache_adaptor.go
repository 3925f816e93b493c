package cachewrap

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/xxxsen/davkit/cacheapi"
)

type LimitRistrettoKey interface {
	uint64 | string | byte | int | int32 | uint32 | int64
}

type ristrettoCacheWrap[K LimitRistrettoKey, V any] struct {
	c   *ristretto.Cache[K, V]
	ttl time.Duration
}

func (r *ristrettoCacheWrap[K, V]) Get(ctx context.Context, k K) (V, error) {
	v, ok := r.c.Get(k)
	if !ok {
		return v, cacheapi.ErrCacheKeyNotExist
	}
	return v, nil
}

// Set waits for the write buffer so that a Get right after sees the value.
func (r *ristrettoCacheWrap[K, V]) Set(ctx context.Context, k K, v V) error {
	_ = r.c.SetWithTTL(k, v, 1, r.ttl)
	r.c.Wait()
	return nil
}

func (r *ristrettoCacheWrap[K, V]) Del(ctx context.Context, k K) error {
	r.c.Del(k)
	return nil
}

func (r *ristrettoCacheWrap[K, V]) Purge(ctx context.Context) error {
	r.c.Clear()
	return nil
}

// WrapRistrettoCache stores every entry with cost 1, so the cache's MaxCost
// is its item limit. Zero ttl keeps entries until evicted.
func WrapRistrettoCache[K LimitRistrettoKey, V any](c *ristretto.Cache[K, V], ttl time.Duration) cacheapi.ICache[K, V] {
	return &ristrettoCacheWrap[K, V]{c: c, ttl: ttl}
}

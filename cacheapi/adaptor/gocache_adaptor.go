package cachewrap

import (
	"context"
	"time"

	gocache "github.com/pmylund/go-cache"
	"github.com/xxxsen/davkit/cacheapi"
)

type goCacheWrap[V any] struct {
	c   *gocache.Cache
	ttl time.Duration
}

func (g *goCacheWrap[V]) Get(ctx context.Context, k string) (V, error) {
	var zero V
	raw, ok := g.c.Get(k)
	if !ok {
		return zero, cacheapi.ErrCacheKeyNotExist
	}
	v, ok := raw.(V)
	if !ok {
		return zero, cacheapi.ErrCacheKeyNotExist
	}
	return v, nil
}

func (g *goCacheWrap[V]) Set(ctx context.Context, k string, v V) error {
	g.c.Set(k, v, g.ttl)
	return nil
}

func (g *goCacheWrap[V]) Del(ctx context.Context, k string) error {
	g.c.Delete(k)
	return nil
}

func (g *goCacheWrap[V]) Purge(ctx context.Context) error {
	g.c.Flush()
	return nil
}

// WrapGoCache stores values with ttl, a zero ttl uses the cache default.
// go-cache has no size bound.
func WrapGoCache[V any](c *gocache.Cache, ttl time.Duration) cacheapi.ICache[string, V] {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	return &goCacheWrap[V]{c: c, ttl: ttl}
}

package cachewrap

import (
	"context"

	explru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/davkit/cacheapi"
)

type expirableLruCacheAdaptor[K comparable, V any] struct {
	c *explru.LRU[K, V]
}

func (e *expirableLruCacheAdaptor[K, V]) Get(ctx context.Context, k K) (V, error) {
	v, ok := e.c.Get(k)
	if !ok {
		return v, cacheapi.ErrCacheKeyNotExist
	}
	return v, nil
}

func (e *expirableLruCacheAdaptor[K, V]) Set(ctx context.Context, k K, v V) error {
	_ = e.c.Add(k, v)
	return nil
}

func (e *expirableLruCacheAdaptor[K, V]) Del(ctx context.Context, k K) error {
	_ = e.c.Remove(k)
	return nil
}

func (e *expirableLruCacheAdaptor[K, V]) Purge(ctx context.Context) error {
	e.c.Purge()
	return nil
}

func WrapExpirableLruCache[K comparable, V any](in *explru.LRU[K, V]) cacheapi.ICache[K, V] {
	return &expirableLruCacheAdaptor[K, V]{
		c: in,
	}
}

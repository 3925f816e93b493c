package cacheapi

import (
	"context"
	"errors"
)

var (
	ErrCacheKeyNotExist = errors.New("cache key not exist")
)

type ICacheGetter[K comparable, V any] interface {
	Get(ctx context.Context, k K) (V, error)
}

type ICacheSetter[K comparable, V any] interface {
	Set(ctx context.Context, k K, v V) error
}

type ICacheDeleter[K comparable] interface {
	Del(ctx context.Context, k K) error
}

type ICachePurger interface {
	Purge(ctx context.Context) error
}

type ICacheLoader[K comparable, V any] interface {
	ICacheGetter[K, V]
	ICacheSetter[K, V]
}

type ICache[K comparable, V any] interface {
	ICacheLoader[K, V]
	ICacheDeleter[K]
	ICachePurger
}

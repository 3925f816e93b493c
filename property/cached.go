package property

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	explru "github.com/hashicorp/golang-lru/v2/expirable"
	gocache "github.com/pmylund/go-cache"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davkit/cacheapi"
	cachewrap "github.com/xxxsen/davkit/cacheapi/adaptor"
	"github.com/xxxsen/davkit/entity"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	CacheKindLRU       = "lru"
	CacheKindRistretto = "ristretto"
	CacheKindGoCache   = "gocache"

	goCacheCleanupInterval = 30 * time.Second
)

type ListCache = cacheapi.ICache[string, []*entity.Resource]

// ICachedEngine is a property engine that remembers listings until they
// expire or Invalidate is called. Concurrent misses on the same path and
// depth share one PROPFIND. Inside davc.Client calls are already serialized
// by its worker, so the merging only matters for standalone use.
type ICachedEngine interface {
	IPropertyEngine
	Invalidate(ctx context.Context)
}

type cachedEngine struct {
	IPropertyEngine
	cache ListCache
	group singleflight.Group

	mu  sync.Mutex
	gen uint64
}

func NewCachedEngine(impl IPropertyEngine, cache ListCache) ICachedEngine {
	return &cachedEngine{IPropertyEngine: impl, cache: cache}
}

// NewListCache builds the backing store of a cached engine.
func NewListCache(kind string, size int, ttl time.Duration) (ListCache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid list cache size:%d", size)
	}
	switch kind {
	case "", CacheKindLRU:
		return cachewrap.WrapExpirableLruCache(explru.NewLRU[string, []*entity.Resource](size, nil, ttl)), nil
	case CacheKindRistretto:
		c, err := ristretto.NewCache(&ristretto.Config[string, []*entity.Resource]{
			NumCounters: int64(size) * 10,
			MaxCost:     int64(size),
			BufferItems: 64,
			// cost is an item count here
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("create ristretto cache failed, err:%w", err)
		}
		return cachewrap.WrapRistrettoCache(c, ttl), nil
	case CacheKindGoCache:
		// size is not enforced, entries only leave by ttl or Invalidate
		return cachewrap.WrapGoCache[[]*entity.Resource](gocache.New(ttl, goCacheCleanupInterval), ttl), nil
	default:
		return nil, fmt.Errorf("unknown list cache kind:%s", kind)
	}
}

func cacheKey(path string, depth entity.Depth) string {
	return depth.String() + "|" + path
}

func (c *cachedEngine) List(ctx context.Context, path string, depth entity.Depth) ([]*entity.Resource, error) {
	key := cacheKey(path, depth)
	if rs, err := c.cache.Get(ctx, key); err == nil {
		return cloneList(rs), nil
	}
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10)+"|"+key, func() (interface{}, error) {
		rs, err := c.IPropertyEngine.List(ctx, path, depth)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		// a mutation ran meanwhile, the listing may predate it
		if c.gen == gen {
			_ = c.cache.Set(ctx, key, cloneList(rs))
		}
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneList(v.([]*entity.Resource)), nil
}

func (c *cachedEngine) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if err := c.cache.Purge(ctx); err != nil {
		logutil.GetLogger(ctx).Error("purge list cache failed", zap.Error(err))
	}
}

// cloneList copies the records too, callers may modify what they get.
func cloneList(in []*entity.Resource) []*entity.Resource {
	rs := make([]*entity.Resource, len(in))
	for i, r := range in {
		rs[i] = r.Clone()
	}
	return rs
}

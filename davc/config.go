package davc

import (
	"time"

	"github.com/xxxsen/davkit/session"
	"github.com/xxxsen/davkit/transfer"
)

type config struct {
	sessOpts      []session.Option
	xferOpts      []transfer.Option
	listCacheSize int
	listCacheTTL  time.Duration
	listCacheKind string
}

type Option func(c *config)

func WithCredentials(username, password string) Option {
	return func(c *config) {
		c.sessOpts = append(c.sessOpts, session.WithCredentials(username, password))
	}
}

func WithUserAgent(ua string) Option {
	return func(c *config) {
		c.sessOpts = append(c.sessOpts, session.WithUserAgent(ua))
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(c *config) {
		c.sessOpts = append(c.sessOpts, session.WithConnectTimeout(d))
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(c *config) {
		c.sessOpts = append(c.sessOpts, session.WithReadTimeout(d))
	}
}

func WithProxy(host string, port int) Option {
	return func(c *config) {
		c.sessOpts = append(c.sessOpts, session.WithProxy(host, port))
	}
}

// WithListCache keeps up to size listings for ttl. Listings are dropped
// whenever the client changes something on the server.
func WithListCache(size int, ttl time.Duration) Option {
	return func(c *config) {
		c.listCacheSize = size
		c.listCacheTTL = ttl
	}
}

// WithListCacheKind picks the list cache backend, property.CacheKindLRU
// (default) or property.CacheKindRistretto.
func WithListCacheKind(kind string) Option {
	return func(c *config) {
		c.listCacheKind = kind
	}
}

func WithTransferChunkSize(n int) Option {
	return func(c *config) {
		c.xferOpts = append(c.xferOpts, transfer.WithChunkSize(n))
	}
}

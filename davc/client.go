package davc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davkit/acl"
	"github.com/xxxsen/davkit/dispatch"
	"github.com/xxxsen/davkit/entity"
	"github.com/xxxsen/davkit/errs"
	"github.com/xxxsen/davkit/lock"
	"github.com/xxxsen/davkit/property"
	"github.com/xxxsen/davkit/session"
	"github.com/xxxsen/davkit/transfer"
	"github.com/xxxsen/davkit/webdav"
	"github.com/xxxsen/davkit/worker"
	"go.uber.org/zap"
)

const (
	errMsgReleased = "client already released"
)

// Client talks to one WebDAV server. All calls on a client run one after
// another in the order they were made; separate clients share nothing.
type Client struct {
	sess   *session.Session
	d      dispatch.IDispatcher
	w      *worker.Worker
	props  property.IPropertyEngine
	cached property.ICachedEngine
	locks  lock.ILockManager
	acls   acl.IACLEncoder
	down   *transfer.Orchestrator
	up     *transfer.Orchestrator

	once     sync.Once
	mu       sync.Mutex
	released bool
}

// New connects nothing yet: it validates baseURL, sets up the session and
// starts the worker. Only scheme, host and port of baseURL are used.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	sess, err := session.Parse(baseURL, c.sessOpts...)
	if err != nil {
		return nil, err
	}
	cli, err := newClient(sess, dispatch.New(sess), c)
	if err != nil {
		sess.Destroy()
		return nil, err
	}
	return cli, nil
}

func newClient(sess *session.Session, d dispatch.IDispatcher, c *config) (*Client, error) {
	cli := &Client{
		sess:  sess,
		d:     d,
		props: property.New(d),
		locks: lock.New(d),
		acls:  acl.New(d),
	}
	if c.listCacheSize > 0 {
		cache, err := property.NewListCache(c.listCacheKind, c.listCacheSize, c.listCacheTTL)
		if err != nil {
			return nil, errs.Wrap(errs.CodeError, err, "")
		}
		cli.cached = property.NewCachedEngine(cli.props, cache)
		cli.props = cli.cached
	}
	cli.w = worker.New(sess.BaseURL())
	cli.down = transfer.New(cli.w, d, c.xferOpts...)
	cli.up = transfer.New(&mutatingExecutor{c: cli}, d, c.xferOpts...)
	return cli, nil
}

// Session exposes the connection context, e.g. to change credentials after
// construction.
func (c *Client) Session() *session.Session {
	return c.sess
}

func (c *Client) isReleased() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

func (c *Client) do(ctx context.Context, fn worker.TaskFunc) error {
	if c.isReleased() {
		return errs.New(errs.CodeError, errMsgReleased)
	}
	err := c.w.Do(ctx, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, worker.ErrWorkerStopped) {
		return errs.Wrap(errs.CodeError, err, errMsgReleased)
	}
	// cancellation and task panics come back bare
	if _, ok := errs.AsDavError(err); !ok {
		return errs.Wrap(errs.CodeError, err, "")
	}
	return err
}

// doMutation is do for calls that may change what a listing returns.
func (c *Client) doMutation(ctx context.Context, fn worker.TaskFunc) error {
	return c.do(ctx, func(ctx context.Context) error {
		defer c.invalidate(ctx)
		return fn(ctx)
	})
}

func (c *Client) invalidate(ctx context.Context) {
	if c.cached != nil {
		c.cached.Invalidate(ctx)
	}
}

type mutatingExecutor struct {
	c *Client
}

func (e *mutatingExecutor) Do(ctx context.Context, fn worker.TaskFunc) error {
	return e.c.doMutation(ctx, fn)
}

func readOnlyMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, webdav.MethodPropfind:
		return true
	}
	return false
}

// RawRequest sends req as is and returns whatever the server replied,
// any status included.
func (c *Client) RawRequest(ctx context.Context, req *entity.RawRequest) (*entity.RawResponse, error) {
	if req == nil {
		return nil, errs.New(errs.CodeError, "nil request")
	}
	var rsp *entity.RawResponse
	run := c.doMutation
	if readOnlyMethod(req.Method) {
		run = c.do
	}
	err := run(ctx, func(ctx context.Context) error {
		var err error
		rsp, err = c.d.Dispatch(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

func (c *Client) List(ctx context.Context, path string, depth entity.Depth) ([]*entity.Resource, error) {
	var rs []*entity.Resource
	if err := c.do(ctx, func(ctx context.Context) error {
		var err error
		rs, err = c.props.List(ctx, path, depth)
		return err
	}); err != nil {
		return nil, err
	}
	return rs, nil
}

// Lock takes an exclusive write lock. A timeout of 0 leaves the duration to
// the server.
func (c *Client) Lock(ctx context.Context, path string, owner string, depth entity.Depth, timeout int64) (*entity.LockToken, error) {
	var token *entity.LockToken
	// locking a missing path creates it on most servers
	if err := c.doMutation(ctx, func(ctx context.Context) error {
		var err error
		token, err = c.locks.Lock(ctx, path, owner, depth, timeout)
		return err
	}); err != nil {
		return nil, err
	}
	return token, nil
}

func (c *Client) Unlock(ctx context.Context, token *entity.LockToken) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.locks.Unlock(ctx, token)
	})
}

func (c *Client) SetACL(ctx context.Context, path string, rules []*entity.ACLRule) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.acls.SetACL(ctx, path, rules)
	})
}

// Deprecated: use SetACL.
func (c *Client) SetLegacyACL(ctx context.Context, path string, rules []*entity.LegacyACLRule) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.acls.SetLegacyACL(ctx, path, rules)
	})
}

func (c *Client) DownloadData(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	if err := c.do(ctx, func(ctx context.Context) error {
		rsp, err := c.d.Dispatch(ctx, &entity.RawRequest{Method: http.MethodGet, Target: path})
		if err != nil {
			return err
		}
		if !errs.IsSuccess(rsp.Status.Code) {
			return errs.UnexpectedStatus(rsp.Status.Code)
		}
		data = rsp.Body
		return nil
	}); err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (c *Client) UploadData(ctx context.Context, data []byte, path string) error {
	return c.doMutation(ctx, func(ctx context.Context) error {
		return c.expectSuccess(ctx, &entity.RawRequest{Method: http.MethodPut, Target: path, Body: data})
	})
}

// Download fetches path into the local file dst. dst is only created once
// the whole body arrived.
func (c *Client) Download(ctx context.Context, path string, dst string) *transfer.Transfer {
	return c.down.Download(ctx, path, dst)
}

func (c *Client) Upload(ctx context.Context, src string, path string) *transfer.Transfer {
	return c.up.Upload(ctx, src, path)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doMutation(ctx, func(ctx context.Context) error {
		return c.expectSuccess(ctx, &entity.RawRequest{Method: http.MethodDelete, Target: path})
	})
}

func (c *Client) MakeCollection(ctx context.Context, path string) error {
	return c.doMutation(ctx, func(ctx context.Context) error {
		return c.expectSuccess(ctx, &entity.RawRequest{Method: webdav.MethodMkcol, Target: path})
	})
}

// Copy copies src to dst on the same server. Collections accept DepthZero
// (the collection alone) or DepthInfinite.
func (c *Client) Copy(ctx context.Context, src string, dst string, overwrite bool, depth entity.Depth) error {
	return c.doMutation(ctx, func(ctx context.Context) error {
		return c.expectSuccess(ctx, &entity.RawRequest{
			Method:  webdav.MethodCopy,
			Target:  src,
			Headers: append(c.destinationHeaders(dst, overwrite), entity.Header{Name: webdav.HeaderDepth, Value: depth.String()}),
		})
	})
}

func (c *Client) Move(ctx context.Context, src string, dst string, overwrite bool) error {
	return c.doMutation(ctx, func(ctx context.Context) error {
		return c.expectSuccess(ctx, &entity.RawRequest{
			Method:  webdav.MethodMove,
			Target:  src,
			Headers: c.destinationHeaders(dst, overwrite),
		})
	})
}

func (c *Client) destinationHeaders(dst string, overwrite bool) []entity.Header {
	ow := "F"
	if overwrite {
		ow = "T"
	}
	return []entity.Header{
		{Name: webdav.HeaderDestination, Value: c.absoluteURL(dst)},
		{Name: webdav.HeaderOverwrite, Value: ow},
	}
}

func (c *Client) absoluteURL(path string) string {
	if len(path) == 0 || path[0] != '/' {
		path = "/" + path
	}
	return c.sess.BaseURL() + path
}

// Options reports what the server says it supports for path.
func (c *Client) Options(ctx context.Context, path string) (entity.Capability, error) {
	var caps entity.Capability
	if err := c.do(ctx, func(ctx context.Context) error {
		rsp, err := c.d.Dispatch(ctx, &entity.RawRequest{Method: webdav.MethodOptions, Target: path})
		if err != nil {
			return err
		}
		if !errs.IsSuccess(rsp.Status.Code) {
			return errs.UnexpectedStatus(rsp.Status.Code)
		}
		caps = webdav.ParseCapabilities(rsp.HeaderValues(webdav.HeaderDAV))
		return nil
	}); err != nil {
		return 0, err
	}
	return caps, nil
}

// Deprecated: use Options.
func (c *Client) LegacyOptions(ctx context.Context, path string) (*entity.ServerCapabilities, error) {
	caps, err := c.Options(ctx, path)
	if err != nil {
		return nil, err
	}
	return webdav.LegacyCapabilities(caps), nil
}

// expectSuccess runs req and turns anything but a 2xx reply into an error.
// A 207 reply fails on its first failed item.
func (c *Client) expectSuccess(ctx context.Context, req *entity.RawRequest) error {
	rsp, err := c.d.Dispatch(ctx, req)
	if err != nil {
		return err
	}
	if !errs.IsSuccess(rsp.Status.Code) {
		return errs.UnexpectedStatus(rsp.Status.Code)
	}
	if rsp.Status.Code == http.StatusMultiStatus {
		if err := webdav.CheckMultistatus(rsp.Body); err != nil {
			logutil.GetLogger(ctx).Error("multistatus item failed", zap.Error(err), zap.String("method", req.Method),
				zap.String("target", req.Target))
			return err
		}
	}
	return nil
}

// Close drops the live connection. The client stays usable.
func (c *Client) Close() {
	c.sess.Close()
}

// Release waits for the running call, stops the worker and destroys the
// session. Calls made afterwards fail.
func (c *Client) Release() {
	c.once.Do(func() {
		c.mu.Lock()
		c.released = true
		c.mu.Unlock()
		c.w.Stop()
		c.sess.Destroy()
		logutil.GetLogger(context.Background()).Debug("client released", zap.String("base_url", c.sess.BaseURL()))
	})
}

func (c *Client) String() string {
	return fmt.Sprintf("davc.Client{%s}", c.sess.BaseURL())
}

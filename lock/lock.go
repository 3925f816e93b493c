package lock

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davkit/dispatch"
	"github.com/xxxsen/davkit/entity"
	"github.com/xxxsen/davkit/errs"
	"github.com/xxxsen/davkit/webdav"
	"go.uber.org/zap"
)

const (
	errMsgInvalidLock = "failed to create lock object"
)

type ILockManager interface {
	Lock(ctx context.Context, path string, owner string, depth entity.Depth, timeout int64) (*entity.LockToken, error)
	Unlock(ctx context.Context, token *entity.LockToken) error
}

type defaultLockManager struct {
	d dispatch.IDispatcher
}

func New(d dispatch.IDispatcher) ILockManager {
	return &defaultLockManager{d: d}
}

func (m *defaultLockManager) Lock(ctx context.Context, path string, owner string, depth entity.Depth, timeout int64) (*entity.LockToken, error) {
	if len(path) == 0 {
		return nil, errs.New(errs.CodeError, errMsgInvalidLock)
	}
	body, err := webdav.BuildLockInfo(owner)
	if err != nil {
		return nil, errs.Wrap(errs.CodeError, err, "")
	}
	headers := []entity.Header{
		{Name: webdav.HeaderDepth, Value: depth.String()},
		{Name: webdav.HeaderContentType, Value: webdav.XMLContentType},
	}
	if timeout != 0 {
		headers = append(headers, entity.Header{Name: webdav.HeaderTimeout, Value: fmt.Sprintf("Second-%d", timeout)})
	}
	rsp, err := m.d.Dispatch(ctx, &entity.RawRequest{
		Method:  webdav.MethodLock,
		Target:  path,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("lock failed", zap.Error(err), zap.String("path", path))
		return nil, err
	}
	if !errs.IsSuccess(rsp.Status.Code) {
		return nil, errs.UnexpectedStatus(rsp.Status.Code)
	}
	token := &entity.LockToken{Path: path, Owner: owner, Timeout: timeout}
	var active *webdav.ActiveLock
	if ld, err := webdav.DecodeLockDiscovery(rsp.Body); err == nil {
		active = pickActiveLock(ld, trimToken(rsp.HeaderValue(webdav.HeaderLockToken)))
	}
	token.Token = trimToken(rsp.HeaderValue(webdav.HeaderLockToken))
	if len(token.Token) == 0 && active != nil && active.LockToken != nil {
		token.Token = strings.TrimSpace(active.LockToken.Href)
	}
	if len(token.Token) == 0 {
		return nil, errs.WithStatus(errs.CodeError, rsp.Status.Code, "no lock token in reply")
	}
	if active != nil {
		if v, ok := webdav.ParseTimeout(active.Timeout); ok {
			token.Timeout = v
		}
		if o := active.Owner.Value(); len(o) > 0 {
			token.Owner = o
		}
	}
	logutil.GetLogger(ctx).Debug("lock acquired", zap.String("path", path), zap.String("token", token.Token), zap.Int64("timeout", token.Timeout))
	return token, nil
}

// pickActiveLock returns the active lock holding token, or the first one
// when token is empty or unmatched.
func pickActiveLock(ld *webdav.LockDiscovery, token string) *webdav.ActiveLock {
	if len(ld.ActiveLocks) == 0 {
		return nil
	}
	for _, al := range ld.ActiveLocks {
		if al.LockToken != nil && strings.TrimSpace(al.LockToken.Href) == token {
			return al
		}
	}
	return ld.ActiveLocks[0]
}

func trimToken(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "<")
	v = strings.TrimSuffix(v, ">")
	return strings.TrimSpace(v)
}

func (m *defaultLockManager) Unlock(ctx context.Context, token *entity.LockToken) error {
	if token == nil || len(token.Path) == 0 || len(token.Token) == 0 {
		return errs.New(errs.CodeError, errMsgInvalidLock)
	}
	rsp, err := m.d.Dispatch(ctx, &entity.RawRequest{
		Method: webdav.MethodUnlock,
		Target: token.Path,
		Headers: []entity.Header{
			{Name: webdav.HeaderLockToken, Value: "<" + token.Token + ">"},
		},
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("unlock failed", zap.Error(err), zap.String("path", token.Path))
		return err
	}
	if !errs.IsSuccess(rsp.Status.Code) {
		return errs.UnexpectedStatus(rsp.Status.Code)
	}
	return nil
}

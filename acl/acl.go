package acl

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davkit/dispatch"
	"github.com/xxxsen/davkit/entity"
	"github.com/xxxsen/davkit/errs"
	"github.com/xxxsen/davkit/webdav"
	"go.uber.org/zap"
)

type IACLEncoder interface {
	// SetACL replaces the ACL of path with rules in one request.
	SetACL(ctx context.Context, path string, rules []*entity.ACLRule) error
	// Deprecated: use SetACL.
	SetLegacyACL(ctx context.Context, path string, rules []*entity.LegacyACLRule) error
}

type defaultACLEncoder struct {
	d dispatch.IDispatcher
}

func New(d dispatch.IDispatcher) IACLEncoder {
	return &defaultACLEncoder{d: d}
}

func (e *defaultACLEncoder) SetACL(ctx context.Context, path string, rules []*entity.ACLRule) error {
	body, err := webdav.BuildACL(rules)
	if err != nil {
		return errs.Wrap(errs.CodeError, err, "")
	}
	rsp, err := e.d.Dispatch(ctx, &entity.RawRequest{
		Method: webdav.MethodACL,
		Target: path,
		Headers: []entity.Header{
			{Name: webdav.HeaderContentType, Value: webdav.XMLContentType},
		},
		Body: body,
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("set acl failed", zap.Error(err), zap.String("path", path), zap.Int("rule_count", len(rules)))
		return err
	}
	if !errs.IsSuccess(rsp.Status.Code) {
		return errs.UnexpectedStatus(rsp.Status.Code)
	}
	return nil
}

func (e *defaultACLEncoder) SetLegacyACL(ctx context.Context, path string, rules []*entity.LegacyACLRule) error {
	converted := make([]*entity.ACLRule, 0, len(rules))
	for _, rule := range rules {
		if rule == nil {
			return errs.New(errs.CodeError, "nil legacy acl rule")
		}
		converted = append(converted, rule.ToRule())
	}
	return e.SetACL(ctx, path, converted)
}

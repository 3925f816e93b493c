package property

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davkit/dispatch"
	"github.com/xxxsen/davkit/entity"
	"github.com/xxxsen/davkit/errs"
	"github.com/xxxsen/davkit/webdav"
	"go.uber.org/zap"
)

type defaultEngine struct {
	d dispatch.IDispatcher
}

func New(d dispatch.IDispatcher) IPropertyEngine {
	return &defaultEngine{d: d}
}

func (e *defaultEngine) List(ctx context.Context, path string, depth entity.Depth) ([]*entity.Resource, error) {
	body, err := webdav.BuildPropfind()
	if err != nil {
		return nil, errs.Wrap(errs.CodeError, err, "")
	}
	rsp, err := e.d.Dispatch(ctx, &entity.RawRequest{
		Method: webdav.MethodPropfind,
		Target: path,
		Headers: []entity.Header{
			{Name: webdav.HeaderDepth, Value: depth.String()},
			{Name: webdav.HeaderContentType, Value: webdav.XMLContentType},
		},
		Body: body,
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("propfind failed", zap.Error(err), zap.String("path", path), zap.String("depth", depth.String()))
		return nil, err
	}
	if rsp.Status.Code != http.StatusMultiStatus {
		return nil, errs.UnexpectedStatus(rsp.Status.Code)
	}
	ms, err := webdav.DecodeMultistatus(rsp.Body)
	if err != nil {
		derr := errs.Wrap(errs.CodeError, err, "")
		derr.HTTPStatus = rsp.Status.Code
		return nil, derr
	}
	rs := make([]*entity.Resource, 0, len(ms.Responses))
	for _, item := range ms.Responses {
		rs = append(rs, toResource(item))
	}
	logutil.GetLogger(ctx).Debug("propfind finish", zap.String("path", path), zap.String("depth", depth.String()), zap.Int("count", len(rs)))
	return rs, nil
}

func hrefPath(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return u.Path
}

func toResource(item *webdav.Response) *entity.Resource {
	href := strings.TrimSpace(item.Href)
	res := &entity.Resource{
		Href: href,
		Path: hrefPath(href),
	}
	statusCode := webdav.ParseStatusLine(item.Status)
	var first, named int
	for idx, ps := range item.Propstats {
		code := webdav.ParseStatusLine(ps.Status)
		if idx == 0 {
			first = code
		}
		if ps.Prop.DisplayName != nil && named == 0 {
			named = code
		}
		if !errs.IsSuccess(code) {
			continue
		}
		fillProps(res, &ps.Prop)
	}
	switch {
	case named > 0:
		res.StatusCode = named
	case first > 0:
		res.StatusCode = first
	default:
		res.StatusCode = statusCode
	}
	return res
}

func fillProps(res *entity.Resource, p *webdav.Prop) {
	if p.DisplayName != nil {
		res.DisplayName = ptr(*p.DisplayName)
	}
	if p.ETag != nil {
		res.ETag = ptr(strings.TrimSpace(*p.ETag))
	}
	if p.ContentType != nil {
		res.ContentType = ptr(strings.TrimSpace(*p.ContentType))
	}
	if p.ContentLength != nil {
		if n, err := strconv.ParseInt(strings.TrimSpace(*p.ContentLength), 10, 64); err == nil && n >= 0 {
			res.ContentLength = &n
		}
	}
	if p.LastModified != nil {
		res.LastModified = webdav.ParseHTTPDate(*p.LastModified)
	}
	if p.ResourceType != nil && p.ResourceType.Collection != nil {
		res.IsCollection = true
	}
}

func ptr[T any](v T) *T {
	return &v
}

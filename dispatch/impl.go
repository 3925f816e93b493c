package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davkit/entity"
	"github.com/xxxsen/davkit/errs"
	"github.com/xxxsen/davkit/session"
	"go.uber.org/zap"
)

type defaultDispatcher struct {
	sess *session.Session
}

func New(sess *session.Session) IDispatcher {
	return &defaultDispatcher{sess: sess}
}

func (d *defaultDispatcher) Session() *session.Session {
	return d.sess
}

func (d *defaultDispatcher) Dispatch(ctx context.Context, req *entity.RawRequest) (*entity.RawResponse, error) {
	return d.exchange(ctx, req, func(ctx context.Context, rsp *entity.RawResponse, body io.Reader) error {
		raw, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		rsp.Body = raw
		return nil
	})
}

func (d *defaultDispatcher) Stream(ctx context.Context, req *entity.RawRequest, sink StreamFunc) (*entity.RawResponse, error) {
	return d.exchange(ctx, req, sink)
}

func (d *defaultDispatcher) exchange(ctx context.Context, req *entity.RawRequest, sink StreamFunc) (*entity.RawResponse, error) {
	if req == nil {
		return nil, errs.New(errs.CodeError, "nil request")
	}
	hc, err := d.sess.HTTPClient()
	if err != nil {
		return nil, err
	}
	httpReq, err := d.buildRequest(ctx, req)
	if err != nil {
		return nil, errs.Wrap(errs.CodeError, err, "")
	}
	var recorder session.HeaderRecorder
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			r, ok := info.Conn.(session.HeaderRecorder)
			if !ok {
				recorder = nil
				return
			}
			r.Arm()
			recorder = r
		},
	}
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), trace))

	start := time.Now()
	httpRsp, err := hc.Do(httpReq)
	if err != nil {
		derr := d.mapError(err)
		logutil.GetLogger(ctx).Error("dav exchange failed", zap.Error(derr), zap.String("method", req.Method),
			zap.String("target", req.Target), zap.Duration("cost", time.Since(start)))
		return nil, derr
	}
	defer httpRsp.Body.Close()

	var block []byte
	if recorder != nil {
		block = recorder.HeaderBlock()
	}
	rsp := &entity.RawResponse{
		Status:  entity.NewStatus(httpRsp.StatusCode, reasonPhrase(httpRsp.Status)),
		Headers: collectHeaders(block, httpRsp.Header),
	}
	logutil.GetLogger(ctx).Debug("dav exchange finish", zap.String("method", req.Method), zap.String("target", req.Target),
		zap.Int("status", httpRsp.StatusCode), zap.Duration("cost", time.Since(start)))

	if derr := d.authError(httpRsp.StatusCode); derr != nil {
		_, _ = io.Copy(io.Discard, httpRsp.Body)
		return nil, derr
	}
	if err := sink(ctx, rsp, httpRsp.Body); err != nil {
		if de, ok := errs.AsDavError(err); ok {
			return rsp, de
		}
		return rsp, d.mapError(err)
	}
	return rsp, nil
}

func (d *defaultDispatcher) authError(code int) *errs.DavError {
	switch code {
	case http.StatusUnauthorized:
		if !d.sess.HasCredentials() {
			return nil
		}
		msg := "authentication failed"
		d.sess.SetError(msg)
		return errs.WithStatus(errs.CodeAuth, code, msg)
	case http.StatusProxyAuthRequired:
		msg := "proxy authentication failed"
		d.sess.SetError(msg)
		return errs.WithStatus(errs.CodeProxyAuth, code, msg)
	}
	return nil
}

func (d *defaultDispatcher) buildRequest(ctx context.Context, req *entity.RawRequest) (*http.Request, error) {
	u, err := d.buildURL(req.Target)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	var length int64
	switch {
	case req.BodyStream != nil:
		body = req.BodyStream
		length = req.BodySize
	case len(req.Body) > 0:
		body = bytes.NewReader(req.Body)
		length = int64(len(req.Body))
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.URL = u
	httpReq.ContentLength = length
	if req.BodyStream != nil && length == 0 {
		// empty upload, keep it out of chunked encoding
		httpReq.Body = http.NoBody
	}
	for _, h := range req.Headers {
		switch {
		case strings.EqualFold(h.Name, "Host"):
			httpReq.Host = h.Value
		case strings.EqualFold(h.Name, "Content-Length"):
			continue
		default:
			httpReq.Header.Add(h.Name, h.Value)
		}
	}
	d.sess.Decorate(httpReq)
	return httpReq, nil
}

// buildURL keeps the target's own escaping when it is a valid one, so that
// a target like /a%2Fb reaches the server untouched.
func (d *defaultDispatcher) buildURL(target string) (*url.URL, error) {
	if len(target) == 0 {
		target = "/"
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	rawPath, query, _ := strings.Cut(target, "?")
	u := &url.URL{
		Scheme:   d.sess.Scheme(),
		Host:     d.sess.HostPort(),
		RawQuery: query,
	}
	p, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, fmt.Errorf("invalid target:%s, err:%w", target, err)
	}
	u.Path = p
	u.RawPath = rawPath
	return u, nil
}

func reasonPhrase(status string) string {
	code, reason, ok := strings.Cut(status, " ")
	if !ok {
		return ""
	}
	if _, err := strconv.Atoi(code); err != nil {
		return status
	}
	return reason
}

package transfer

import (
	"context"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davkit/dispatch"
	"github.com/xxxsen/davkit/entity"
	"github.com/xxxsen/davkit/errs"
	"github.com/xxxsen/davkit/utils"
	"github.com/xxxsen/davkit/webdav"
	"github.com/xxxsen/davkit/worker"
	"go.uber.org/zap"
)

// IExecutor runs one task at a time, a worker.Worker in practice.
type IExecutor interface {
	Do(ctx context.Context, fn worker.TaskFunc) error
}

type Orchestrator struct {
	exec IExecutor
	d    dispatch.IDispatcher
	c    *config
}

func New(exec IExecutor, d dispatch.IDispatcher, opts ...Option) *Orchestrator {
	c := &config{chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(c)
	}
	return &Orchestrator{exec: exec, d: d, c: c}
}

// Download streams target into dst. dst only appears once the whole body
// arrived.
func (o *Orchestrator) Download(ctx context.Context, target string, dst string) *Transfer {
	t := newTransfer(ctx, entity.DirectionDownload)
	go o.run(t, target, func(ctx context.Context) (int64, string, error) {
		return o.download(ctx, t, target, dst)
	})
	return t
}

// Upload sends the file at src to target with PUT.
func (o *Orchestrator) Upload(ctx context.Context, src string, target string) *Transfer {
	t := newTransfer(ctx, entity.DirectionUpload)
	go o.run(t, target, func(ctx context.Context) (int64, string, error) {
		return o.upload(ctx, t, src, target)
	})
	return t
}

func (o *Orchestrator) run(t *Transfer, target string, fn func(ctx context.Context) (int64, string, error)) {
	var (
		size int64
		sum  string
	)
	start := time.Now()
	err := o.exec.Do(t.ctx, func(ctx context.Context) error {
		var err error
		size, sum, err = fn(ctx)
		return err
	})
	if err != nil {
		if _, ok := errs.AsDavError(err); !ok {
			err = errs.Wrap(errs.CodeError, err, "")
		}
		logutil.GetLogger(t.ctx).Error("transfer failed", zap.Error(err), zap.String("direction", t.dir.String()),
			zap.String("target", target))
		t.finish(err)
		return
	}
	cost := time.Since(start)
	speed := "-"
	if ms := int64(cost / time.Millisecond); ms > 0 {
		speed = humanize.IBytes(uint64(float64(size)*1000/float64(ms))) + "/s"
	}
	logutil.GetLogger(t.ctx).Debug("transfer finish", zap.String("direction", t.dir.String()), zap.String("target", target),
		zap.String("size", humanize.IBytes(uint64(size))), zap.Duration("cost", cost), zap.String("speed", speed),
		zap.String("xxhash", sum))
	t.finish(nil)
}

func contentLength(rsp *entity.RawResponse) *int64 {
	v := rsp.HeaderValue("Content-Length")
	if len(v) == 0 {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func (o *Orchestrator) download(ctx context.Context, t *Transfer, target string, dst string) (int64, string, error) {
	var (
		done int64
		sum  hash.Hash64
	)
	_, err := o.d.Stream(ctx, &entity.RawRequest{Method: http.MethodGet, Target: target},
		func(ctx context.Context, rsp *entity.RawResponse, body io.Reader) error {
			if !errs.IsSuccess(rsp.Status.Code) {
				return errs.UnexpectedStatus(rsp.Status.Code)
			}
			total := contentLength(rsp)
			if err := t.started(total); err != nil {
				return err
			}
			err := utils.SafeSaveToFile(dst, func(w io.Writer) error {
				sum = utils.NewChecksum()
				pw := newProgressWriter(io.MultiWriter(w, sum), o.c.chunkSize, func(n int64, final bool) error {
					return t.progress(n, total, final)
				})
				if _, err := io.CopyBuffer(pw, body, make([]byte, o.c.chunkSize)); err != nil {
					return err
				}
				done = pw.Count()
				return pw.Flush()
			})
			if err != nil {
				return err
			}
			return t.completed(done, total)
		})
	if err != nil {
		return 0, "", err
	}
	return done, utils.ChecksumString(sum), nil
}

func (o *Orchestrator) upload(ctx context.Context, t *Transfer, src string, target string) (int64, string, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, "", errs.Wrap(errs.CodeError, err, fmt.Sprintf("open upload file failed, err:%v", err))
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, "", errs.Wrap(errs.CodeError, err, fmt.Sprintf("stat upload file failed, err:%v", err))
	}
	if info.IsDir() {
		return 0, "", errs.New(errs.CodeError, fmt.Sprintf("upload source is a directory:%s", src))
	}
	size := info.Size()
	total := &size
	if err := t.started(total); err != nil {
		return 0, "", err
	}
	sum := utils.NewChecksum()
	pr := newProgressReader(io.TeeReader(f, sum), o.c.chunkSize, func(n int64, final bool) error {
		return t.progress(n, total, final)
	})
	rsp, err := o.d.Dispatch(ctx, &entity.RawRequest{
		Method: http.MethodPut,
		Target: target,
		Headers: []entity.Header{
			{Name: webdav.HeaderContentType, Value: utils.DetectContentType(src)},
		},
		BodyStream: pr,
		BodySize:   size,
	})
	if err != nil {
		return 0, "", err
	}
	if !errs.IsSuccess(rsp.Status.Code) {
		return 0, "", errs.UnexpectedStatus(rsp.Status.Code)
	}
	if err := pr.Flush(); err != nil {
		return 0, "", err
	}
	if err := t.completed(pr.Count(), total); err != nil {
		return 0, "", err
	}
	return pr.Count(), utils.ChecksumString(sum), nil
}

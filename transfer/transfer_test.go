package transfer

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/davkit/davtest"
	"github.com/xxxsen/davkit/dispatch"
	"github.com/xxxsen/davkit/entity"
	"github.com/xxxsen/davkit/errs"
	"github.com/xxxsen/davkit/session"
	"github.com/xxxsen/davkit/worker"
)

func init() {
	logger.Init("", "debug", 0, 0, 0, true)
}

func newOrchestrator(t *testing.T, host string, port int, opts ...Option) (*Orchestrator, *worker.Worker) {
	sess, err := session.New("http", host, port)
	require.NoError(t, err)
	w := worker.New("transfer-test")
	t.Cleanup(func() {
		w.Stop()
		sess.Destroy()
	})
	return New(w, dispatch.New(sess), opts...), w
}

func collect(tr *Transfer) []*entity.TransferEvent {
	rs := make([]*entity.TransferEvent, 0, 8)
	for ev := range tr.Events() {
		rs = append(rs, ev)
	}
	return rs
}

func checkSequence(t *testing.T, evs []*entity.TransferEvent, dir entity.Direction, total int64) {
	require.GreaterOrEqual(t, len(evs), 3)
	assert.Equal(t, entity.EventStarted, evs[0].Kind)
	assert.Equal(t, entity.EventCompleted, evs[len(evs)-1].Kind)
	var last int64 = -1
	for _, ev := range evs[1 : len(evs)-1] {
		assert.Equal(t, entity.EventProgress, ev.Kind)
		assert.GreaterOrEqual(t, ev.CompletedBytes, last)
		last = ev.CompletedBytes
	}
	assert.Equal(t, total, last)
	for _, ev := range evs {
		assert.Equal(t, dir, ev.Direction)
		if ev.TotalBytes != nil {
			assert.Equal(t, total, *ev.TotalBytes)
		}
	}
}

func TestUploadThenDownload(t *testing.T) {
	svr := davtest.NewWebDAV()
	defer svr.Close()
	o, _ := newOrchestrator(t, svr.Host(), svr.Port())
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))

	up := o.Upload(ctx, src, "/hello.txt")
	evs := collect(up)
	require.NoError(t, up.Err())
	checkSequence(t, evs, entity.DirectionUpload, 5)
	require.NotNil(t, evs[0].TotalBytes)
	rec := svr.Last()
	assert.Equal(t, "PUT", rec.Method)
	assert.Equal(t, []byte("hello"), rec.Body)
	assert.Contains(t, rec.Header.Get("Content-Type"), "text/plain")

	dst := filepath.Join(dir, "out", "hello.txt")
	down := o.Download(ctx, "/hello.txt", dst)
	evs = collect(down)
	require.NoError(t, down.Err())
	checkSequence(t, evs, entity.DirectionDownload, 5)
	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)
}

func TestChunkedProgress(t *testing.T) {
	svr := davtest.NewWebDAV()
	defer svr.Close()
	o, _ := newOrchestrator(t, svr.Host(), svr.Port(), WithChunkSize(1024))
	ctx := context.Background()
	dir := t.TempDir()
	data := bytes.Repeat([]byte("0123456789"), 1000)
	src := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(src, data, 0644))

	up := o.Upload(ctx, src, "/big.bin")
	evs := collect(up)
	require.NoError(t, up.Err())
	checkSequence(t, evs, entity.DirectionUpload, int64(len(data)))
	assert.Greater(t, len(evs), 5)

	dst := filepath.Join(dir, "big.out")
	down := o.Download(ctx, "/big.bin", dst)
	evs = collect(down)
	require.NoError(t, down.Err())
	checkSequence(t, evs, entity.DirectionDownload, int64(len(data)))
	assert.Greater(t, len(evs), 5)
	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, raw)
}

func TestEmptyUpload(t *testing.T) {
	svr := davtest.NewWebDAV()
	defer svr.Close()
	o, _ := newOrchestrator(t, svr.Host(), svr.Port())
	src := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(src, nil, 0644))
	up := o.Upload(context.Background(), src, "/empty")
	evs := collect(up)
	require.NoError(t, up.Err())
	checkSequence(t, evs, entity.DirectionUpload, 0)
}

func TestDownloadNotFound(t *testing.T) {
	svr := davtest.NewWebDAV()
	defer svr.Close()
	o, _ := newOrchestrator(t, svr.Host(), svr.Port())
	dir := t.TempDir()
	dst := filepath.Join(dir, "missing.txt")
	down := o.Download(context.Background(), "/missing.txt", dst)
	evs := collect(down)
	err := down.Err()
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errs.StatusOf(err))
	assert.Empty(t, evs)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestUploadLocalFailure(t *testing.T) {
	svr := davtest.New()
	defer svr.Close()
	o, _ := newOrchestrator(t, svr.Host(), svr.Port())
	up := o.Upload(context.Background(), filepath.Join(t.TempDir(), "nope"), "/nope")
	err := up.Wait()
	require.Error(t, err)
	assert.Equal(t, 0, errs.StatusOf(err))
	assert.Empty(t, svr.Records())

	up = o.Upload(context.Background(), t.TempDir(), "/dir")
	assert.Error(t, up.Wait())
}

func TestUploadRejected(t *testing.T) {
	svr := davtest.New()
	defer svr.Close()
	svr.On("PUT", "/locked.txt", &davtest.Reply{Status: http.StatusLocked})
	o, _ := newOrchestrator(t, svr.Host(), svr.Port())
	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("abc"), 0644))
	up := o.Upload(context.Background(), src, "/locked.txt")
	evs := collect(up)
	assert.Equal(t, http.StatusLocked, errs.StatusOf(up.Err()))
	for _, ev := range evs {
		assert.NotEqual(t, entity.EventCompleted, ev.Kind)
	}
}

func TestCancelDownload(t *testing.T) {
	release := make(chan struct{})
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(1<<20))
		_, _ = w.Write(bytes.Repeat([]byte("x"), 4096))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer svr.Close()
	defer close(release)
	u, err := url.Parse(svr.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	o, w := newOrchestrator(t, u.Hostname(), port, WithChunkSize(1024))

	dir := t.TempDir()
	dst := filepath.Join(dir, "partial.bin")
	down := o.Download(context.Background(), "/slow", dst)
	var progressed bool
	for ev := range down.Events() {
		if ev.Kind == entity.EventProgress && !progressed {
			progressed = true
			down.Cancel()
		}
	}
	require.True(t, progressed)
	require.Error(t, down.Err())
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, ents)

	// the queue is free again
	done := make(chan error, 1)
	go func() {
		done <- w.Do(context.Background(), func(ctx context.Context) error { return nil })
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker still busy after cancel")
	}
}

func TestCancelBeforeStart(t *testing.T) {
	svr := davtest.NewWebDAV()
	defer svr.Close()
	o, w := newOrchestrator(t, svr.Host(), svr.Port())
	block := make(chan struct{})
	go func() {
		_ = w.Do(context.Background(), func(ctx context.Context) error {
			<-block
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)
	down := o.Download(context.Background(), "/x", filepath.Join(t.TempDir(), "x"))
	down.Cancel()
	close(block)
	assert.Error(t, down.Wait())
	assert.Empty(t, svr.Records())
}

func TestUndrainedTransferFinishes(t *testing.T) {
	svr := davtest.NewWebDAV()
	defer svr.Close()
	o, w := newOrchestrator(t, svr.Host(), svr.Port(), WithChunkSize(16))
	ctx := context.Background()
	dir := t.TempDir()
	data := bytes.Repeat([]byte("0123456789"), 1000)
	src := filepath.Join(dir, "many.bin")
	require.NoError(t, os.WriteFile(src, data, 0644))

	up := o.Upload(ctx, src, "/many.bin")
	assert.NoError(t, up.Err())
	select {
	case <-up.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("transfer stuck on undrained events")
	}
	require.NoError(t, up.Err())
	require.NoError(t, w.Do(ctx, func(ctx context.Context) error { return nil }))

	evs := collect(up)
	assert.LessOrEqual(t, len(evs), defaultEventBuf)
	checkSequence(t, evs, entity.DirectionUpload, int64(len(data)))
}

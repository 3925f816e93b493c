package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var (
	ErrWorkerStopped = errors.New("worker stopped")
)

type TaskFunc func(ctx context.Context) error

type task struct {
	ctx  context.Context
	fn   TaskFunc
	done chan error
}

// Worker runs tasks one at a time on a single goroutine, in the order they
// were handed in.
type Worker struct {
	name  string
	tasks chan *task
	quit  chan struct{}
	exit  chan struct{}
	once  sync.Once
}

func New(name string) *Worker {
	w := &Worker{
		name:  name,
		tasks: make(chan *task),
		quit:  make(chan struct{}),
		exit:  make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer close(w.exit)
	for {
		select {
		case <-w.quit:
			return
		case t := <-w.tasks:
			t.done <- w.run(t)
		}
	}
}

func (w *Worker) run(t *task) (err error) {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			logutil.GetLogger(t.ctx).Error("task panic", zap.String("worker", w.name), zap.Any("panic", r))
			err = errors.New("task panic")
		}
	}()
	return t.fn(t.ctx)
}

// Do queues fn and waits for it. Once queued, fn always runs to the end or is
// skipped because ctx was already done when its turn came.
func (w *Worker) Do(ctx context.Context, fn TaskFunc) error {
	t := &task{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case <-w.quit:
		return ErrWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	case w.tasks <- t:
	}
	return <-t.done
}

// Stop lets the running task finish and refuses new ones. Safe to call
// more than once, but not from inside a task.
func (w *Worker) Stop() {
	w.once.Do(func() {
		close(w.quit)
	})
	<-w.exit
}

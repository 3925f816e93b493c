package transfer

import (
	"context"
	"sync"

	"github.com/xxxsen/davkit/entity"
)

// Transfer is one running upload or download. Events ends with a completed
// event on success; on failure the channel just closes and Err reports why.
type Transfer struct {
	dir    entity.Direction
	ctx    context.Context
	cancel context.CancelFunc
	events chan *entity.TransferEvent
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
	err    error

	// touched by the producing task only
	sentProgress bool
	lastProgress int64
}

func newTransfer(ctx context.Context, dir entity.Direction) *Transfer {
	ctx, cancel := context.WithCancel(ctx)
	return &Transfer{
		dir:    dir,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan *entity.TransferEvent, defaultEventBuf),
		done:   make(chan struct{}),
	}
}

func (t *Transfer) Direction() entity.Direction {
	return t.dir
}

func (t *Transfer) Events() <-chan *entity.TransferEvent {
	return t.events
}

// Cancel aborts the transfer, the exchange in flight included.
func (t *Transfer) Cancel() {
	t.cancel()
}

// Done is closed once the transfer finished.
func (t *Transfer) Done() <-chan struct{} {
	return t.done
}

// Err reports the outcome once Done is closed and nil before that. It is
// already set when Events closes, so ranging over Events and then calling
// Err is enough. Use Wait to block without reading events.
func (t *Transfer) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait drops the remaining events and returns the outcome.
func (t *Transfer) Wait() error {
	for range t.events {
	}
	<-t.done
	return t.err
}

func (t *Transfer) emit(ev *entity.TransferEvent) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return context.Canceled
	}
	select {
	case t.events <- ev:
		return nil
	case <-t.ctx.Done():
		return t.ctx.Err()
	}
}

func (t *Transfer) finish(err error) {
	t.err = err
	t.cancel()
	close(t.done)
	t.mu.Lock()
	t.closed = true
	close(t.events)
	t.mu.Unlock()
}

func (t *Transfer) started(total *int64) error {
	return t.emit(&entity.TransferEvent{Kind: entity.EventStarted, Direction: t.dir, TotalBytes: total})
}

// progress queues a progress event. Intermediate ones are dropped while
// the buffer is nearly full, leaving room for the final progress and the
// completed event, so a reader that never drains Events cannot stall the
// worker. The final one is skipped only when it repeats the last sent count.
func (t *Transfer) progress(completed int64, total *int64, final bool) error {
	if final && t.sentProgress && t.lastProgress == completed {
		return nil
	}
	if !final && len(t.events) >= cap(t.events)-2 {
		return nil
	}
	if err := t.emit(&entity.TransferEvent{Kind: entity.EventProgress, Direction: t.dir, CompletedBytes: completed, TotalBytes: total}); err != nil {
		return err
	}
	t.sentProgress = true
	t.lastProgress = completed
	return nil
}

func (t *Transfer) completed(completed int64, total *int64) error {
	return t.emit(&entity.TransferEvent{Kind: entity.EventCompleted, Direction: t.dir, CompletedBytes: completed, TotalBytes: total})
}

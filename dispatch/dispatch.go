package dispatch

import (
	"context"
	"io"

	"github.com/xxxsen/davkit/entity"
	"github.com/xxxsen/davkit/session"
)

// StreamFunc receives the reply of a streamed exchange. body is only valid
// until the func returns.
type StreamFunc func(ctx context.Context, rsp *entity.RawResponse, body io.Reader) error

type IDispatcher interface {
	// Dispatch performs one exchange and buffers the whole reply body.
	Dispatch(ctx context.Context, req *entity.RawRequest) (*entity.RawResponse, error)
	// Stream performs one exchange and hands the reply body to sink.
	Stream(ctx context.Context, req *entity.RawRequest, sink StreamFunc) (*entity.RawResponse, error)
	Session() *session.Session
}

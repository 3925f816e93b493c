package dispatch

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/xxxsen/davkit/errs"
)

func classify(err error) int {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return errs.CodeTimeout
		}
		return errs.CodeLookup
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.CodeTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errs.CodeTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return errs.CodeConnect
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return errs.CodeConnect
	}
	return errs.CodeError
}

// mapError turns a transport failure into a DavError without HTTP status.
// The message is the transport's own text, or the session's last error
// string when the transport has nothing to say.
func (d *defaultDispatcher) mapError(err error) *errs.DavError {
	msg := err.Error()
	if len(msg) == 0 {
		msg = d.sess.LastError()
	} else {
		d.sess.SetError(msg)
	}
	return errs.Wrap(classify(err), err, msg)
}

package errs

import (
	"errors"
	"fmt"
)

// error codes, numbered after the classic neon transport codes so that
// callers porting from it can keep their switch statements.
const (
	CodeError     = 1
	CodeLookup    = 2
	CodeAuth      = 3
	CodeProxyAuth = 4
	CodeConnect   = 5
	CodeTimeout   = 6
	CodeFailed    = 7
	CodeRedirect  = 9
)

// DavError is the single error kind surfaced by the client. HTTPStatus is
// zero when the server never replied (local or transport failures).
type DavError struct {
	Code       int
	Message    string
	HTTPStatus int
	cause      error
}

func (e *DavError) Error() string {
	return fmt.Sprintf("dav error, code:%d, status:%d, msg:%s", e.Code, e.HTTPStatus, e.Message)
}

func (e *DavError) Unwrap() error {
	return e.cause
}

func (e *DavError) HasHTTPStatus() bool {
	return e.HTTPStatus > 0
}

func New(code int, msg string) *DavError {
	return &DavError{Code: code, Message: msg}
}

func WithStatus(code int, status int, msg string) *DavError {
	return &DavError{Code: code, Message: msg, HTTPStatus: status}
}

// Wrap keeps err reachable through errors.Is / errors.As. An empty msg
// falls back to the cause's own message.
func Wrap(code int, err error, msg string) *DavError {
	if len(msg) == 0 && err != nil {
		msg = err.Error()
	}
	return &DavError{Code: code, Message: msg, cause: err}
}

func UnexpectedStatus(status int) *DavError {
	return WithStatus(CodeError, status, fmt.Sprintf("unexpected status %d", status))
}

func AsDavError(err error) (*DavError, bool) {
	var de *DavError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	de, ok := AsDavError(err)
	if !ok {
		return 0
	}
	return de.HTTPStatus
}

func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

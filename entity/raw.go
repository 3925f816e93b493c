package entity

import (
	"io"
	"strings"
)

type Header struct {
	Name  string
	Value string
}

type RawRequest struct {
	Method  string
	Target  string
	Headers []Header
	Body    []byte
	// BodyStream takes precedence over Body when set, BodySize is its exact
	// length (-1 if unknown).
	BodyStream io.Reader
	BodySize   int64
}

type Status struct {
	Code   int
	Class  int
	Reason string
}

func NewStatus(code int, reason string) Status {
	return Status{Code: code, Class: code / 100, Reason: reason}
}

type RawResponse struct {
	Status  Status
	Headers []Header
	Body    []byte
}

// HeaderValues returns every value of name in arrival order.
func (r *RawResponse) HeaderValues(name string) []string {
	rs := make([]string, 0, 1)
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			rs = append(rs, h.Value)
		}
	}
	return rs
}

func (r *RawResponse) HeaderValue(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

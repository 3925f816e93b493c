package entity

import "time"

type Depth int

const (
	DepthZero Depth = iota
	DepthOne
	DepthInfinite
)

func (d Depth) String() string {
	switch d {
	case DepthZero:
		return "0"
	case DepthOne:
		return "1"
	default:
		return "infinity"
	}
}

// Resource is one item of a PROPFIND reply. Optional properties are nil
// when the server did not report them (or reported something unparseable).
type Resource struct {
	Href          string
	Path          string
	DisplayName   *string
	ETag          *string
	ContentType   *string
	ContentLength *int64
	LastModified  *time.Time
	IsCollection  bool
	StatusCode    int
}

// Clone returns a copy that shares no memory with r.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}
	c := *r
	c.DisplayName = clonePtr(r.DisplayName)
	c.ETag = clonePtr(r.ETag)
	c.ContentType = clonePtr(r.ContentType)
	c.ContentLength = clonePtr(r.ContentLength)
	c.LastModified = clonePtr(r.LastModified)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package webdav

import (
	"strings"
	"time"
)

const httpDateLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// ParseHTTPDate reads an RFC 1123 date and returns it in UTC, nil when the
// value does not fit the layout. Zone names other than GMT and UTC are
// rejected, time.Parse would take them as offset 0. Numeric offsets are
// honored.
func ParseHTTPDate(v string) *time.Time {
	v = strings.TrimSpace(v)
	if len(v) == 0 {
		return nil
	}
	t, err := time.Parse(time.RFC1123Z, v)
	if err != nil {
		if !strings.HasSuffix(v, " GMT") && !strings.HasSuffix(v, " UTC") {
			return nil
		}
		if t, err = time.Parse(httpDateLayout, v); err != nil {
			return nil
		}
	}
	t = t.UTC()
	return &t
}

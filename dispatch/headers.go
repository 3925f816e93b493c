package dispatch

import (
	"bytes"
	"net/http"
	"sort"
	"strings"

	"github.com/xxxsen/davkit/entity"
)

// parseHeaderBlock reads the header lines of a raw response head, status
// line excluded, in the order they came in.
func parseHeaderBlock(block []byte) []entity.Header {
	lines := bytes.Split(block, []byte("\n"))
	if len(lines) < 2 {
		return nil
	}
	rs := make([]entity.Header, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		// obs-fold, glue to the previous value
		if line[0] == ' ' || line[0] == '\t' {
			if len(rs) > 0 {
				last := &rs[len(rs)-1]
				last.Value = strings.TrimSpace(last.Value + " " + strings.TrimSpace(string(line)))
			}
			continue
		}
		name, value, ok := bytes.Cut(line, []byte(":"))
		if !ok {
			continue
		}
		rs = append(rs, entity.Header{
			Name:  string(bytes.TrimSpace(name)),
			Value: string(bytes.TrimSpace(value)),
		})
	}
	return rs
}

func collectHeaders(block []byte, h http.Header) []entity.Header {
	if rs := parseHeaderBlock(block); len(rs) > 0 {
		return rs
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rs := make([]entity.Header, 0, len(keys))
	for _, k := range keys {
		for _, v := range h[k] {
			rs = append(rs, entity.Header{Name: k, Value: v})
		}
	}
	return rs
}

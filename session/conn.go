package session

import (
	"bytes"
	"net"
	"sync"
	"time"
)

const (
	maxHeaderBlockSize = 1 << 20
)

// HeaderRecorder is implemented by connections handed out by a session. The
// dispatcher arms it right before a request goes out and reads back the raw
// response header block, which keeps header order and duplicates intact.
type HeaderRecorder interface {
	Arm()
	HeaderBlock() []byte
}

type recordConn struct {
	net.Conn
	readTimeout time.Duration

	mu        sync.Mutex
	capturing bool
	buf       []byte
	block     []byte
}

func newRecordConn(c net.Conn, readTimeout time.Duration) *recordConn {
	return &recordConn{Conn: c, readTimeout: readTimeout}
}

func (c *recordConn) Arm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capturing = true
	c.buf = c.buf[:0]
	c.block = nil
}

func (c *recordConn) HeaderBlock() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block
}

func (c *recordConn) Read(p []byte) (int, error) {
	if c.readTimeout > 0 {
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.capture(p[:n])
	}
	return n, err
}

// Write pushes the read deadline as well: the reader side sits blocked on the
// reply while a large body is still going out.
func (c *recordConn) Write(p []byte) (int, error) {
	if c.readTimeout > 0 {
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	return c.Conn.Write(p)
}

func (c *recordConn) capture(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.capturing {
		return
	}
	c.buf = append(c.buf, data...)
	for {
		end := headerEnd(c.buf)
		if end < 0 {
			if len(c.buf) > maxHeaderBlockSize {
				c.capturing = false
				c.buf = c.buf[:0]
			}
			return
		}
		block := c.buf[:end]
		if isInterimBlock(block) {
			c.buf = append(c.buf[:0], c.buf[end:]...)
			continue
		}
		c.block = append([]byte(nil), block...)
		c.capturing = false
		c.buf = c.buf[:0]
		return
	}
}

func headerEnd(buf []byte) int {
	end := -1
	if idx := bytes.Index(buf, []byte("\r\n\r\n")); idx >= 0 {
		end = idx + 4
	}
	if idx := bytes.Index(buf, []byte("\n\n")); idx >= 0 && (end < 0 || idx+2 < end) {
		end = idx + 2
	}
	return end
}

// 1xx replies (100 Continue and friends) precede the real one.
func isInterimBlock(block []byte) bool {
	// "HTTP/1.1 1xx"
	if len(block) < 12 || !bytes.HasPrefix(block, []byte("HTTP/")) {
		return false
	}
	sp := bytes.IndexByte(block, ' ')
	if sp < 0 || sp+1 >= len(block) {
		return false
	}
	return block[sp+1] == '1' && !bytes.HasPrefix(block[sp+1:], []byte("101"))
}

package transfer

import (
	"io"
	"sync"
)

// progressFunc receives the running byte count. final is set for the last
// report of a transfer.
type progressFunc func(completed int64, final bool) error

// progressCounter reports the running byte count every chunk bytes. Flush
// always reports, even when nothing moved.
type progressCounter struct {
	mu       sync.Mutex
	chunk    int64
	count    int64
	reported int64
	fn       progressFunc
}

func (p *progressCounter) add(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count += int64(n)
	if p.count-p.reported < p.chunk {
		return nil
	}
	p.reported = p.count
	return p.fn(p.count, false)
}

func (p *progressCounter) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reported = p.count
	return p.fn(p.count, true)
}

func (p *progressCounter) Count() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

type progressReader struct {
	progressCounter
	r io.Reader
}

func newProgressReader(r io.Reader, chunk int, fn progressFunc) *progressReader {
	return &progressReader{progressCounter: progressCounter{chunk: int64(chunk), fn: fn}, r: r}
}

func (p *progressReader) Read(b []byte) (int, error) {
	// never hand out more than a chunk at once, the caller's buffer may be large
	if int64(len(b)) > p.chunk {
		b = b[:p.chunk]
	}
	n, err := p.r.Read(b)
	if n > 0 {
		if perr := p.add(n); perr != nil {
			return n, perr
		}
	}
	return n, err
}

type progressWriter struct {
	progressCounter
	w io.Writer
}

func newProgressWriter(w io.Writer, chunk int, fn progressFunc) *progressWriter {
	return &progressWriter{progressCounter: progressCounter{chunk: int64(chunk), fn: fn}, w: w}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if n > 0 {
		if perr := p.add(n); perr != nil {
			return n, perr
		}
	}
	return n, err
}

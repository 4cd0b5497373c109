package terminal

import (
	"bytes"
	"io"
	"sync"
)

// CRLFWriter turns bare "\n" into "\r\n" for terminals without line
// discipline, such as an SSH channel with a client-side pty.
type CRLFWriter struct {
	mu     sync.Mutex
	w      io.Writer
	lastCR bool
}

// NewCRLFWriter wraps w.
func NewCRLFWriter(w io.Writer) *CRLFWriter {
	return &CRLFWriter{w: w}
}

// Write implements io.Writer. The returned count refers to p.
func (c *CRLFWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var b bytes.Buffer
	b.Grow(len(p) + 8)
	for _, ch := range p {
		if ch == '\n' && !c.lastCR {
			b.WriteByte('\r')
		}
		b.WriteByte(ch)
		c.lastCR = ch == '\r'
	}
	if _, err := c.w.Write(b.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

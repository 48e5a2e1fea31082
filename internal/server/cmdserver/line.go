// Package cmdserver provides the line-oriented command protocol.
package cmdserver

// DefaultMaxLine is the longest accepted command line in bytes.
const DefaultMaxLine = 256

// PushResult is the outcome of feeding one byte to a LineAccumulator.
type PushResult int

const (
	// Pending means no complete line is available yet.
	Pending PushResult = iota
	// Complete means a non-empty line was terminated.
	Complete
	// Overflow means a line longer than the maximum was terminated and discarded.
	Overflow
)

// LineAccumulator assembles command lines one byte at a time. CR and LF
// both terminate a line, so CRLF yields one line and one ignored empty line.
type LineAccumulator struct {
	max      int
	buf      []byte
	overflow bool
}

// NewLineAccumulator creates an accumulator for lines of at most maxLen bytes.
func NewLineAccumulator(maxLen int) *LineAccumulator {
	if maxLen <= 0 {
		maxLen = DefaultMaxLine
	}
	return &LineAccumulator{max: maxLen, buf: make([]byte, 0, maxLen)}
}

// Push feeds b. When it returns Complete, line holds the terminated line.
func (a *LineAccumulator) Push(b byte) (line string, res PushResult) {
	if b == '\r' || b == '\n' {
		if a.overflow {
			a.overflow = false
			a.buf = a.buf[:0]
			return "", Overflow
		}
		if len(a.buf) == 0 {
			return "", Pending
		}
		line = string(a.buf)
		a.buf = a.buf[:0]
		return line, Complete
	}

	if a.overflow {
		return "", Pending
	}
	if len(a.buf) >= a.max {
		a.overflow = true
		a.buf = a.buf[:0]
		return "", Pending
	}
	a.buf = append(a.buf, b)
	return "", Pending
}

// Max returns the configured maximum line length.
func (a *LineAccumulator) Max() int {
	return a.max
}

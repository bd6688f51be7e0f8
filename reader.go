package serialmon

import (
	"bytes"
	"time"
)

// Line is one unit of framed device output.
type Line struct {
	// Raw holds the bytes read, including the delimiter when Complete.
	Raw []byte

	// Complete is false when the read timed out (Raw holds whatever partial
	// data had arrived, possibly nothing) or when the line hit MaxLineSize.
	Complete bool

	// Truncated marks a chunk cut at MaxLineSize; the rest of the line
	// follows in the next call.
	Truncated bool
}

// LineReader frames the byte stream from a SerialPort into delimited lines.
// Bytes read past a delimiter are kept for the next call. It is not safe for
// concurrent use.
type LineReader struct {
	port    SerialPort
	delim   byte
	maxLine int
	timeout time.Duration

	buf     []byte
	pending []byte
}

// NewLineReader returns a reader splitting on delim. A line that grows past
// maxLine bytes without a delimiter is returned in maxLine-sized chunks.
// A positive timeout bounds how long ReadLine keeps collecting a partial line
// from a device that trickles bytes without ever sending a delimiter.
func NewLineReader(port SerialPort, delim byte, maxLine int, timeout time.Duration) *LineReader {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineSize
	}
	return &LineReader{
		port:    port,
		delim:   delim,
		maxLine: maxLine,
		timeout: timeout,
		buf:     getReadBuf(),
	}
}

// ReadLine returns the next line. When the port's read timeout elapses
// before a delimiter arrives, the accumulated bytes are returned with
// Complete set to false. On error, buffered bytes are retained.
func (r *LineReader) ReadLine() (Line, error) {
	start := time.Now()
	for {
		if idx := bytes.IndexByte(r.pending, r.delim); idx >= 0 {
			return Line{Raw: r.take(idx + 1), Complete: true}, nil
		}
		if len(r.pending) >= r.maxLine {
			return Line{Raw: r.take(r.maxLine), Truncated: true}, nil
		}

		n, err := r.port.Read(r.buf)
		if n > 0 {
			r.pending = append(r.pending, r.buf[:n]...)
		}
		if err != nil {
			return Line{}, err
		}
		if n == 0 || (r.timeout > 0 && time.Since(start) >= r.timeout && bytes.IndexByte(r.pending, r.delim) < 0) {
			return Line{Raw: r.take(len(r.pending))}, nil
		}
	}
}

// Buffered returns the number of bytes read from the port but not yet
// returned as part of a line.
func (r *LineReader) Buffered() int {
	return len(r.pending)
}

// Release returns the read buffer to the pool. The reader must not be used
// afterwards.
func (r *LineReader) Release() {
	if r.buf != nil {
		putReadBuf(r.buf)
		r.buf = nil
	}
}

// take removes and returns the first n pending bytes.
func (r *LineReader) take(n int) []byte {
	out := make([]byte, n)
	copy(out, r.pending[:n])
	r.pending = append(r.pending[:0], r.pending[n:]...)
	return out
}

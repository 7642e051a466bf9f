package wirelayout

import (
	"io"

	"github.com/wippyai/wirelayout/errors"
)

// Source is the read side of a byte-stream boundary.
type Source interface {
	// ReadFull fills p completely or fails. A failed read leaves p
	// unspecified.
	ReadFull(p []byte) error
}

// Sink is the write side of a byte-stream boundary.
type Sink interface {
	// WriteFull writes all of p or fails.
	WriteFull(p []byte) error
}

// StreamSource adapts an io.Reader and tracks the stream offset.
type StreamSource struct {
	r   io.Reader
	off int64
}

// NewSource wraps r. If r already is a Source it is returned unchanged.
func NewSource(r io.Reader) Source {
	if s, ok := r.(Source); ok {
		return s
	}
	return &StreamSource{r: r}
}

// ReadFull reads exactly len(p) bytes. Failures are IO errors whose cause is
// the reader's error verbatim: io.EOF when nothing was read, otherwise
// io.ErrUnexpectedEOF or the transport error.
func (s *StreamSource) ReadFull(p []byte) error {
	n, err := io.ReadFull(s.r, p)
	start := s.off
	s.off += int64(n)
	if err != nil {
		return errors.ShortRead(nil, len(p), start, err)
	}
	return nil
}

// Offset returns the number of bytes consumed so far.
func (s *StreamSource) Offset() int64 { return s.off }

// StreamSink adapts an io.Writer and tracks the stream offset.
type StreamSink struct {
	w   io.Writer
	off int64
}

// NewSink wraps w. If w already is a Sink it is returned unchanged.
func NewSink(w io.Writer) Sink {
	if s, ok := w.(Sink); ok {
		return s
	}
	return &StreamSink{w: w}
}

// WriteFull writes p in one call. A short write without an error from the
// writer is reported with io.ErrShortWrite as the cause.
func (s *StreamSink) WriteFull(p []byte) error {
	n, err := s.w.Write(p)
	start := s.off
	s.off += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return errors.ShortWrite(nil, len(p), start, err)
	}
	return nil
}

// Offset returns the number of bytes written so far.
func (s *StreamSink) Offset() int64 { return s.off }

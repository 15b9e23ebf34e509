package decode

import (
	"fmt"
	"io"

	"omvdecoder/internal/faults"
)

// Source is a seekable, read-only view over the embedded stream bytes.
type Source struct {
	data   []byte
	pos    int64
	closed bool
}

// NewSource wraps data without copying.
func NewSource(data []byte) *Source {
	return &Source{data: data}
}

// Len returns the size of the underlying range.
func (s *Source) Len() int64 {
	return int64(len(s.data))
}

// Seek moves the read position. The resulting position is clamped into
// [0, Len]; unknown whence values fail.
func (s *Source) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = s.pos
	case io.SeekEnd:
		base = int64(len(s.data))
	default:
		return s.pos, faults.Wrap(faults.ErrUnsupportedOrigin, "source", "seek", fmt.Sprintf("whence %d", whence), nil)
	}
	next := base + offset
	if next < 0 {
		next = 0
	}
	if limit := int64(len(s.data)); next > limit {
		next = limit
	}
	s.pos = next
	return s.pos, nil
}

// Read copies up to len(p) bytes from the current position.
func (s *Source) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

// Close marks the source closed. It always succeeds and may be repeated.
func (s *Source) Close() error {
	s.closed = true
	return nil
}

var _ io.ReadSeekCloser = (*Source)(nil)

package container

import (
	"bytes"
	"fmt"

	"omvdecoder/internal/faults"
)

// Marker is the capture pattern that opens the embedded Ogg bitstream.
var Marker = []byte("OggS")

// Range is a half-open byte range [Start, End) inside the container.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Slice returns the covered bytes of b without copying.
func (r Range) Slice(b []byte) []byte {
	return b[r.Start:r.End]
}

// Locate searches the whole buffer, header included, for the first occurrence
// of marker and returns the range from there to the end of b.
func Locate(b []byte, marker []byte) (Range, error) {
	if len(marker) == 0 {
		return Range{}, fmt.Errorf("locate embedded stream: empty marker")
	}
	idx := bytes.Index(b, marker)
	if idx < 0 {
		return Range{}, faults.Wrap(faults.ErrMissingEmbeddedStream, "container", "locate",
			fmt.Sprintf("marker %q not found", marker), nil)
	}
	return Range{Start: idx, End: len(b)}, nil
}

package container

import (
	"encoding/binary"
	"fmt"

	"omvdecoder/internal/faults"
)

const (
	// metadataOffset follows StreamOffset, the version bytes and both padding runs.
	metadataOffset = 8 + 0x24
	metadataSize   = 8 * 4

	// HeaderSize is the fixed width of an encoded Header.
	HeaderSize = metadataOffset + metadataSize
)

// Metadata is the fixed block describing the embedded video. Only Width and
// Height are consulted; the remaining fields are kept for format fidelity.
type Metadata struct {
	Width          uint32
	Height         uint32
	FrameTimeUnits uint32
	StreamID       uint32
	StreamID2      uint32
	Unknown        uint32
	DataPackCount  uint32
	FrameCount     uint32
}

// Header is the fixed-size OMV container header.
type Header struct {
	StreamOffset uint32
	MajorVersion uint8
	MinorVersion uint8
	Padding      [2]byte
	Padding2     [0x24]byte
	Metadata     Metadata
}

// ParseHeader decodes the fixed header layout from the start of b. Values are
// not range checked; callers validate what they consume.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, faults.Wrap(faults.ErrTruncatedHeader, "container", "parse header",
			fmt.Sprintf("need %d bytes, have %d", HeaderSize, len(b)), nil)
	}
	var h Header
	le := binary.LittleEndian
	h.StreamOffset = le.Uint32(b[0:4])
	h.MajorVersion = b[4]
	h.MinorVersion = b[5]
	copy(h.Padding[:], b[6:8])
	copy(h.Padding2[:], b[8:metadataOffset])

	m := b[metadataOffset:HeaderSize]
	h.Metadata = Metadata{
		Width:          le.Uint32(m[0:4]),
		Height:         le.Uint32(m[4:8]),
		FrameTimeUnits: le.Uint32(m[8:12]),
		StreamID:       le.Uint32(m[12:16]),
		StreamID2:      le.Uint32(m[16:20]),
		Unknown:        le.Uint32(m[20:24]),
		DataPackCount:  le.Uint32(m[24:28]),
		FrameCount:     le.Uint32(m[28:32]),
	}
	return h, nil
}

// MarshalBinary re-encodes the header in its fixed layout.
func (h Header) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, HeaderSize)
	le := binary.LittleEndian
	out = le.AppendUint32(out, h.StreamOffset)
	out = append(out, h.MajorVersion, h.MinorVersion)
	out = append(out, h.Padding[:]...)
	out = append(out, h.Padding2[:]...)
	for _, v := range []uint32{
		h.Metadata.Width,
		h.Metadata.Height,
		h.Metadata.FrameTimeUnits,
		h.Metadata.StreamID,
		h.Metadata.StreamID2,
		h.Metadata.Unknown,
		h.Metadata.DataPackCount,
		h.Metadata.FrameCount,
	} {
		out = le.AppendUint32(out, v)
	}
	return out, nil
}

// Version renders the container version as "major.minor".
func (h Header) Version() string {
	return fmt.Sprintf("%d.%d", h.MajorVersion, h.MinorVersion)
}

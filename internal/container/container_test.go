package container_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"omvdecoder/internal/container"
	"omvdecoder/internal/faults"
)

func sampleHeaderBytes() []byte {
	buf := make([]byte, container.HeaderSize)
	for i := range buf {
		buf[i] = byte(i*7 + 3)
	}
	binary.LittleEndian.PutUint32(buf[0x2c:], 640)
	binary.LittleEndian.PutUint32(buf[0x30:], 480)
	return buf
}

func TestParseHeaderDecodesLittleEndianFields(t *testing.T) {
	raw := sampleHeaderBytes()
	h, err := container.ParseHeader(raw)
	if err != nil {
		t.Fatalf("ParseHeader returned error: %v", err)
	}
	if h.StreamOffset != binary.LittleEndian.Uint32(raw[0:4]) {
		t.Fatalf("unexpected stream offset %d", h.StreamOffset)
	}
	if h.MajorVersion != raw[4] || h.MinorVersion != raw[5] {
		t.Fatalf("unexpected version %s", h.Version())
	}
	if h.Metadata.Width != 640 || h.Metadata.Height != 480 {
		t.Fatalf("unexpected dimensions %dx%d", h.Metadata.Width, h.Metadata.Height)
	}
	if h.Metadata.FrameCount != binary.LittleEndian.Uint32(raw[0x48:]) {
		t.Fatalf("unexpected frame count %d", h.Metadata.FrameCount)
	}
}

func TestParseHeaderFieldOffsets(t *testing.T) {
	if container.HeaderSize != 0x4c {
		t.Fatalf("HeaderSize = %#x, want 0x4c", container.HeaderSize)
	}
	le := binary.LittleEndian
	raw := make([]byte, 0, container.HeaderSize)
	raw = le.AppendUint32(raw, 0x4c)
	raw = append(raw, 2, 1)
	raw = append(raw, 0xaa, 0xbb)
	raw = append(raw, bytes.Repeat([]byte{0xcc}, 0x24)...)
	for _, v := range []uint32{640, 480, 33, 1, 2, 9, 12, 250} {
		raw = le.AppendUint32(raw, v)
	}

	h, err := container.ParseHeader(raw)
	if err != nil {
		t.Fatalf("ParseHeader returned error: %v", err)
	}
	want := container.Metadata{
		Width: 640, Height: 480, FrameTimeUnits: 33, StreamID: 1,
		StreamID2: 2, Unknown: 9, DataPackCount: 12, FrameCount: 250,
	}
	if h.Metadata != want {
		t.Fatalf("unexpected metadata %+v", h.Metadata)
	}
	if h.Version() != "2.1" || h.Padding != [2]byte{0xaa, 0xbb} || h.Padding2[0x23] != 0xcc {
		t.Fatalf("unexpected prefix fields %+v", h)
	}
	encoded, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary returned error: %v", err)
	}
	if len(encoded) != container.HeaderSize {
		t.Fatalf("marshal produced %d bytes, want %d", len(encoded), container.HeaderSize)
	}
	if _, err := container.ParseHeader(encoded); err != nil {
		t.Fatalf("reparse of marshalled header failed: %v", err)
	}
}

func TestHeaderRoundTripIsByteExact(t *testing.T) {
	raw := sampleHeaderBytes()
	h, err := container.ParseHeader(raw)
	if err != nil {
		t.Fatalf("ParseHeader returned error: %v", err)
	}
	encoded, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary returned error: %v", err)
	}
	if !bytes.Equal(encoded, raw) {
		t.Fatalf("round trip mismatch:\n got %x\nwant %x", encoded, raw)
	}
}

func TestParseHeaderIgnoresTrailingBytes(t *testing.T) {
	raw := append(sampleHeaderBytes(), []byte("OggS trailing payload")...)
	h, err := container.ParseHeader(raw)
	if err != nil {
		t.Fatalf("ParseHeader returned error: %v", err)
	}
	encoded, _ := h.MarshalBinary()
	if !bytes.Equal(encoded, raw[:container.HeaderSize]) {
		t.Fatal("expected header bytes to match prefix")
	}
}

func TestParseHeaderTruncated(t *testing.T) {
	_, err := container.ParseHeader(make([]byte, container.HeaderSize-1))
	if !errors.Is(err, faults.ErrTruncatedHeader) {
		t.Fatalf("expected truncated header error, got %v", err)
	}
}

func TestLocateMissingMarker(t *testing.T) {
	_, err := container.Locate([]byte("no marker in here"), container.Marker)
	if !errors.Is(err, faults.ErrMissingEmbeddedStream) {
		t.Fatalf("expected missing stream error, got %v", err)
	}
}

func TestLocateFirstMatchWins(t *testing.T) {
	data := []byte("xxOggSaaaaOggSbbbb")
	r, err := container.Locate(data, container.Marker)
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if r.Start != 2 || r.End != len(data) {
		t.Fatalf("unexpected range %+v", r)
	}
	if got := string(r.Slice(data)); got != "OggSaaaaOggSbbbb" {
		t.Fatalf("unexpected slice %q", got)
	}
	if r.Len() != len(data)-2 {
		t.Fatalf("unexpected length %d", r.Len())
	}
}

func TestLocateSearchesHeaderRegion(t *testing.T) {
	data := sampleHeaderBytes()
	copy(data[8:], container.Marker)
	r, err := container.Locate(data, container.Marker)
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if r.Start != 8 {
		t.Fatalf("expected match inside header at 8, got %d", r.Start)
	}
}

func TestMapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.omv")
	want := append(sampleHeaderBytes(), []byte("OggS")...)
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	mapped, err := container.MapFile(path)
	if err != nil {
		t.Fatalf("MapFile returned error: %v", err)
	}
	if !bytes.Equal(mapped.Bytes(), want) {
		t.Fatal("mapped bytes differ from file contents")
	}
	if err := mapped.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := mapped.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}

func TestMapFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.omv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	mapped, err := container.MapFile(path)
	if err != nil {
		t.Fatalf("MapFile returned error: %v", err)
	}
	defer mapped.Close()
	if len(mapped.Bytes()) != 0 {
		t.Fatalf("expected empty view, got %d bytes", len(mapped.Bytes()))
	}
	if _, err := container.ParseHeader(mapped.Bytes()); !errors.Is(err, faults.ErrTruncatedHeader) {
		t.Fatalf("expected truncated header for empty file, got %v", err)
	}
}

func TestMapFileMissing(t *testing.T) {
	if _, err := container.MapFile(filepath.Join(t.TempDir(), "missing.omv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

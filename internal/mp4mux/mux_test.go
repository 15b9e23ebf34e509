package mp4mux

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/abema/go-mp4"
)

var (
	testSPS = []byte{0x67, 0x4d, 0x40, 0x1f, 0xaa}
	testPPS = []byte{0x68, 0xee, 0x3c, 0x80}
)

func annexB(units ...[]byte) []byte {
	var buf bytes.Buffer
	for i, u := range units {
		if i%2 == 0 {
			buf.Write([]byte{0, 0, 0, 1})
		} else {
			buf.Write([]byte{0, 0, 1})
		}
		buf.Write(u)
	}
	return buf.Bytes()
}

func sampleStream() []byte {
	return annexB(
		[]byte{0x09, 0xf0},
		testSPS,
		testPPS,
		[]byte{0x65, 0x88, 0x84},
		[]byte{0x09, 0xf0},
		[]byte{0x41, 0x9a, 0x02},
		[]byte{0x41, 0x9a, 0x04},
	)
}

func TestSplitNALUnits(t *testing.T) {
	units := SplitNALUnits(annexB([]byte{0x67, 0x01}, []byte{0x68, 0x02}, []byte{0x65, 0x03, 0x00}))
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	if !bytes.Equal(units[2], []byte{0x65, 0x03}) {
		t.Fatalf("expected trailing zero stripped, got %x", units[2])
	}
	if SplitNALUnits([]byte{1, 2, 3}) != nil {
		t.Fatal("expected no units without a start code")
	}
}

func TestParseAnnexBGroupsAccessUnits(t *testing.T) {
	stream := ParseAnnexB(sampleStream())
	if !bytes.Equal(stream.SPS, testSPS) || !bytes.Equal(stream.PPS, testPPS) {
		t.Fatalf("unexpected parameter sets %x %x", stream.SPS, stream.PPS)
	}
	if len(stream.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(stream.Samples))
	}
	if !stream.Samples[0].Keyframe || stream.Samples[1].Keyframe || stream.Samples[2].Keyframe {
		t.Fatalf("unexpected keyframe flags %+v", stream.Samples)
	}
	want := []byte{0, 0, 0, 3, 0x65, 0x88, 0x84}
	if !bytes.Equal(stream.Samples[0].Data, want) {
		t.Fatalf("sample 0 = %x, want %x", stream.Samples[0].Data, want)
	}
}

func TestParseAnnexBKeepsSlicesOfOnePicture(t *testing.T) {
	stream := ParseAnnexB(annexB(
		testSPS,
		testPPS,
		[]byte{0x65, 0x88, 0x01},
		[]byte{0x65, 0x08, 0x02},
		[]byte{0x41, 0x9a, 0x03},
	))
	if len(stream.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(stream.Samples))
	}
	if got := len(stream.Samples[0].Data); got != 14 {
		t.Fatalf("expected both slices in the first sample, got %d bytes", got)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	cfg := Config{Width: 320, Height: 240, Timescale: 2997, SampleDelta: 100}
	if err := WriteFile(path, sampleStream(), cfg); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	stbl := mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeMdia(), mp4.BoxTypeMinf(), mp4.BoxTypeStbl()}

	stsz := extractOne[*mp4.Stsz](t, f, append(stbl, mp4.BoxTypeStsz()))
	if stsz.SampleCount != 3 || len(stsz.EntrySize) != 3 || stsz.EntrySize[0] != 7 {
		t.Fatalf("unexpected stsz %+v", stsz)
	}
	stss := extractOne[*mp4.Stss](t, f, append(stbl, mp4.BoxTypeStss()))
	if len(stss.SampleNumber) != 1 || stss.SampleNumber[0] != 1 {
		t.Fatalf("unexpected stss %+v", stss)
	}
	stts := extractOne[*mp4.Stts](t, f, append(stbl, mp4.BoxTypeStts()))
	if len(stts.Entries) != 1 || stts.Entries[0].SampleCount != 3 || stts.Entries[0].SampleDelta != 100 {
		t.Fatalf("unexpected stts %+v", stts)
	}
	mdhd := extractOne[*mp4.Mdhd](t, f, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeMdia(), mp4.BoxTypeMdhd()})
	if mdhd.Timescale != 2997 || mdhd.DurationV0 != 300 {
		t.Fatalf("unexpected mdhd %+v", mdhd)
	}
	avcC := extractOne[*mp4.AVCDecoderConfiguration](t, f, append(stbl, mp4.BoxTypeStsd(), mp4.BoxTypeAvc1(), mp4.BoxTypeAvcC()))
	if avcC.Profile != 0x4d || len(avcC.SequenceParameterSets) != 1 || !bytes.Equal(avcC.PictureParameterSets[0].NALUnit, testPPS) {
		t.Fatalf("unexpected avcC %+v", avcC)
	}

	stco := extractOne[*mp4.Stco](t, f, append(stbl, mp4.BoxTypeStco()))
	sample := make([]byte, 7)
	if _, err := f.ReadAt(sample, int64(stco.ChunkOffset[0])); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sample, []byte{0, 0, 0, 3, 0x65, 0x88, 0x84}) {
		t.Fatalf("chunk offset does not point at the first sample: %x", sample)
	}
}

func TestWriteRejectsStreamWithoutParameterSets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	err := WriteFile(path, annexB([]byte{0x65, 0x88}), Config{Width: 2, Height: 2, Timescale: 24, SampleDelta: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat returned %v", statErr)
	}
}

func TestWriteRejectsInvalidConfig(t *testing.T) {
	var buf writeSeeker
	if err := Write(&buf, sampleStream(), Config{Width: 2, Height: 2}); err == nil {
		t.Fatal("expected frame rate error")
	}
}

func extractOne[T mp4.IBox](t *testing.T, f *os.File, path mp4.BoxPath) T {
	t.Helper()
	boxes, err := mp4.ExtractBoxWithPayload(f, nil, path)
	if err != nil {
		t.Fatalf("extract %v: %v", path, err)
	}
	if len(boxes) != 1 {
		t.Fatalf("expected one box at %v, got %d", path, len(boxes))
	}
	payload, ok := boxes[0].Payload.(T)
	if !ok {
		t.Fatalf("unexpected payload type %T at %v", boxes[0].Payload, path)
	}
	return payload
}

type writeSeeker struct {
	buf []byte
	pos int64
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	end := w.pos + int64(len(p))
	if end > int64(len(w.buf)) {
		w.buf = append(w.buf, make([]byte, end-int64(len(w.buf)))...)
	}
	copy(w.buf[w.pos:], p)
	w.pos = end
	return len(p), nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		w.pos = offset
	case 1:
		w.pos += offset
	case 2:
		w.pos = int64(len(w.buf)) + offset
	}
	return w.pos, nil
}

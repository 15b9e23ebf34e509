package mp4mux

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abema/go-mp4"

	"omvdecoder/internal/fileutil"
)

// Config describes the single video track.
type Config struct {
	Width  uint32
	Height uint32
	// Timescale and SampleDelta express the frame rate as
	// Timescale/SampleDelta frames per second.
	Timescale   uint32
	SampleDelta uint32
}

func (c Config) validate() error {
	if c.Width == 0 || c.Height == 0 || c.Width > 0xffff || c.Height > 0xffff {
		return fmt.Errorf("mp4 mux: invalid dimensions %dx%d", c.Width, c.Height)
	}
	if c.Timescale == 0 || c.SampleDelta == 0 {
		return fmt.Errorf("mp4 mux: invalid frame rate %d/%d", c.Timescale, c.SampleDelta)
	}
	return nil
}

// WriteFile muxes an Annex B stream into path, replacing it atomically.
func WriteFile(path string, annexB []byte, cfg Config) error {
	return fileutil.WriteAtomic(path, 0o644, func(f *os.File) error {
		return Write(f, annexB, cfg)
	})
}

// Write muxes an Annex B stream into w.
func Write(w io.WriteSeeker, annexB []byte, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	stream := ParseAnnexB(annexB)
	if stream.SPS == nil || stream.PPS == nil {
		return errors.New("mp4 mux: stream carries no SPS/PPS")
	}
	if len(stream.SPS) < 4 {
		return fmt.Errorf("mp4 mux: SPS too short (%d bytes)", len(stream.SPS))
	}
	if len(stream.Samples) == 0 {
		return errors.New("mp4 mux: stream carries no pictures")
	}

	m := &muxer{w: mp4.NewWriter(w), cfg: cfg, stream: stream}
	return m.write()
}

type muxer struct {
	w      *mp4.Writer
	cfg    Config
	stream Stream

	mdatPayload uint64
}

var unityMatrix = [9]int32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}

func (m *muxer) write() error {
	if err := m.box(mp4.BoxTypeFtyp(), &mp4.Ftyp{
		MajorBrand:   [4]byte{'i', 's', 'o', 'm'},
		MinorVersion: 0x200,
		CompatibleBrands: []mp4.CompatibleBrandElem{
			{CompatibleBrand: [4]byte{'i', 's', 'o', 'm'}},
			{CompatibleBrand: [4]byte{'i', 's', 'o', '2'}},
			{CompatibleBrand: [4]byte{'a', 'v', 'c', '1'}},
			{CompatibleBrand: [4]byte{'m', 'p', '4', '1'}},
		},
	}, nil); err != nil {
		return err
	}
	if err := m.writeMdat(); err != nil {
		return err
	}
	return m.box(mp4.BoxTypeMoov(), nil, m.writeMoov)
}

// box writes one box with an optional payload followed by its children.
func (m *muxer) box(typ mp4.BoxType, payload mp4.IImmutableBox, children func() error) error {
	bi, err := m.w.StartBox(&mp4.BoxInfo{Type: typ})
	if err != nil {
		return fmt.Errorf("mp4 mux: start %s: %w", typ, err)
	}
	if payload != nil {
		if _, err := mp4.Marshal(m.w, payload, bi.Context); err != nil {
			return fmt.Errorf("mp4 mux: marshal %s: %w", typ, err)
		}
	}
	if children != nil {
		if err := children(); err != nil {
			return err
		}
	}
	if _, err := m.w.EndBox(); err != nil {
		return fmt.Errorf("mp4 mux: end %s: %w", typ, err)
	}
	return nil
}

func (m *muxer) writeMdat() error {
	bi, err := m.w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeMdat()})
	if err != nil {
		return fmt.Errorf("mp4 mux: start mdat: %w", err)
	}
	m.mdatPayload = bi.Offset + bi.HeaderSize
	for _, s := range m.stream.Samples {
		if _, err := m.w.Write(s.Data); err != nil {
			return fmt.Errorf("mp4 mux: write samples: %w", err)
		}
	}
	if _, err := m.w.EndBox(); err != nil {
		return fmt.Errorf("mp4 mux: end mdat: %w", err)
	}
	return nil
}

func (m *muxer) duration() uint32 {
	return uint32(len(m.stream.Samples)) * m.cfg.SampleDelta
}

func (m *muxer) writeMoov() error {
	if err := m.box(mp4.BoxTypeMvhd(), &mp4.Mvhd{
		Timescale:   m.cfg.Timescale,
		DurationV0:  m.duration(),
		Rate:        0x00010000,
		Volume:      0x0100,
		Matrix:      unityMatrix,
		NextTrackID: 2,
	}, nil); err != nil {
		return err
	}
	return m.box(mp4.BoxTypeTrak(), nil, m.writeTrak)
}

func (m *muxer) writeTrak() error {
	if err := m.box(mp4.BoxTypeTkhd(), &mp4.Tkhd{
		FullBox:    mp4.FullBox{Flags: [3]byte{0, 0, 3}},
		TrackID:    1,
		DurationV0: m.duration(),
		Matrix:     unityMatrix,
		Width:      m.cfg.Width << 16,
		Height:     m.cfg.Height << 16,
	}, nil); err != nil {
		return err
	}
	return m.box(mp4.BoxTypeMdia(), nil, m.writeMdia)
}

func (m *muxer) writeMdia() error {
	if err := m.box(mp4.BoxTypeMdhd(), &mp4.Mdhd{
		Timescale:  m.cfg.Timescale,
		DurationV0: m.duration(),
		// "und" packed as three 5-bit letters minus 0x60.
		Language: [3]byte{'u' - 0x60, 'n' - 0x60, 'd' - 0x60},
	}, nil); err != nil {
		return err
	}
	if err := m.box(mp4.BoxTypeHdlr(), &mp4.Hdlr{
		HandlerType: [4]byte{'v', 'i', 'd', 'e'},
		Name:        "VideoHandler",
	}, nil); err != nil {
		return err
	}
	return m.box(mp4.BoxTypeMinf(), nil, m.writeMinf)
}

func (m *muxer) writeMinf() error {
	if err := m.box(mp4.BoxTypeVmhd(), &mp4.Vmhd{
		FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 1}},
	}, nil); err != nil {
		return err
	}
	if err := m.box(mp4.BoxTypeDinf(), nil, func() error {
		return m.box(mp4.BoxTypeDref(), &mp4.Dref{EntryCount: 1}, func() error {
			return m.box(mp4.BoxTypeUrl(), &mp4.Url{
				FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 1}},
			}, nil)
		})
	}); err != nil {
		return err
	}
	return m.box(mp4.BoxTypeStbl(), nil, m.writeStbl)
}

func (m *muxer) writeStbl() error {
	if err := m.box(mp4.BoxTypeStsd(), &mp4.Stsd{EntryCount: 1}, m.writeSampleEntry); err != nil {
		return err
	}

	count := uint32(len(m.stream.Samples))
	if err := m.box(mp4.BoxTypeStts(), &mp4.Stts{
		EntryCount: 1,
		Entries:    []mp4.SttsEntry{{SampleCount: count, SampleDelta: m.cfg.SampleDelta}},
	}, nil); err != nil {
		return err
	}

	keyframes := make([]uint32, 0, 1)
	sizes := make([]uint32, 0, len(m.stream.Samples))
	for i, s := range m.stream.Samples {
		if s.Keyframe {
			keyframes = append(keyframes, uint32(i+1))
		}
		sizes = append(sizes, uint32(len(s.Data)))
	}
	if len(keyframes) < len(m.stream.Samples) {
		if err := m.box(mp4.BoxTypeStss(), &mp4.Stss{
			EntryCount:   uint32(len(keyframes)),
			SampleNumber: keyframes,
		}, nil); err != nil {
			return err
		}
	}

	if err := m.box(mp4.BoxTypeStsc(), &mp4.Stsc{
		EntryCount: 1,
		Entries:    []mp4.StscEntry{{FirstChunk: 1, SamplesPerChunk: count, SampleDescriptionIndex: 1}},
	}, nil); err != nil {
		return err
	}
	if err := m.box(mp4.BoxTypeStsz(), &mp4.Stsz{
		SampleCount: count,
		EntrySize:   sizes,
	}, nil); err != nil {
		return err
	}
	if m.mdatPayload > 0xffffffff {
		return fmt.Errorf("mp4 mux: chunk offset %d exceeds 32 bits", m.mdatPayload)
	}
	return m.box(mp4.BoxTypeStco(), &mp4.Stco{
		EntryCount:  1,
		ChunkOffset: []uint32{uint32(m.mdatPayload)},
	}, nil)
}

func (m *muxer) writeSampleEntry() error {
	entry := &mp4.VisualSampleEntry{
		SampleEntry: mp4.SampleEntry{
			AnyTypeBox:         mp4.AnyTypeBox{Type: mp4.BoxTypeAvc1()},
			DataReferenceIndex: 1,
		},
		Width:           uint16(m.cfg.Width),
		Height:          uint16(m.cfg.Height),
		Horizresolution: 0x00480000,
		Vertresolution:  0x00480000,
		FrameCount:      1,
		Depth:           0x0018,
		PreDefined3:     -1,
	}
	return m.box(mp4.BoxTypeAvc1(), entry, func() error {
		sps, pps := m.stream.SPS, m.stream.PPS
		return m.box(mp4.BoxTypeAvcC(), &mp4.AVCDecoderConfiguration{
			AnyTypeBox:                 mp4.AnyTypeBox{Type: mp4.BoxTypeAvcC()},
			ConfigurationVersion:       1,
			Profile:                    sps[1],
			ProfileCompatibility:       sps[2],
			Level:                      sps[3],
			Reserved:                   0x3f,
			LengthSizeMinusOne:         lengthBytes - 1,
			Reserved2:                  0x7,
			NumOfSequenceParameterSets: 1,
			SequenceParameterSets:      []mp4.AVCParameterSet{{Length: uint16(len(sps)), NALUnit: sps}},
			NumOfPictureParameterSets:  1,
			PictureParameterSets:       []mp4.AVCParameterSet{{Length: uint16(len(pps)), NALUnit: pps}},
		}, nil)
	})
}

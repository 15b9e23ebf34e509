package mp4mux

import "encoding/binary"

// NAL unit types the muxer cares about.
const (
	nalSlice    = 1
	nalIDR      = 5
	nalSEI      = 6
	nalSPS      = 7
	nalPPS      = 8
	nalAUD      = 9
	lengthBytes = 4
)

// SplitNALUnits returns the NAL units of an Annex B stream without their
// start codes. Units alias stream.
func SplitNALUnits(stream []byte) [][]byte {
	var units [][]byte
	start := -1
	for i := 0; i+2 < len(stream); {
		if stream[i] == 0 && stream[i+1] == 0 && stream[i+2] == 1 {
			if start >= 0 {
				units = appendUnit(units, stream[start:i])
			}
			i += 3
			start = i
			continue
		}
		i++
	}
	if start >= 0 && start < len(stream) {
		units = appendUnit(units, stream[start:])
	}
	return units
}

func appendUnit(units [][]byte, nal []byte) [][]byte {
	end := len(nal)
	for end > 0 && nal[end-1] == 0 {
		end--
	}
	if end == 0 {
		return units
	}
	return append(units, nal[:end])
}

func nalType(nal []byte) byte {
	return nal[0] & 0x1f
}

func isVCL(typ byte) bool {
	return typ >= nalSlice && typ <= nalIDR
}

// firstSliceOfPicture reports whether first_mb_in_slice is zero. The field is
// the first ue(v) after the header byte and zero codes as a single 1 bit.
func firstSliceOfPicture(nal []byte) bool {
	return len(nal) > 1 && nal[1]&0x80 != 0
}

// Sample is one access unit in length-prefixed form.
type Sample struct {
	Data     []byte
	Keyframe bool
}

// Stream is an elementary stream regrouped for muxing.
type Stream struct {
	SPS     []byte
	PPS     []byte
	Samples []Sample
}

// ParseAnnexB groups NAL units into access units. Parameter sets and access
// unit delimiters are lifted out of the samples; the first SPS and PPS seen
// are kept for the decoder configuration record.
func ParseAnnexB(stream []byte) Stream {
	var out Stream
	var cur Sample
	hasVCL := false
	flush := func() {
		if hasVCL {
			out.Samples = append(out.Samples, cur)
		}
		cur = Sample{}
		hasVCL = false
	}

	for _, nal := range SplitNALUnits(stream) {
		typ := nalType(nal)
		vcl := isVCL(typ)
		if hasVCL {
			switch {
			case vcl && firstSliceOfPicture(nal):
				flush()
			case typ == nalAUD, typ == nalSPS, typ == nalPPS, typ == nalSEI:
				flush()
			}
		}
		switch typ {
		case nalSPS:
			if out.SPS == nil {
				out.SPS = nal
			}
			continue
		case nalPPS:
			if out.PPS == nil {
				out.PPS = nal
			}
			continue
		case nalAUD:
			continue
		}
		cur.Data = binary.BigEndian.AppendUint32(cur.Data, uint32(len(nal)))
		cur.Data = append(cur.Data, nal...)
		if vcl {
			hasVCL = true
		}
		if typ == nalIDR {
			cur.Keyframe = true
		}
	}
	flush()
	return out
}

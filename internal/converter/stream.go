package converter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"

	"omvdecoder/internal/faults"
	"omvdecoder/internal/frame"
)

// Stream writes the PXY4M protocol: one header line, then for every frame a
// three line ASCII preamble followed by the PNG payload.
//
//	PXY4M W<w> H<h> F<num>/<den> Crgba Enc:png
//	FRAME
//	PTS <index>
//	BYTES <length>
//	<length bytes of PNG>
type Stream struct {
	lifecycle

	out     *bufio.Writer
	encoder png.Encoder
	payload bytes.Buffer
	width   uint32
	height  uint32
}

// NewStream builds a protocol writer over out.
func NewStream(out io.Writer, _ Options) *Stream {
	return &Stream{
		lifecycle: newLifecycle("pxy4m"),
		out:       bufio.NewWriter(out),
	}
}

// Header renders the stream header line.
func Header(width, height uint32, fps float64) string {
	num, den := FrameRateRational(fps)
	return fmt.Sprintf("PXY4M W%d H%d F%d/%d Crgba Enc:png\n", width, height, num, den)
}

func (w *Stream) Prepare(_ context.Context, width, height uint32, fps float64) error {
	if err := w.beginPrepare(); err != nil {
		return err
	}
	if _, err := w.out.WriteString(Header(width, height, fps)); err != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "prepare", "write header", err))
	}
	if err := w.out.Flush(); err != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "prepare", "flush header", err))
	}
	w.width, w.height = width, height
	w.prepared()
	return nil
}

func (w *Stream) ConvertFrame(f *frame.RGBA, index uint32) error {
	if err := w.beginFrame(index); err != nil {
		return err
	}
	if err := checkDimensions(f, w.width, w.height); err != nil {
		return w.fail(faults.Wrap(faults.ErrDimensionMismatch, w.name, "convert frame", "", err))
	}
	w.payload.Reset()
	if err := w.encoder.Encode(&w.payload, f.NRGBA()); err != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "convert frame", "png encode", err))
	}
	if _, err := fmt.Fprintf(w.out, "FRAME\nPTS %d\nBYTES %d\n", index, w.payload.Len()); err != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "convert frame", "write frame header", err))
	}
	if _, err := w.out.Write(w.payload.Bytes()); err != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "convert frame", "write payload", err))
	}
	if err := w.out.Flush(); err != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "convert frame", "flush", err))
	}
	w.converted()
	return nil
}

func (w *Stream) Finish() error {
	if err := w.beginFinish(); err != nil {
		return err
	}
	if err := w.out.Flush(); err != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "finish", "flush", err))
	}
	w.finished()
	return nil
}

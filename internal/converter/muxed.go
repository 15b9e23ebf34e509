package converter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"omvdecoder/internal/encoder"
	"omvdecoder/internal/faults"
	"omvdecoder/internal/fileutil"
	"omvdecoder/internal/frame"
	"omvdecoder/internal/mp4mux"
)

// FrameEncoder is a running H.264 encoder session.
type FrameEncoder interface {
	WriteFrame(rgb []byte) error
	// Close ends the input and returns the complete Annex B stream.
	Close() ([]byte, error)
}

// EncoderStarter starts a FrameEncoder for cfg.
type EncoderStarter func(ctx context.Context, cfg encoder.Config) (FrameEncoder, error)

func startFFmpegEncoder(ctx context.Context, cfg encoder.Config) (FrameEncoder, error) {
	return encoder.Start(ctx, cfg)
}

// Muxed encodes every frame to H.264 and writes one MP4 on Finish. The
// extension of the output path is always replaced by .mp4.
type Muxed struct {
	lifecycle

	path    string
	binary  string
	crf     int
	start   EncoderStarter
	logger  *slog.Logger
	session FrameEncoder
	width   uint32
	height  uint32
	num     uint32
	den     uint32
}

// NewMuxed builds the muxed file writer.
func NewMuxed(output string, opts Options) *Muxed {
	start := opts.StartEncoder
	if start == nil {
		start = startFFmpegEncoder
	}
	return &Muxed{
		lifecycle: newLifecycle("muxed"),
		path:      fileutil.TrimExt(output) + ".mp4",
		binary:    opts.ffmpeg(),
		crf:       opts.crf(),
		start:     start,
		logger:    opts.logger(),
	}
}

// Path returns the MP4 file written by Finish.
func (w *Muxed) Path() string {
	return w.path
}

func (w *Muxed) Prepare(ctx context.Context, width, height uint32, fps float64) error {
	if err := w.beginPrepare(); err != nil {
		return err
	}
	w.num, w.den = FrameRateRational(fps)
	if w.num == 0 {
		return w.fail(faults.Wrap(faults.ErrInvalidState, w.name, "prepare", fmt.Sprintf("invalid frame rate %g", fps), nil))
	}
	session, err := w.start(ctx, encoder.Config{
		Binary: w.binary,
		Width:  width,
		Height: height,
		FPS:    fps,
		CRF:    w.crf,
	})
	if err != nil {
		return w.fail(fmt.Errorf("%s: start encoder: %w", w.name, err))
	}
	w.session = session
	w.width, w.height = width, height
	w.prepared()
	return nil
}

func (w *Muxed) ConvertFrame(f *frame.RGBA, index uint32) error {
	if err := w.beginFrame(index); err != nil {
		return err
	}
	if err := checkDimensions(f, w.width, w.height); err != nil {
		return w.fail(faults.Wrap(faults.ErrDimensionMismatch, w.name, "convert frame", "", err))
	}
	if err := w.session.WriteFrame(f.RGB()); err != nil {
		w.abort()
		return w.fail(fmt.Errorf("%s: frame %d: %w", w.name, index, err))
	}
	w.converted()
	return nil
}

func (w *Muxed) Finish() error {
	if err := w.beginFinish(); err != nil {
		return err
	}
	stream, err := w.session.Close()
	w.session = nil
	if err != nil {
		return w.fail(fmt.Errorf("%s: close encoder: %w", w.name, err))
	}
	cfg := mp4mux.Config{Width: w.width, Height: w.height, Timescale: w.num, SampleDelta: w.den}
	if err := mp4mux.WriteFile(w.path, stream, cfg); err != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "finish", w.path, err))
	}
	w.logger.Info("mp4 written",
		slog.String("path", w.path),
		slog.String("stream_size", humanize.Bytes(uint64(len(stream)))),
		slog.Uint64("frames", uint64(w.Frames())),
	)
	w.finished()
	return nil
}

// abort stops the encoder after a failed write so the child does not linger.
func (w *Muxed) abort() {
	if w.session != nil {
		_, _ = w.session.Close()
		w.session = nil
	}
}

func checkDimensions(f *frame.RGBA, width, height uint32) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Width != width || f.Height != height {
		return fmt.Errorf("frame is %dx%d, prepared for %dx%d", f.Width, f.Height, width, height)
	}
	return nil
}

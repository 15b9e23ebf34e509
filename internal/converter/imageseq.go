package converter

import (
	"bufio"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"omvdecoder/internal/faults"
	"omvdecoder/internal/frame"
)

// ImageKind selects the still image codec for ImageSequence.
type ImageKind string

const (
	ImagePNG  ImageKind = "png"
	ImageJPEG ImageKind = "jpg"
)

// ImageSequence writes one numbered still image per frame next to the
// configured output path.
type ImageSequence struct {
	lifecycle

	output  string
	kind    ImageKind
	quality int
	width   uint32
	height  uint32
}

// NewImageSequence builds an image sequence writer for output.
func NewImageSequence(output string, kind ImageKind, opts Options) *ImageSequence {
	return &ImageSequence{
		lifecycle: newLifecycle("image sequence"),
		output:    output,
		kind:      kind,
		quality:   opts.jpegQuality(),
	}
}

// FramePath returns the file written for frame index. The final segment of
// the output path is replaced by frame_NNNN.<ext>.
func (w *ImageSequence) FramePath(index uint32) string {
	return filepath.Join(filepath.Dir(w.output), fmt.Sprintf("frame_%04d.%s", index, w.kind))
}

func (w *ImageSequence) Prepare(_ context.Context, width, height uint32, _ float64) error {
	if err := w.beginPrepare(); err != nil {
		return err
	}
	if err := ensureOutputDir(w.output); err != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "prepare", "create output directory "+w.output, err))
	}
	w.width, w.height = width, height
	w.prepared()
	return nil
}

// ensureOutputDir creates output as a directory unless something already
// exists there. Frames land beside it, so its parent exists either way.
func ensureOutputDir(output string) error {
	if _, err := os.Stat(output); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(output, 0o755)
}

func (w *ImageSequence) ConvertFrame(f *frame.RGBA, index uint32) error {
	if err := w.beginFrame(index); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return w.fail(faults.Wrap(faults.ErrDimensionMismatch, w.name, "convert frame", "", err))
	}
	path := w.FramePath(index)
	if err := w.writeImage(path, f); err != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "convert frame", path, err))
	}
	w.converted()
	return nil
}

func (w *ImageSequence) writeImage(path string, f *frame.RGBA) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	buffered := bufio.NewWriter(file)
	switch w.kind {
	case ImageJPEG:
		err = jpeg.Encode(buffered, f.NRGBA(), &jpeg.Options{Quality: w.quality})
	default:
		err = png.Encode(buffered, f.NRGBA())
	}
	if err == nil {
		err = buffered.Flush()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Finish has nothing to flush; each frame is complete on disk.
func (w *ImageSequence) Finish() error {
	if err := w.beginFinish(); err != nil {
		return err
	}
	w.finished()
	return nil
}

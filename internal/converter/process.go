package converter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	"omvdecoder/internal/encoder"
	"omvdecoder/internal/faults"
	"omvdecoder/internal/frame"
)

// Process pipes raw RGBA frames into an external ffmpeg that encodes them to
// H.264/YUV420 at the output path.
type Process struct {
	lifecycle

	output string
	binary string
	crf    int
	logger *slog.Logger
	stderr io.Writer

	cmd   *exec.Cmd
	stdin io.WriteCloser

	width  uint32
	height uint32
}

// NewProcess builds the piped ffmpeg writer. The child inherits stderr.
func NewProcess(output string, opts Options) *Process {
	return &Process{
		lifecycle: newLifecycle("ffmpeg"),
		output:    output,
		binary:    opts.ffmpeg(),
		crf:       opts.crf(),
		logger:    opts.logger(),
		stderr:    os.Stderr,
	}
}

// Args returns the ffmpeg arguments for the prepared stream.
func (w *Process) Args(width, height uint32, fps float64) []string {
	return []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", encoder.FormatRate(fps),
		"-i", "-",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-profile:v", "main",
		"-crf", strconv.Itoa(w.crf),
		w.output,
	}
}

func (w *Process) Prepare(ctx context.Context, width, height uint32, fps float64) error {
	if err := w.beginPrepare(); err != nil {
		return err
	}
	path, err := exec.LookPath(w.binary)
	if err != nil {
		return w.fail(faults.Wrap(faults.ErrToolingNotFound, w.name, "prepare", w.binary+" not found", err))
	}

	args := w.Args(width, height, fps)
	cmd := exec.CommandContext(ctx, path, args...) //nolint:gosec
	cmd.Stdout = nil
	cmd.Stderr = w.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return w.fail(faults.Wrap(faults.ErrSpawnFailure, w.name, "prepare", "stdin pipe", err))
	}
	if err := cmd.Start(); err != nil {
		return w.fail(faults.Wrap(faults.ErrSpawnFailure, w.name, "prepare", path, err))
	}
	w.logger.Debug("ffmpeg started",
		slog.String("binary", path),
		slog.Any("args", args),
		slog.Int("pid", cmd.Process.Pid),
	)
	w.cmd, w.stdin = cmd, stdin
	w.width, w.height = width, height
	w.prepared()
	return nil
}

func (w *Process) ConvertFrame(f *frame.RGBA, index uint32) error {
	if err := w.beginFrame(index); err != nil {
		return err
	}
	if err := checkDimensions(f, w.width, w.height); err != nil {
		return w.fail(faults.Wrap(faults.ErrDimensionMismatch, w.name, "convert frame", "", err))
	}
	if _, err := w.stdin.Write(f.Pix); err != nil {
		w.abort()
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "convert frame", fmt.Sprintf("frame %d", index), err))
	}
	w.converted()
	return nil
}

// Finish closes the child's input and waits for it to exit.
func (w *Process) Finish() error {
	if err := w.beginFinish(); err != nil {
		return err
	}
	closeErr := w.stdin.Close()
	waitErr := w.cmd.Wait()
	w.cmd, w.stdin = nil, nil
	if waitErr != nil {
		return w.fail(faults.FromWait("ffmpeg", waitErr))
	}
	if closeErr != nil {
		return w.fail(faults.Wrap(faults.ErrIO, w.name, "finish", "close input", closeErr))
	}
	w.finished()
	return nil
}

func (w *Process) abort() {
	if w.cmd == nil {
		return
	}
	_ = w.stdin.Close()
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	_ = w.cmd.Wait()
	w.cmd, w.stdin = nil, nil
}

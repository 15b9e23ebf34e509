package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"omvdecoder/internal/faults"
)

// Config describes the raw input handed to the encoder.
type Config struct {
	Binary string
	Width  uint32
	Height uint32
	FPS    float64
	CRF    int
}

// Args returns the ffmpeg argument list for cfg.
func (cfg Config) Args() []string {
	crf := cfg.CRF
	if crf <= 0 {
		crf = 18
	}
	return []string{
		"-hide_banner", "-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", FormatRate(cfg.FPS),
		"-i", "pipe:0",
		"-an",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-profile:v", "main",
		"-bf", "0",
		"-crf", strconv.Itoa(crf),
		"-f", "h264",
		"pipe:1",
	}
}

// FormatRate renders fps the way it is passed on the ffmpeg command line.
func FormatRate(fps float64) string {
	return strconv.FormatFloat(float64(float32(fps)), 'f', -1, 32)
}

// Session is a running encoder. The encoded stream is collected in memory
// until Close.
type Session struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	frameSize int

	stderr bytes.Buffer
	out    bytes.Buffer
	done   chan error

	closeOnce sync.Once
	result    []byte
	closeErr  error
}

// Start resolves the binary and launches the encoder.
func Start(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, faults.Wrap(faults.ErrDimensionMismatch, "h264 encoder", "start",
			fmt.Sprintf("invalid dimensions %dx%d", cfg.Width, cfg.Height), nil)
	}
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, faults.Wrap(faults.ErrToolingNotFound, "h264 encoder", "start", binary, err)
	}

	cmd := exec.CommandContext(ctx, path, cfg.Args()...) //nolint:gosec
	s := &Session{
		cmd:       cmd,
		frameSize: int(cfg.Width) * int(cfg.Height) * 3,
		done:      make(chan error, 1),
	}
	cmd.Stderr = &s.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, faults.Wrap(faults.ErrSpawnFailure, "h264 encoder", "stdin pipe", "", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, faults.Wrap(faults.ErrSpawnFailure, "h264 encoder", "stdout pipe", "", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, faults.Wrap(faults.ErrSpawnFailure, "h264 encoder", "start", path, err)
	}
	s.stdin = stdin
	go func() {
		_, copyErr := io.Copy(&s.out, stdout)
		s.done <- copyErr
	}()
	return s, nil
}

// WriteFrame feeds one packed RGB frame to the encoder.
func (s *Session) WriteFrame(rgb []byte) error {
	if len(rgb) != s.frameSize {
		return faults.Wrap(faults.ErrDimensionMismatch, "h264 encoder", "write frame",
			fmt.Sprintf("frame holds %d bytes, want %d", len(rgb), s.frameSize), nil)
	}
	if _, err := s.stdin.Write(rgb); err != nil {
		return faults.Wrap(faults.ErrIO, "h264 encoder", "write frame", "", err)
	}
	return nil
}

// Close signals end of input, waits for the encoder and returns the encoded
// stream. Later calls return the same result.
func (s *Session) Close() ([]byte, error) {
	s.closeOnce.Do(func() {
		closeErr := s.stdin.Close()
		copyErr := <-s.done
		waitErr := s.cmd.Wait()
		switch {
		case waitErr != nil:
			s.closeErr = faults.FromWait("ffmpeg", waitErr)
			if tail := s.stderrTail(); tail != "" {
				s.closeErr = fmt.Errorf("%w: %s", s.closeErr, tail)
			}
		case copyErr != nil:
			s.closeErr = faults.Wrap(faults.ErrIO, "h264 encoder", "collect output", "", copyErr)
		case closeErr != nil && !errors.Is(closeErr, io.ErrClosedPipe):
			s.closeErr = faults.Wrap(faults.ErrIO, "h264 encoder", "close input", "", closeErr)
		}
		s.result = s.out.Bytes()
	})
	return s.result, s.closeErr
}

// stderrTail is only safe once Wait has returned.
func (s *Session) stderrTail() string {
	text := strings.TrimSpace(s.stderr.String())
	if len(text) > 512 {
		text = text[len(text)-512:]
	}
	return text
}

package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"omvdecoder/internal/media/ffprobe"
)

// FFmpegEngine decodes through the ffmpeg command line tools. The source is
// probed with ffprobe, rewound, then streamed through ffmpeg which emits raw
// yuv444p frames: three stacked full-resolution planes per frame.
type FFmpegEngine struct {
	FFmpeg  string
	FFprobe string
}

// NewFFmpegEngine builds an engine using the given binaries. Empty values fall
// back to resolving "ffmpeg" and "ffprobe" from PATH.
func NewFFmpegEngine(ffmpegBinary, ffprobeBinary string) *FFmpegEngine {
	return &FFmpegEngine{FFmpeg: ffmpegBinary, FFprobe: ffprobeBinary}
}

func (e *FFmpegEngine) ffmpeg() string {
	if b := strings.TrimSpace(e.FFmpeg); b != "" {
		return b
	}
	return "ffmpeg"
}

// Open runs ffprobe over src and, when it carries a 4:4:4 video track, starts the
// decoder process.
func (e *FFmpegEngine) Open(ctx context.Context, src io.ReadSeeker) (Session, error) {
	result, err := ffprobe.InspectReader(ctx, e.FFprobe, src)
	if err != nil {
		return nil, err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind source: %w", err)
	}

	session := &ffmpegSession{}
	stream, ok := result.VideoStream()
	if !ok {
		return session, nil
	}
	session.hasVideo = true
	session.info = VideoInfo{
		Width:       uint32(max(stream.Width, 0)),
		Height:      uint32(max(stream.Height, 0)),
		FPS:         stream.FrameRate(),
		PixelFormat: pixelFormatFromName(stream.PixFmt),
	}
	if session.info.PixelFormat != PixelFormat444 || session.info.Width == 0 || session.info.Height == 0 {
		return session, nil
	}
	if err := session.start(ctx, e.ffmpeg(), src); err != nil {
		return nil, err
	}
	return session, nil
}

func pixelFormatFromName(name string) PixelFormat {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yuv444p", "yuvj444p":
		return PixelFormat444
	case "yuv422p", "yuvj422p":
		return PixelFormat422
	case "yuv420p", "yuvj420p":
		return PixelFormat420
	default:
		return PixelFormatUnknown
	}
}

type ffmpegSession struct {
	hasVideo bool
	info     VideoInfo

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	eos    bool
	waited bool
}

func (s *ffmpegSession) start(ctx context.Context, binary string, src io.Reader) error {
	cmd := exec.CommandContext(ctx, binary, //nolint:gosec
		"-hide_banner", "-v", "error",
		"-i", "pipe:0",
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "yuv444p",
		"pipe:1",
	)
	cmd.Stdin = src
	cmd.Stderr = &s.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg decoder: %w", err)
	}
	s.cmd = cmd
	s.stdout = stdout
	return nil
}

func (s *ffmpegSession) HasVideo() bool { return s.hasVideo }

func (s *ffmpegSession) VideoInfo() VideoInfo { return s.info }

func (s *ffmpegSession) frameSize() int {
	return int(s.info.Width) * int(s.info.Height) * 3
}

func (s *ffmpegSession) ReadFrame(dst []byte) (bool, error) {
	if s.eos {
		return false, nil
	}
	if s.cmd == nil {
		return false, errors.New("ffmpeg decoder not running")
	}
	size := s.frameSize()
	if len(dst) < size {
		return false, fmt.Errorf("ffmpeg decode: buffer holds %d bytes, frame needs %d", len(dst), size)
	}
	_, err := io.ReadFull(s.stdout, dst[:size])
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, io.EOF):
		s.eos = true
		return false, s.wait()
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.eos = true
		_ = s.wait()
		return false, fmt.Errorf("ffmpeg decode: truncated frame: %s", strings.TrimSpace(s.stderr.String()))
	default:
		return false, fmt.Errorf("ffmpeg decode: %w", err)
	}
}

func (s *ffmpegSession) wait() error {
	if s.cmd == nil || s.waited {
		return nil
	}
	s.waited = true
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg decode: %w: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	return nil
}

func (s *ffmpegSession) Close() error {
	if s.cmd == nil || s.waited {
		return nil
	}
	if !s.eos && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		s.waited = true
		_ = s.cmd.Wait()
		return nil
	}
	return s.wait()
}

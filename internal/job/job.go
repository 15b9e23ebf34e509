package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"omvdecoder/internal/config"
	"omvdecoder/internal/container"
	"omvdecoder/internal/converter"
	"omvdecoder/internal/decode"
	"omvdecoder/internal/deps"
	"omvdecoder/internal/faults"
	"omvdecoder/internal/frame"
	"omvdecoder/internal/logging"
)

// Options describes one conversion run.
type Options struct {
	Input  string
	Output string
	Format converter.Format

	// Config supplies tool paths and output settings. Nil means defaults.
	Config *config.Config
	Logger *slog.Logger

	// Engine overrides the ffmpeg decode engine and skips the ffmpeg/ffprobe
	// availability check.
	Engine decode.Engine
	// Stdout receives the PXY4M stream. Nil means os.Stdout.
	Stdout io.Writer
	// Progress receives the terminal progress bar. Nil means os.Stderr.
	Progress io.Writer
	// StartEncoder overrides the h264 encoder session.
	StartEncoder converter.EncoderStarter
}

// Result summarizes a completed run.
type Result struct {
	RunID    string
	Header   container.Header
	Stream   container.Range
	Video    decode.VideoInfo
	Opaque   bool
	Frames   uint32
	Duration time.Duration
}

// Run converts opts.Input into opts.Format. The first failure aborts the run;
// everything acquired so far is released before Run returns.
func Run(ctx context.Context, opts Options) (result Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(opts.Input) == "" {
		return Result{}, faults.Wrap(faults.ErrConfiguration, "job", "run", "input path required", nil)
	}
	if _, perr := converter.ParseFormat(string(opts.Format)); perr != nil {
		return Result{}, perr
	}
	cfg := opts.Config
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}

	result.RunID = uuid.NewString()
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "job"))
	started := time.Now()

	defer func() {
		result.Duration = time.Since(started)
		if err != nil {
			logging.ErrorWithContext(logger, "conversion failed", "conversion_failed",
				logging.String("input", opts.Input),
				logging.Uint64("frames", uint64(result.Frames)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, hintFor(err)),
			)
		}
	}()

	mapped, err := container.MapFile(opts.Input)
	if err != nil {
		return result, faults.Wrap(faults.ErrIO, "job", "open input", "", err)
	}
	defer closeLogged(logger, "unmap input", mapped.Close)
	data := mapped.Bytes()

	header, err := container.ParseHeader(data)
	if err != nil {
		return result, err
	}
	result.Header = header
	stream, err := container.Locate(data, container.Marker)
	if err != nil {
		return result, err
	}
	result.Stream = stream
	logger.Info("container parsed",
		logging.String("input", opts.Input),
		logging.String("version", header.Version()),
		logging.String("size", humanize.Bytes(uint64(len(data)))),
		logging.Int("stream_offset", stream.Start),
		logging.String("stream_size", humanize.Bytes(uint64(stream.Len()))),
		logging.Uint64("frame_count", uint64(header.Metadata.FrameCount)),
	)

	engine := opts.Engine
	if engine == nil {
		statuses := deps.CheckBinaries(deps.ToolRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
		if err := deps.RequireAll(statuses); err != nil {
			return result, err
		}
		engine = decode.NewFFmpegEngine(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}

	if cfg.Output.Lock && !opts.Format.WritesStdout() {
		lock, lerr := acquireOutputLock(opts.Output)
		if lerr != nil {
			return result, lerr
		}
		defer closeLogged(logger, "release output lock", lock.release)
	}

	conv, err := converter.New(opts.Format, opts.Output, converter.Options{
		FFmpegBinary: cfg.FFmpegBinary(),
		JPEGQuality:  cfg.Output.JPEGQuality,
		CRF:          cfg.Output.CRF,
		Stdout:       opts.Stdout,
		StartEncoder: opts.StartEncoder,
		Logger:       logger,
	})
	if err != nil {
		return result, err
	}

	adapter, err := decode.Open(ctx, engine, stream.Slice(data))
	if err != nil {
		return result, err
	}
	defer closeLogged(logger, "close decoder", adapter.Close)

	info := adapter.VideoInfo()
	result.Video = info
	result.Opaque = header.Metadata.Height == info.Height
	planes := 3
	if !result.Opaque {
		planes = 4
	}
	buf, err := frame.NewPlanar(info.Width, info.Height, planes)
	if err != nil {
		return result, faults.Wrap(faults.ErrDimensionMismatch, "job", "allocate frame", "", err)
	}
	defer buf.Release()
	if planes == 4 {
		buf.Fill(3, 0xFF)
	}
	logger.Info("decoder opened",
		logging.String("dimensions", fmt.Sprintf("%dx%d", info.Width, info.Height)),
		logging.Float64("fps", info.FPS),
		logging.Bool("opaque", result.Opaque),
		logging.String("format", string(opts.Format)),
	)

	if err := conv.Prepare(ctx, info.Width, info.Height, info.FPS); err != nil {
		return result, err
	}
	defer func() {
		if err != nil {
			converter.Abort(conv)
		}
	}()

	progressOut := opts.Progress
	if progressOut == nil {
		progressOut = os.Stderr
	}
	progress := newProgress(progressOut, cfg.Progress.Enabled, header.Metadata.FrameCount, logger)
	defer progress.Done()

	for {
		if cerr := ctx.Err(); cerr != nil {
			return result, faults.Wrap(faults.ErrIO, "job", "decode loop", "cancelled", cerr)
		}
		ok, perr := adapter.PullFrame(buf)
		if perr != nil {
			return result, perr
		}
		if !ok {
			break
		}
		rgba, cerr := frame.ToRGBA(buf, info.Width, info.Height, result.Opaque)
		if cerr != nil {
			return result, faults.Wrap(faults.ErrDimensionMismatch, "job", "convert colour", "", cerr)
		}
		if err := conv.ConvertFrame(rgba, result.Frames); err != nil {
			return result, err
		}
		result.Frames++
		progress.Advance(result.Frames)
	}

	if err := conv.Finish(); err != nil {
		return result, err
	}

	if want := header.Metadata.FrameCount; want != 0 && want != result.Frames {
		logging.WarnWithContext(logger, "decoded frame count differs from container metadata", "frame_count_mismatch",
			logging.Uint64("decoded", uint64(result.Frames)),
			logging.Uint64("expected", uint64(want)),
			logging.Bool(logging.FieldAlert, true),
			logging.String(logging.FieldImpact, "output contains every decoded frame"),
		)
	}
	logger.Info("conversion complete",
		logging.String(logging.FieldEventType, "conversion_complete"),
		logging.String("frames", humanize.Comma(int64(result.Frames))),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return result, nil
}

func closeLogged(logger *slog.Logger, what string, fn func() error) {
	if err := fn(); err != nil {
		logging.WarnWithContext(logger, what+" failed", "cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "resource may leak until process exit"),
		)
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, faults.ErrTruncatedHeader), errors.Is(err, faults.ErrMissingEmbeddedStream):
		return "input is not an OMV container"
	case errors.Is(err, faults.ErrToolingNotFound):
		return "install ffmpeg or set tools.ffmpeg in the config"
	case errors.Is(err, faults.ErrOutputLocked):
		return "wait for the other conversion or remove the stale lock file"
	case errors.Is(err, faults.ErrChildProcessExit):
		return "rerun with --log-level debug to see the tool output"
	case errors.Is(err, faults.ErrUnsupportedPixelFormat), errors.Is(err, faults.ErrNoVideoStream):
		return "embedded stream is not 4:4:4 Theora video"
	default:
		return "check logs for details"
	}
}

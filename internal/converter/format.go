package converter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"omvdecoder/internal/faults"
)

// Format selects an output strategy.
type Format string

const (
	FormatH264     Format = "h264"
	FormatPNG      Format = "png-picture"
	FormatJPEG     Format = "jpg-picture"
	FormatFFmpeg   Format = "ffmpeg"
	FormatPipedPNG Format = "piped-png"
)

const (
	defaultCRF         = 18
	defaultJPEGQuality = 90
)

// Formats lists every accepted format value in display order.
func Formats() []Format {
	return []Format{FormatH264, FormatPNG, FormatJPEG, FormatFFmpeg, FormatPipedPNG}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(value string) (Format, error) {
	candidate := Format(strings.ToLower(strings.TrimSpace(value)))
	for _, f := range Formats() {
		if candidate == f {
			return f, nil
		}
	}
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return "", faults.Wrap(faults.ErrConfiguration, "converter", "parse format",
		fmt.Sprintf("unknown format %q (want one of %s)", value, strings.Join(names, ", ")), nil)
}

// WritesStdout reports whether the format streams to standard output.
func (f Format) WritesStdout() bool {
	return f == FormatPipedPNG
}

// Options carries the knobs shared by the strategies.
type Options struct {
	// FFmpegBinary is used by the ffmpeg and h264 strategies. Empty means
	// "ffmpeg" resolved from PATH.
	FFmpegBinary string

	JPEGQuality int
	CRF         int

	// Stdout receives the PXY4M stream. Nil means os.Stdout.
	Stdout io.Writer

	// StartEncoder overrides how the h264 strategy starts its encoder.
	StartEncoder EncoderStarter

	Logger *slog.Logger
}

func (o Options) ffmpeg() string {
	if b := strings.TrimSpace(o.FFmpegBinary); b != "" {
		return b
	}
	return "ffmpeg"
}

func (o Options) crf() int {
	if o.CRF <= 0 {
		return defaultCRF
	}
	return o.CRF
}

func (o Options) jpegQuality() int {
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		return defaultJPEGQuality
	}
	return o.JPEGQuality
}

func (o Options) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// New builds the strategy for format writing to output.
func New(format Format, output string, opts Options) (Converter, error) {
	if strings.TrimSpace(output) == "" && !format.WritesStdout() {
		return nil, faults.Wrap(faults.ErrConfiguration, "converter", "new", "output path required", nil)
	}
	switch format {
	case FormatPNG:
		return NewImageSequence(output, ImagePNG, opts), nil
	case FormatJPEG:
		return NewImageSequence(output, ImageJPEG, opts), nil
	case FormatH264:
		return NewMuxed(output, opts), nil
	case FormatFFmpeg:
		return NewProcess(output, opts), nil
	case FormatPipedPNG:
		return NewStream(opts.stdout(), opts), nil
	default:
		_, err := ParseFormat(string(format))
		return nil, err
	}
}

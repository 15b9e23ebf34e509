package job

import (
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"omvdecoder/internal/logging"
)

// progressReporter is advanced once per converted frame.
type progressReporter interface {
	Advance(frames uint32)
	Done()
}

// newProgress draws a bar on terminals and falls back to sampled log lines
// everywhere else. total is the frame count advertised by the container and
// may be zero.
func newProgress(w io.Writer, enabled bool, total uint32, logger *slog.Logger) progressReporter {
	if enabled && isTerminal(w) {
		return newBarProgress(w, total)
	}
	return &logProgress{logger: logger, total: total, sampler: logging.NewProgressSampler(10)}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type barProgress struct {
	bar *progressbar.ProgressBar
}

func newBarProgress(w io.Writer, total uint32) *barProgress {
	limit := int64(total)
	if limit == 0 {
		limit = -1
	}
	bar := progressbar.NewOptions64(limit,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return &barProgress{bar: bar}
}

func (p *barProgress) Advance(uint32) {
	_ = p.bar.Add(1)
}

func (p *barProgress) Done() {
	_ = p.bar.Finish()
}

type logProgress struct {
	logger  *slog.Logger
	total   uint32
	sampler *logging.ProgressSampler
}

func (p *logProgress) percent(frames uint32) float64 {
	if p.total == 0 {
		return -1
	}
	pct := float64(frames) / float64(p.total) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (p *logProgress) Advance(frames uint32) {
	pct := p.percent(frames)
	if !p.sampler.ShouldLog(pct) {
		return
	}
	p.logger.Debug("conversion progress",
		logging.String(logging.FieldEventType, "progress"),
		logging.Float64(logging.FieldProgressPercent, pct),
		logging.String("frames", humanize.Comma(int64(frames))),
	)
}

func (p *logProgress) Done() {}

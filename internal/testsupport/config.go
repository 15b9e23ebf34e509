package testsupport

import (
	"testing"

	"omvdecoder/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a default config with progress output disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.Progress.Enabled = false

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithStubbedTools writes ffmpeg and ffprobe stubs with the given script
// bodies and configures them by absolute path.
func WithStubbedTools(ffmpegBody, ffprobeBody string) ConfigOption {
	return func(b *configBuilder) {
		b.t.Helper()
		b.cfg.Tools.FFmpeg = StubBinary(b.t, "ffmpeg", ffmpegBody)
		b.cfg.Tools.FFprobe = StubBinary(b.t, "ffprobe", ffprobeBody)
	}
}

// WithoutLock disables output locking.
func WithoutLock() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Lock = false
	}
}

package config

const (
	defaultConfigPath  = "~/.config/omvdecoder/config.toml"
	projectConfigName  = "omvdecoder.toml"
	defaultFFmpeg      = "ffmpeg"
	defaultFFprobe     = "ffprobe"
	defaultJPEGQuality = 90
	defaultCRF         = 18
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Output: Output{
			JPEGQuality: defaultJPEGQuality,
			CRF:         defaultCRF,
			Lock:        true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Progress: Progress{
			Enabled: true,
		},
	}
}

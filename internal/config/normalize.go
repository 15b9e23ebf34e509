package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	envFFmpeg  = "OMVDECODER_FFMPEG"
	envFFprobe = "OMVDECODER_FFPROBE"
)

func (c *Config) normalize() error {
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeTools() error {
	var err error
	if c.Tools.FFmpeg, err = normalizeTool(c.Tools.FFmpeg, envFFmpeg, defaultFFmpeg); err != nil {
		return fmt.Errorf("tools.ffmpeg: %w", err)
	}
	if c.Tools.FFprobe, err = normalizeTool(c.Tools.FFprobe, envFFprobe, defaultFFprobe); err != nil {
		return fmt.Errorf("tools.ffprobe: %w", err)
	}
	return nil
}

// normalizeTool applies the environment override, falls back to the default
// name, and expands values that look like paths.
func normalizeTool(value, envKey, fallback string) (string, error) {
	if env, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(env) != "" {
		value = env
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	if strings.ContainsAny(value, `/\`) || strings.HasPrefix(value, "~") {
		return expandPath(value)
	}
	return value, nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	}
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"omvdecoder/internal/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())
	t.Setenv("OMVDECODER_FFMPEG", "")
	t.Setenv("OMVDECODER_FFPROBE", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "omvdecoder", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected tools %+v", cfg.Tools)
	}
	if cfg.Output.JPEGQuality != 90 || cfg.Output.CRF != 18 || !cfg.Output.Lock {
		t.Fatalf("unexpected output defaults %+v", cfg.Output)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
	if !cfg.Progress.Enabled {
		t.Fatal("expected progress enabled by default")
	}
}

func TestLoadFileAndNormalize(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OMVDECODER_FFMPEG", "")
	t.Setenv("OMVDECODER_FFPROBE", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[tools]
ffmpeg = "~/bin/ffmpeg"
ffprobe = "  ffprobe-6  "

[output]
jpeg_quality = 70
crf = 23
lock = false

[logging]
format = "JSON"
level = "Warning"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %s to be used, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Tools.FFmpeg != filepath.Join(tempHome, "bin", "ffmpeg") {
		t.Fatalf("expected expanded ffmpeg path, got %q", cfg.Tools.FFmpeg)
	}
	if cfg.Tools.FFprobe != "ffprobe-6" {
		t.Fatalf("expected trimmed ffprobe name, got %q", cfg.Tools.FFprobe)
	}
	if cfg.Output.JPEGQuality != 70 || cfg.Output.CRF != 23 || cfg.Output.Lock {
		t.Fatalf("unexpected output %+v", cfg.Output)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "warn" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
	if !cfg.Progress.Enabled {
		t.Fatal("expected progress to keep its default")
	}
}

func TestEnvironmentOverridesTools(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OMVDECODER_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("OMVDECODER_FFPROBE", "ffprobe-git")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[tools]\nffmpeg = \"other\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FFmpegBinary() != "/opt/ffmpeg/bin/ffmpeg" || cfg.FFprobeBinary() != "ffprobe-git" {
		t.Fatalf("expected env overrides, got %+v", cfg.Tools)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cases := map[string]string{
		"jpeg quality": "[output]\njpeg_quality = 0\n",
		"crf":          "[output]\ncrf = 60\n",
		"log format":   "[logging]\nformat = \"xml\"\n",
		"log level":    "[logging]\nlevel = \"chatty\"\n",
		"unknown key":  "[output]\nbitrate = 5\n",
		"malformed":    "[output\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected error for %q", content)
			}
		})
	}
}

func TestProjectConfigIsFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "omvdecoder.toml"), []byte("[output]\ncrf = 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "omvdecoder.toml" || cfg.Output.CRF != 30 {
		t.Fatalf("expected project config, got %s exists=%v crf=%d", resolved, exists, cfg.Output.CRF)
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.Sample()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg != config.Default() {
		t.Fatalf("sample config drifted from defaults:\n got %+v\nwant %+v", cfg, config.Default())
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[tools]") {
		t.Fatalf("unexpected sample content %q", data)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/videos/../clips")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "clips") {
		t.Fatalf("unexpected expansion %q", got)
	}
}

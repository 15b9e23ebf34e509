package deps

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"omvdecoder/internal/faults"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Path != present {
		t.Fatalf("expected resolved path %q, got %q", present, results[0].Path)
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank status %#v", results[2])
	}
}

func TestToolRequirementsCarriesCommands(t *testing.T) {
	reqs := ToolRequirements("/opt/ffmpeg", "/opt/ffprobe")
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != "/opt/ffprobe" || reqs[1].Command != "/opt/ffmpeg" {
		t.Fatalf("unexpected commands %#v", reqs)
	}
	for _, req := range reqs {
		if req.Optional {
			t.Fatalf("%s should be required", req.Name)
		}
	}
}

func TestRequireAll(t *testing.T) {
	ok := []Status{{Name: "FFmpeg", Available: true}, {Name: "Extra", Optional: true}}
	if err := RequireAll(ok); err != nil {
		t.Fatalf("RequireAll returned error: %v", err)
	}

	missing := []Status{{Name: "FFprobe", Detail: `binary "ffprobe" not found`}}
	err := RequireAll(missing)
	if !errors.Is(err, faults.ErrToolingNotFound) {
		t.Fatalf("expected ErrToolingNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "FFprobe") {
		t.Fatalf("expected tool name in error, got %v", err)
	}
}

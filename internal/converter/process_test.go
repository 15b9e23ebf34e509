package converter

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"omvdecoder/internal/faults"
	"omvdecoder/internal/testsupport"
)

func newTestProcess(output string) *Process {
	p := NewProcess(output, Options{})
	p.stderr = io.Discard
	return p
}

func TestProcessPipesRawFrames(t *testing.T) {
	// The stub copies stdin to its final argument; it only exits once stdin
	// has been closed.
	testsupport.StubOnPath(t, "ffmpeg", "for last; do :; done\ncat > \"$last\"\n")
	out := filepath.Join(t.TempDir(), "out.mp4")

	p := newTestProcess(out)
	if err := p.Prepare(context.Background(), 2, 2, 24); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	for i := uint32(0); i < 3; i++ {
		if err := p.ConvertFrame(solidFrame(2, 2, [4]byte{byte(i), 0, 0, 255}), i); err != nil {
			t.Fatalf("ConvertFrame(%d) returned error: %v", i, err)
		}
	}
	if err := p.Finish(); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) != 3*2*2*4 {
		t.Fatalf("expected %d raw bytes, got %d", 3*2*2*4, len(data))
	}
	if data[2*2*4*2] != 2 {
		t.Fatalf("frames arrived out of order")
	}
}

func TestProcessArgs(t *testing.T) {
	p := NewProcess("movie.mp4", Options{})
	want := []string{
		"-y", "-f", "rawvideo", "-pix_fmt", "rgba", "-s", "640x480", "-r", "29.97",
		"-i", "-", "-c:v", "libx264", "-pix_fmt", "yuv420p", "-profile:v", "main",
		"-crf", "18", "movie.mp4",
	}
	got := p.Args(640, 480, 29.97)
	if len(got) != len(want) {
		t.Fatalf("Args = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Args[%d] = %q, want %q (%v)", i, got[i], want[i], got)
		}
	}
}

func TestProcessReportsExitCode(t *testing.T) {
	testsupport.StubOnPath(t, "ffmpeg", "cat > /dev/null\nexit 3\n")
	p := newTestProcess(filepath.Join(t.TempDir(), "out.mp4"))
	if err := p.Prepare(context.Background(), 1, 1, 24); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if err := p.ConvertFrame(solidFrame(1, 1, [4]byte{}), 0); err != nil {
		t.Fatalf("ConvertFrame returned error: %v", err)
	}
	err := p.Finish()
	if !errors.Is(err, faults.ErrChildProcessExit) {
		t.Fatalf("expected child exit failure, got %v", err)
	}
	if code, ok := faults.ExitCodeOf(err); !ok || code != 3 {
		t.Fatalf("expected exit code 3, got %d (ok=%v)", code, ok)
	}
}

func TestProcessMissingTool(t *testing.T) {
	testsupport.EmptyPath(t)
	p := newTestProcess(filepath.Join(t.TempDir(), "out.mp4"))
	if err := p.Prepare(context.Background(), 1, 1, 24); !errors.Is(err, faults.ErrToolingNotFound) {
		t.Fatalf("expected tooling not found, got %v", err)
	}
}

func TestProcessBrokenPipeIsIO(t *testing.T) {
	testsupport.StubOnPath(t, "ffmpeg", "exec 0<&-\nexit 0\n")
	p := newTestProcess(filepath.Join(t.TempDir(), "out.mp4"))
	if err := p.Prepare(context.Background(), 256, 256, 24); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	var err error
	for i := uint32(0); i < 64 && err == nil; i++ {
		err = p.ConvertFrame(solidFrame(256, 256, [4]byte{}), i)
	}
	if !errors.Is(err, faults.ErrIO) {
		t.Fatalf("expected io failure once the child is gone, got %v", err)
	}
}

func TestAbortStopsChildAndFailsConverter(t *testing.T) {
	testsupport.StubOnPath(t, "ffmpeg", "cat > /dev/null\n")

	p := newTestProcess(filepath.Join(t.TempDir(), "out.mp4"))
	if err := p.Prepare(context.Background(), 2, 2, 24); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	Abort(p)
	if p.State() != StateFailed {
		t.Fatalf("expected failed state, got %s", p.State())
	}
	if err := p.Finish(); !errors.Is(err, faults.ErrConverterFailed) {
		t.Fatalf("expected ErrConverterFailed after abort, got %v", err)
	}

	// Strategies without child processes ignore Abort.
	s := NewStream(io.Discard, Options{})
	Abort(s)
	if s.State() != StateUninitialized {
		t.Fatalf("expected stream untouched, got %s", s.State())
	}
}

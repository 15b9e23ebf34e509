package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// StubBinary writes an executable /bin/sh script called name into a fresh
// temp directory and returns its path.
func StubBinary(t testing.TB, name, body string) string {
	t.Helper()

	dir := t.TempDir()
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// StubOnPath writes a stub like StubBinary and prepends its directory to
// PATH for the rest of the test.
func StubOnPath(t testing.TB, name, body string) string {
	t.Helper()

	target := StubBinary(t, name, body)
	PrependPath(t, filepath.Dir(target))
	return target
}

// PrependPath puts dir in front of PATH until the test ends.
func PrependPath(t testing.TB, dir string) {
	t.Helper()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// EmptyPath points PATH at an empty directory so no tool resolves.
func EmptyPath(t testing.TB) {
	t.Helper()
	t.Setenv("PATH", t.TempDir())
}

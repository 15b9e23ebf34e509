package job

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"omvdecoder/internal/faults"
)

// outputLock guards an output path against concurrent runs.
type outputLock struct {
	path string
	lock *flock.Flock
}

func lockPath(output string) string {
	return output + ".lock"
}

func acquireOutputLock(output string) (*outputLock, error) {
	path := lockPath(output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrIO, "job", "lock output", "create output directory", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "job", "lock output", "", err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrOutputLocked, "job", "lock output",
			fmt.Sprintf("another conversion holds %s", path), nil)
	}
	return &outputLock{path: path, lock: lock}, nil
}

func (l *outputLock) release() error {
	if l == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release output lock: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove output lock: %w", err)
	}
	return nil
}

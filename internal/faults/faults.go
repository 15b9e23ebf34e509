package faults

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	ErrTruncatedHeader        = errors.New("truncated header")
	ErrMissingEmbeddedStream  = errors.New("missing embedded stream")
	ErrDecodeEngineOpen       = errors.New("decode engine open failure")
	ErrNoVideoStream          = errors.New("no video stream")
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
	ErrUnsupportedOrigin      = errors.New("unsupported seek origin")
	ErrToolingNotFound        = errors.New("tooling not found")
	ErrSpawnFailure           = errors.New("spawn failure")
	ErrPrepareBeforeUse       = errors.New("converter used before prepare")
	ErrInvalidState           = errors.New("invalid converter state")
	ErrFrameOrder             = errors.New("frame index out of order")
	ErrConverterFailed        = errors.New("converter failed")
	ErrDimensionMismatch      = errors.New("dimension mismatch")
	ErrChildProcessExit       = errors.New("child process exit failure")
	ErrIO                     = errors.New("io failure")
	ErrConfiguration          = errors.New("configuration error")
	ErrOutputLocked           = errors.New("output locked")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitError reports a child process that terminated with a non-zero status.
type ExitError struct {
	Tool string
	Code int
}

func (e *ExitError) Error() string {
	tool := strings.TrimSpace(e.Tool)
	if tool == "" {
		tool = "child process"
	}
	return fmt.Sprintf("%s: %s exited with code %d", ErrChildProcessExit, tool, e.Code)
}

// Is lets errors.Is(err, ErrChildProcessExit) match any ExitError.
func (e *ExitError) Is(target error) bool {
	return target == ErrChildProcessExit
}

// FromWait converts the error returned by exec.Cmd.Wait into an ExitError
// when the child ran and exited non-zero. Other failures are tagged ErrIO.
func FromWait(tool string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Tool: tool, Code: exitErr.ExitCode()}
	}
	return Wrap(ErrIO, tool, "wait", "", err)
}

// ExitCodeOf returns the child exit code carried by err, if any.
func ExitCodeOf(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// Process exit statuses used by the CLI.
const (
	ExitGeneric       = 1
	ExitConfiguration = 2
	ExitInput         = 3
	ExitDecode        = 4
	ExitTooling       = 5
	ExitOutput        = 6
)

// ExitCode maps a propagated failure to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrTruncatedHeader), errors.Is(err, ErrMissingEmbeddedStream):
		return ExitInput
	case errors.Is(err, ErrDecodeEngineOpen), errors.Is(err, ErrNoVideoStream),
		errors.Is(err, ErrUnsupportedPixelFormat), errors.Is(err, ErrUnsupportedOrigin):
		return ExitDecode
	case errors.Is(err, ErrToolingNotFound), errors.Is(err, ErrSpawnFailure),
		errors.Is(err, ErrChildProcessExit):
		return ExitTooling
	case errors.Is(err, ErrPrepareBeforeUse), errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrFrameOrder), errors.Is(err, ErrConverterFailed),
		errors.Is(err, ErrDimensionMismatch), errors.Is(err, ErrIO),
		errors.Is(err, ErrOutputLocked):
		return ExitOutput
	default:
		return ExitGeneric
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}

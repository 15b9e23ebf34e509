package converter

import (
	"context"
	"fmt"

	"omvdecoder/internal/faults"
	"omvdecoder/internal/frame"
)

// Converter consumes decoded frames for one output target.
type Converter interface {
	Prepare(ctx context.Context, width, height uint32, fps float64) error
	ConvertFrame(f *frame.RGBA, index uint32) error
	Finish() error
}

// State tracks where a converter is in its lifecycle.
type State int

const (
	StateUninitialized State = iota
	StatePrepared
	StateStreaming
	StateFinished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePrepared:
		return "prepared"
	case StateStreaming:
		return "streaming"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// lifecycle enforces call ordering for every strategy. Strategies call the
// begin* guard on entry, then either the matching completion method or fail.
type lifecycle struct {
	name    string
	state   State
	next    uint32
	failure error
}

func newLifecycle(name string) lifecycle {
	return lifecycle{name: name}
}

// State reports the current lifecycle state.
func (l *lifecycle) State() State {
	return l.state
}

func (l *lifecycle) failed(op string) error {
	return faults.Wrap(faults.ErrConverterFailed, l.name, op, "converter already failed", l.failure)
}

func (l *lifecycle) beginPrepare() error {
	switch l.state {
	case StateFailed:
		return l.failed("prepare")
	case StateUninitialized:
		return nil
	default:
		return l.fail(faults.Wrap(faults.ErrInvalidState, l.name, "prepare", "already prepared, state "+l.state.String(), nil))
	}
}

func (l *lifecycle) prepared() {
	l.state = StatePrepared
}

func (l *lifecycle) beginFrame(index uint32) error {
	switch l.state {
	case StateFailed:
		return l.failed("convert frame")
	case StateUninitialized:
		return l.fail(faults.Wrap(faults.ErrPrepareBeforeUse, l.name, "convert frame", "", nil))
	case StateFinished:
		return l.fail(faults.Wrap(faults.ErrInvalidState, l.name, "convert frame", "converter finished", nil))
	}
	if index != l.next {
		return l.fail(faults.Wrap(faults.ErrFrameOrder, l.name, "convert frame",
			fmt.Sprintf("got frame %d, want %d", index, l.next), nil))
	}
	return nil
}

func (l *lifecycle) converted() {
	l.state = StateStreaming
	l.next++
}

func (l *lifecycle) beginFinish() error {
	switch l.state {
	case StateFailed:
		return l.failed("finish")
	case StateUninitialized:
		return l.fail(faults.Wrap(faults.ErrPrepareBeforeUse, l.name, "finish", "", nil))
	case StateFinished:
		return l.fail(faults.Wrap(faults.ErrInvalidState, l.name, "finish", "already finished", nil))
	}
	return nil
}

func (l *lifecycle) finished() {
	l.state = StateFinished
}

// fail moves the lifecycle into the absorbing failed state and returns err.
func (l *lifecycle) fail(err error) error {
	if l.state != StateFailed {
		l.state = StateFailed
		l.failure = err
	}
	return err
}

// Frames returns how many frames have been accepted so far.
func (l *lifecycle) Frames() uint32 {
	return l.next
}

type aborter interface {
	abort()
	fail(err error) error
}

// Abort stops any child process held by c after the caller gave up on the
// run and moves c into the failed state. Converters holding no external
// resources are left untouched.
func Abort(c Converter) {
	a, ok := c.(aborter)
	if !ok {
		return
	}
	_ = a.fail(faults.Wrap(faults.ErrInvalidState, "converter", "abort", "run aborted", nil))
	a.abort()
}

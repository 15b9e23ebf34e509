package decode

import (
	"context"
	"fmt"

	"omvdecoder/internal/faults"
	"omvdecoder/internal/frame"
)

// Adapter owns one decode session over the embedded stream.
type Adapter struct {
	source  *Source
	session Session
	info    VideoInfo
	closed  bool
}

// Open starts engine over stream and validates the reported video track.
// Everything acquired is released again when validation fails.
func Open(ctx context.Context, engine Engine, stream []byte) (*Adapter, error) {
	if engine == nil {
		return nil, faults.Wrap(faults.ErrDecodeEngineOpen, "decode", "open", "no engine configured", nil)
	}
	src := NewSource(stream)
	session, err := engine.Open(ctx, src)
	if err != nil {
		_ = src.Close()
		return nil, faults.Wrap(faults.ErrDecodeEngineOpen, "decode", "open", "", err)
	}
	a := &Adapter{source: src, session: session}
	if !session.HasVideo() {
		_ = a.Close()
		return nil, faults.Wrap(faults.ErrNoVideoStream, "decode", "open", "engine reported no video track", nil)
	}
	info := session.VideoInfo()
	if info.PixelFormat != PixelFormat444 {
		_ = a.Close()
		return nil, faults.Wrap(faults.ErrUnsupportedPixelFormat, "decode", "open",
			fmt.Sprintf("got %s, want %s", info.PixelFormat, PixelFormat444), nil)
	}
	if info.Width == 0 || info.Height == 0 {
		_ = a.Close()
		return nil, faults.Wrap(faults.ErrDecodeEngineOpen, "decode", "open",
			fmt.Sprintf("invalid video dimensions %dx%d", info.Width, info.Height), nil)
	}
	if info.FPS <= 0 {
		_ = a.Close()
		return nil, faults.Wrap(faults.ErrDecodeEngineOpen, "decode", "open",
			fmt.Sprintf("invalid frame rate %g", info.FPS), nil)
	}
	a.info = info
	return a, nil
}

// VideoInfo returns the validated stream description.
func (a *Adapter) VideoInfo() VideoInfo {
	return a.info
}

// PullFrame decodes the next frame into buf. It returns false at end of stream.
func (a *Adapter) PullFrame(buf *frame.Planar) (bool, error) {
	if a.closed {
		return false, faults.Wrap(faults.ErrIO, "decode", "pull frame", "adapter closed", nil)
	}
	if buf == nil || buf.Released() {
		return false, faults.Wrap(faults.ErrIO, "decode", "pull frame", "frame buffer released", nil)
	}
	ok, err := a.session.ReadFrame(buf.Bytes())
	if err != nil {
		return false, faults.Wrap(faults.ErrIO, "decode", "pull frame", "", err)
	}
	return ok, nil
}

// Close closes the engine session and the source. It is safe to call more
// than once; only the first call reaches the engine.
func (a *Adapter) Close() error {
	if a == nil || a.closed {
		return nil
	}
	a.closed = true
	var err error
	if a.session != nil {
		err = a.session.Close()
	}
	_ = a.source.Close()
	return err
}

package decode

import (
	"context"
	"io"
)

// PixelFormat identifies the planar layout reported by the engine.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormat420
	PixelFormat422
	PixelFormat444
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormat420:
		return "4:2:0"
	case PixelFormat422:
		return "4:2:2"
	case PixelFormat444:
		return "4:4:4"
	default:
		return "unknown"
	}
}

// VideoInfo is the stream description reported by an engine session.
type VideoInfo struct {
	Width       uint32
	Height      uint32
	FPS         float64
	PixelFormat PixelFormat
}

// Engine opens decode sessions over a seekable source.
type Engine interface {
	Open(ctx context.Context, src io.ReadSeeker) (Session, error)
}

// Session is one opened decode engine handle.
type Session interface {
	HasVideo() bool
	VideoInfo() VideoInfo
	// ReadFrame decodes the next frame into dst. It returns false once the
	// engine signals end of stream.
	ReadFrame(dst []byte) (bool, error)
	Close() error
}

package frame

import (
	"fmt"
	"image"
)

// RGBA is an interleaved, non-premultiplied 8-bit RGBA raster.
type RGBA struct {
	Width  uint32
	Height uint32
	Pix    []byte
}

// NewRGBA allocates a zeroed raster.
func NewRGBA(width, height uint32) *RGBA {
	return &RGBA{
		Width:  width,
		Height: height,
		Pix:    make([]byte, int(width)*int(height)*4),
	}
}

// Validate checks that Pix matches the declared dimensions.
func (f *RGBA) Validate() error {
	if f == nil {
		return fmt.Errorf("rgba frame: nil frame")
	}
	if want := int(f.Width) * int(f.Height) * 4; len(f.Pix) != want {
		return fmt.Errorf("rgba frame: %dx%d needs %d bytes, have %d", f.Width, f.Height, want, len(f.Pix))
	}
	return nil
}

// NRGBA wraps the pixels as an image without copying.
func (f *RGBA) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    f.Pix,
		Stride: int(f.Width) * 4,
		Rect:   image.Rect(0, 0, int(f.Width), int(f.Height)),
	}
}

// RGB returns the pixels with alpha stripped.
func (f *RGBA) RGB() []byte {
	out := make([]byte, 0, int(f.Width)*int(f.Height)*3)
	for i := 0; i+3 < len(f.Pix); i += 4 {
		out = append(out, f.Pix[i], f.Pix[i+1], f.Pix[i+2])
	}
	return out
}

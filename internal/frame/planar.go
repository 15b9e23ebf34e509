package frame

import (
	"fmt"
	"unsafe"
)

// Alignment is the byte alignment of the planar buffer start.
const Alignment = 1024

// Planar is an aligned, reusable buffer of stacked width*height planes.
type Planar struct {
	backing   []byte
	data      []byte
	planeSize int
	planes    int
}

// NewPlanar allocates a buffer holding planes stacked planes of width*height
// bytes, aligned to Alignment.
func NewPlanar(width, height uint32, planes int) (*Planar, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("planar buffer: invalid dimensions %dx%d", width, height)
	}
	if planes <= 0 {
		return nil, fmt.Errorf("planar buffer: invalid plane count %d", planes)
	}
	planeSize := int(width) * int(height)
	size := planeSize * planes
	backing := make([]byte, size+Alignment)
	offset := 0
	if rem := int(uintptr(unsafe.Pointer(&backing[0])) % Alignment); rem != 0 {
		offset = Alignment - rem
	}
	return &Planar{
		backing:   backing,
		data:      backing[offset : offset+size : offset+size],
		planeSize: planeSize,
		planes:    planes,
	}, nil
}

// Bytes exposes the whole buffer for the decode engine to fill.
func (p *Planar) Bytes() []byte {
	if p == nil {
		return nil
	}
	return p.data
}

// Planes returns the number of stacked planes.
func (p *Planar) Planes() int {
	if p == nil {
		return 0
	}
	return p.planes
}

// PlaneSize returns the byte length of one plane.
func (p *Planar) PlaneSize() int {
	if p == nil {
		return 0
	}
	return p.planeSize
}

// Plane returns plane k. The second result is false when k lies outside the
// buffer.
func (p *Planar) Plane(k int) ([]byte, bool) {
	if p == nil || p.data == nil || k < 0 || k >= p.planes {
		return nil, false
	}
	start := k * p.planeSize
	return p.data[start : start+p.planeSize], true
}

// Fill sets every byte of plane k to v.
func (p *Planar) Fill(k int, v byte) bool {
	plane, ok := p.Plane(k)
	if !ok {
		return false
	}
	for i := range plane {
		plane[i] = v
	}
	return true
}

// Release drops the buffer. It is safe to call more than once.
func (p *Planar) Release() {
	if p == nil {
		return
	}
	p.backing = nil
	p.data = nil
}

// Released reports whether Release has been called.
func (p *Planar) Released() bool {
	return p == nil || p.data == nil
}

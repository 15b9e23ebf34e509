package frame

import "fmt"

// ToRGBA interleaves a decoded planar frame. Planes 0, 1 and 2 carry the B, G
// and R channels. When opaque is false, alpha rows are read from sub-plane 1,
// 2 or 3 depending on which third of the frame the row falls in, with the
// thirds split at (height+2)/3 and (height+2)/3*2.
func ToRGBA(p *Planar, width, height uint32, opaque bool) (*RGBA, error) {
	if p == nil || p.Released() {
		return nil, fmt.Errorf("to rgba: planar buffer released")
	}
	w, h := int(width), int(height)
	if w*h != p.PlaneSize() {
		return nil, fmt.Errorf("to rgba: frame %dx%d does not match plane size %d", w, h, p.PlaneSize())
	}
	need := 3
	if !opaque {
		need = 4
	}
	if p.Planes() < need {
		return nil, fmt.Errorf("to rgba: need %d planes, buffer has %d", need, p.Planes())
	}

	bPlane, _ := p.Plane(0)
	gPlane, _ := p.Plane(1)
	rPlane, _ := p.Plane(2)
	var alpha [3][]byte
	if !opaque {
		for k := 1; k <= 3; k++ {
			alpha[k-1], _ = p.Plane(k)
		}
	}

	firstThird := (h + 2) / 3
	secondThird := (h + 2) / 3 * 2

	out := NewRGBA(width, height)
	dst := out.Pix
	for y := 0; y < h; y++ {
		row := y * w
		var aPlane []byte
		if !opaque {
			switch {
			case y < firstThird:
				aPlane = alpha[0]
			case y < secondThird:
				aPlane = alpha[1]
			default:
				aPlane = alpha[2]
			}
		}
		for x := 0; x < w; x++ {
			src := row + x
			o := src * 4
			dst[o] = rPlane[src]
			dst[o+1] = gPlane[src]
			dst[o+2] = bPlane[src]
			if opaque {
				dst[o+3] = 0xFF
			} else {
				dst[o+3] = aPlane[src]
			}
		}
	}
	return out, nil
}

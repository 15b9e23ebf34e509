package converter

import "math"

// FrameRateRational reduces fps to the num/den pair carried by the PXY4M
// header. Rates within 1e-6 of an integer become n/1; anything else is
// rounded to thousandths and reduced. Arithmetic is single precision so
// the result matches existing readers bit for bit.
func FrameRateRational(fps float64) (num, den uint32) {
	f := float32(fps)
	if f <= 0 || math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return 0, 1
	}
	rounded := float32(math.Round(float64(f)))
	if float32(math.Abs(float64(f-rounded))) < 1e-6 {
		return uint32(rounded), 1
	}
	const scale = 1000
	num = uint32(math.Round(float64(f * scale)))
	den = scale
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return max(a, 1)
}

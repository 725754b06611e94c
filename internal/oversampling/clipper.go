package oversampling

// ClipLevel is the hard clipper threshold.
const ClipLevel = 2.0 / 3.0

// HardClip limits x to [-ClipLevel, ClipLevel].
func HardClip(x float64) float64 {
	if x > ClipLevel {
		return ClipLevel
	}
	if x < -ClipLevel {
		return -ClipLevel
	}
	return x
}

// Clipper is the memoryless hard clipper as a Nonlinearity.
type Clipper struct{}

// ProcessBlock clips src into dst, which may alias it.
func (Clipper) ProcessBlock(dst, src []float64) {
	if len(src) == 0 {
		return
	}
	_ = dst[len(src)-1] // bounds check hint
	for i, x := range src {
		dst[i] = HardClip(x)
	}
}

// Reset is a no-op; the clipper has no state.
func (Clipper) Reset() {}

package filter

import (
	"fmt"

	"github.com/tphakala/go-tape-hysteresis/internal/simdops"
)

// FIR is a direct-form causal FIR filter:
//
//	y[n] = Σ_{k=0}^{N-1} h[k]·x[n-k]
//
// History before the first sample is treated as zero and persists across
// calls, so a signal may be filtered in arbitrary block sizes.
type FIR struct {
	rev   []float64 // time-reversed coefficients
	delay delayLine
	ops   *simdops.Ops
}

// NewFIR creates a direct-form filter. The coefficients are copied.
// A nil ops selects the SIMD kernels.
func NewFIR(coeffs []float64, ops *simdops.Ops) (*FIR, error) {
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("FIR filter needs at least one coefficient")
	}
	if ops == nil {
		ops = simdops.SIMD()
	}

	return &FIR{
		rev:   reversed(coeffs),
		delay: newDelayLine(len(coeffs)),
		ops:   ops,
	}, nil
}

// ProcessSample filters one sample.
func (f *FIR) ProcessSample(x float64) float64 {
	window := f.delay.push(x)
	return f.ops.Dot(f.rev, window)
}

// ProcessBlock filters src into dst. dst must be at least as long as src and
// may alias it.
func (f *FIR) ProcessBlock(dst, src []float64) {
	if len(src) == 0 {
		return
	}
	_ = dst[len(src)-1] // bounds check hint
	for i, x := range src {
		dst[i] = f.ProcessSample(x)
	}
}

// Reset clears the delay line.
func (f *FIR) Reset() {
	f.delay.reset()
}

// Taps returns the filter length.
func (f *FIR) Taps() int {
	return len(f.rev)
}

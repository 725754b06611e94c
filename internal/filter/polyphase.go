package filter

import (
	"fmt"

	"github.com/tphakala/go-tape-hysteresis/internal/simdops"
)

// Interpolator filters a zero-stuffed signal without materializing the zeros.
//
// Upsampling by L inserts L-1 zeros after every input sample, so of the N
// products in each output of the direct form only those whose coefficient index
// k ≡ m (mod L) meet a non-zero sample. Output phase m therefore needs only the
// sub-filter h_m[t] = h[m + t·L] applied to the base-rate input:
//
//	y[i·L + m] = Σ_t h[m + t·L]·x[i - t]
//
// which matches FIR(h) on the zero-stuffed signal to rounding error at about
// 1/L of the cost.
type Interpolator struct {
	factor int
	phases [][]float64 // time-reversed sub-filters, padded to tapsPerPhase
	delay  delayLine
	ops    *simdops.Ops
}

// NewInterpolator decomposes coeffs into factor sub-filters.
// A nil ops selects the SIMD kernels.
func NewInterpolator(coeffs []float64, factor int, ops *simdops.Ops) (*Interpolator, error) {
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("interpolator needs at least one coefficient")
	}
	if factor < 1 {
		return nil, fmt.Errorf("interpolation factor %d must be at least 1", factor)
	}
	if ops == nil {
		ops = simdops.SIMD()
	}

	tapsPerPhase := (len(coeffs) + factor - 1) / factor
	phases := make([][]float64, factor)
	for m := range factor {
		sub := make([]float64, tapsPerPhase)
		for t := range tapsPerPhase {
			if k := m + t*factor; k < len(coeffs) {
				sub[t] = coeffs[k]
			}
		}
		phases[m] = reversed(sub)
	}

	return &Interpolator{
		factor: factor,
		phases: phases,
		delay:  newDelayLine(tapsPerPhase),
		ops:    ops,
	}, nil
}

// Process upsamples and filters src into dst, which must hold
// len(src)*Factor() samples. dst must not alias src.
func (p *Interpolator) Process(dst, src []float64) {
	if len(src) == 0 {
		return
	}
	_ = dst[len(src)*p.factor-1] // bounds check hint

	out := 0
	for _, x := range src {
		window := p.delay.push(x)
		for _, sub := range p.phases {
			dst[out] = p.ops.Dot(sub, window)
			out++
		}
	}
}

// Reset clears the input history.
func (p *Interpolator) Reset() {
	p.delay.reset()
}

// Factor returns the interpolation factor.
func (p *Interpolator) Factor() int {
	return p.factor
}

// TapsPerPhase returns the length of each sub-filter.
func (p *Interpolator) TapsPerPhase() int {
	return p.delay.n
}

// Decimator lowpass filters an oversampled signal and keeps every factor-th
// output, evaluating the convolution only at the kept positions:
//
//	y[i] = (1/M)·Σ_k h[k]·v[i·M - k]
//
// The 1/M scaling undoes the DC gain M that the shared table carries for the
// interpolator. Every input still enters the delay line, so the decimation
// phase stays continuous across calls.
type Decimator struct {
	factor int
	rev    []float64 // time-reversed, pre-scaled coefficients
	delay  delayLine
	phase  int
	ops    *simdops.Ops
}

// NewDecimator creates a decimator for coeffs and factor.
// A nil ops selects the SIMD kernels.
func NewDecimator(coeffs []float64, factor int, ops *simdops.Ops) (*Decimator, error) {
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("decimator needs at least one coefficient")
	}
	if factor < 1 {
		return nil, fmt.Errorf("decimation factor %d must be at least 1", factor)
	}
	if ops == nil {
		ops = simdops.SIMD()
	}

	scaled := make([]float64, len(coeffs))
	ops.Scale(scaled, coeffs, 1/float64(factor))

	return &Decimator{
		factor: factor,
		rev:    reversed(scaled),
		delay:  newDelayLine(len(coeffs)),
		ops:    ops,
	}, nil
}

// Process filters src and writes the decimated samples to dst, returning how
// many were written. dst needs room for ceil(len(src)/Factor()) samples.
func (d *Decimator) Process(dst, src []float64) int {
	n := 0
	for _, v := range src {
		window := d.delay.push(v)
		if d.phase == 0 {
			dst[n] = d.ops.Dot(d.rev, window)
			n++
		}
		d.phase++
		if d.phase == d.factor {
			d.phase = 0
		}
	}
	return n
}

// Reset clears the history and the decimation phase.
func (d *Decimator) Reset() {
	d.delay.reset()
	d.phase = 0
}

// Factor returns the decimation factor.
func (d *Decimator) Factor() int {
	return d.factor
}

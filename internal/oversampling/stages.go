package oversampling

import (
	"github.com/tphakala/go-tape-hysteresis/internal/filter"
	"github.com/tphakala/go-tape-hysteresis/internal/simdops"
)

type polyphaseUp struct{ *filter.Interpolator }

func (s polyphaseUp) upsample(dst, src []float64) { s.Process(dst, src) }
func (s polyphaseUp) reset()                      { s.Reset() }

type polyphaseDown struct{ *filter.Decimator }

func (s polyphaseDown) downsample(dst, src []float64) int { return s.Process(dst, src) }
func (s polyphaseDown) reset()                            { s.Reset() }

func newPolyphaseStages(coeffs []float64, factor int, ops *simdops.Ops) (upsampler, downsampler, error) {
	interp, err := filter.NewInterpolator(coeffs, factor, ops)
	if err != nil {
		return nil, nil, err
	}
	dec, err := filter.NewDecimator(coeffs, factor, ops)
	if err != nil {
		return nil, nil, err
	}
	return polyphaseUp{interp}, polyphaseDown{dec}, nil
}

// directUp zero-stuffs and then filters the whole oversampled block.
type directUp struct {
	fir    *filter.FIR
	factor int
}

func (s directUp) upsample(dst, src []float64) {
	Upsample(dst, src, s.factor)
	buf := dst[:len(src)*s.factor]
	s.fir.ProcessBlock(buf, buf)
}

func (s directUp) reset() { s.fir.Reset() }

// directDown filters every oversampled sample in place, then keeps every
// factor-th. The table is scaled by 1/factor so the passband gain returns to
// unity.
type directDown struct {
	fir    *filter.FIR
	factor int
}

func (s directDown) downsample(dst, src []float64) int {
	s.fir.ProcessBlock(src, src)
	return Downsample(dst, src, s.factor)
}

func (s directDown) reset() { s.fir.Reset() }

func newDirectStages(coeffs []float64, factor int, ops *simdops.Ops) (upsampler, downsampler, error) {
	if ops == nil {
		ops = simdops.SIMD()
	}

	up, err := filter.NewFIR(coeffs, ops)
	if err != nil {
		return nil, nil, err
	}

	scaled := make([]float64, len(coeffs))
	ops.Scale(scaled, coeffs, 1/float64(factor))
	down, err := filter.NewFIR(scaled, ops)
	if err != nil {
		return nil, nil, err
	}

	return directUp{fir: up, factor: factor}, directDown{fir: down, factor: factor}, nil
}

// Package hysteresis implements the Jiles-Atherton magnetic hysteresis model
// used for tape saturation. The magnetization ODE is integrated once per
// sample with a fixed-step fourth-order Runge-Kutta scheme, driven by a
// trapezoidal differentiator of the input field.
package hysteresis

import (
	"fmt"
	"math"
)

// Model is a single-channel hysteresis processor. Its integration state
// persists across calls so that block boundaries are seamless. A Model must
// not be shared between goroutines.
type Model struct {
	params     Params
	coeffs     coefficients
	t          float64
	makeup     float64
	polynomial *Polynomial

	diff Differentiator

	// Integration state: previous magnetization, field and field derivative.
	m  float64
	h  float64
	hd float64

	degeneracies uint64
	onDegenerate func()
}

// Option configures a Model.
type Option func(*Model) error

// WithMakeup enables output normalization with the given polynomial. A nil
// polynomial selects the bundled one.
func WithMakeup(poly *Polynomial) Option {
	return func(m *Model) error {
		if poly == nil {
			poly = DefaultPolynomial()
		}
		m.polynomial = poly
		return nil
	}
}

// WithDegeneracyHandler registers fn to be called whenever the integration
// degenerates and is reset. fn runs on the processing goroutine.
func WithDegeneracyHandler(fn func()) Option {
	return func(m *Model) error {
		m.onDegenerate = fn
		return nil
	}
}

// NewModel creates a model running at sampleRate.
func NewModel(sampleRate float64, params Params, opts ...Option) (*Model, error) {
	if !(sampleRate > 0) || !isFinite(sampleRate) {
		return nil, fmt.Errorf("sample rate %v must be positive", sampleRate)
	}

	m := &Model{
		t:    1 / sampleRate,
		diff: NewDifferentiator(sampleRate),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if err := m.SetParams(params); err != nil {
		return nil, err
	}
	return m, nil
}

// SetParams validates params and replaces the derived coefficients and
// makeup gain in one step. Integration state is kept, so call it between
// blocks rather than mid-block. On error the previous parameters stay in force.
func (m *Model) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	makeup := 1.0
	if m.polynomial != nil {
		g, err := m.polynomial.Gain(params)
		if err != nil {
			return err
		}
		makeup = g
	}

	m.params = params
	m.coeffs = derive(params)
	m.makeup = makeup
	return nil
}

// Process consumes one field sample H[n] and returns M[n]·makeup.
func (m *Model) Process(h float64) float64 {
	hd := m.diff.Differentiate(h)
	mag := m.rk4(h, hd)

	if !isFinite(mag) || mag > MaxMagnetization || mag < -MaxMagnetization {
		m.degenerate(h)
		return 0
	}

	m.m = mag
	m.h = h
	m.hd = hd
	return mag * m.makeup
}

// ProcessBlock runs Process over src, writing to dst. dst must be at least as
// long as src and may alias it.
func (m *Model) ProcessBlock(dst, src []float64) {
	if len(src) == 0 {
		return
	}
	_ = dst[len(src)-1] // bounds check hint
	for i, h := range src {
		dst[i] = m.Process(h)
	}
}

// Reset clears the magnetization history and the differentiator.
func (m *Model) Reset() {
	m.m, m.h, m.hd = 0, 0, 0
	m.diff.Reset()
}

// Params returns the current controls.
func (m *Model) Params() Params {
	return m.params
}

// MakeupGain returns the constant output gain (1 when makeup is disabled).
func (m *Model) MakeupGain() float64 {
	return m.makeup
}

// SaturationMagnetization returns M_s, the bound the magnetization
// approaches for large fields.
func (m *Model) SaturationMagnetization() float64 {
	return m.coeffs.ms
}

// Degeneracies returns how many steps were reset since construction.
func (m *Model) Degeneracies() uint64 {
	return m.degeneracies
}

// degenerate restarts the recurrence after a non-finite or runaway step.
// Any non-finite history is cleared too, otherwise one bad sample would
// poison every following step.
func (m *Model) degenerate(h float64) {
	m.m = 0
	m.hd = 0
	m.h = h
	if !isFinite(h) {
		m.h = 0
	}
	if !m.diff.finite() {
		m.diff.Reset()
	}

	m.degeneracies++
	if m.onDegenerate != nil {
		m.onDegenerate()
	}
}

// rk4 advances M from the stored state to the current field sample.
// H and H' at the half step are the average of the neighboring samples,
// since the continuous field between samples is unknown.
func (m *Model) rk4(h, hd float64) float64 {
	hMid := rk4Half * (h + m.h)
	hdMid := rk4Half * (hd + m.hd)

	k1 := m.t * m.dmdt(m.m, m.h, m.hd)
	k2 := m.t * m.dmdt(m.m+rk4Half*k1, hMid, hdMid)
	k3 := m.t * m.dmdt(m.m+rk4Half*k2, hMid, hdMid)
	k4 := m.t * m.dmdt(m.m+k3, h, hd)

	return m.m + rk4Sixth*k1 + rk4Third*k2 + rk4Third*k3 + rk4Sixth*k4
}

// dmdt is the Jiles-Atherton magnetization ODE dM/dt = f(M, H, H').
func (m *Model) dmdt(mag, h, hd float64) float64 {
	c := m.coeffs.c

	q := (h + Alpha*mag) / m.coeffs.a
	mDiff := m.coeffs.ms*Langevin(q) - mag

	// H' == 0 counts as decreasing.
	deltaS := -1.0
	if hd > 0 {
		deltaS = 1.0
	}

	// Irreversible term only when the field pushes M toward the anhysteretic curve.
	deltaM := 0.0
	if (deltaS > 0) == !math.Signbit(mDiff) {
		deltaM = 1.0
	}

	lPrime := LangevinDerivative(q)

	cDiff := 1 - c
	term1 := (cDiff * deltaM * mDiff / (cDiff*deltaS*K - Alpha*mDiff)) * hd
	term2 := c * m.coeffs.msOverA * hd * lPrime
	denom := 1 - c*Alpha*m.coeffs.msOverA*lPrime

	return (term1 + term2) / denom
}

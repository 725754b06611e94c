package hysteresis

import (
	"fmt"

	"github.com/tphakala/go-tape-hysteresis/internal/simdops"
)

// Polynomial is the cubic makeup-gain model in (drive, saturation, width).
// It is immutable once built and safe to share between models.
type Polynomial struct {
	weights [NumFeatures]float64
	bias    float64
	dot     func(a, b []float64) float64
}

// NewPolynomial builds a polynomial from NumCoefficients values: the
// NumFeatures weights in Features order, then the bias.
func NewPolynomial(coeffs []float64) (*Polynomial, error) {
	if len(coeffs) != NumCoefficients {
		return nil, fmt.Errorf("makeup polynomial needs %d coefficients, got %d", NumCoefficients, len(coeffs))
	}
	p := &Polynomial{dot: simdops.SIMD().Dot}
	for i, c := range coeffs {
		if !isFinite(c) {
			return nil, fmt.Errorf("makeup coefficient %d is not finite", i)
		}
	}
	copy(p.weights[:], coeffs[:NumFeatures])
	p.bias = coeffs[NumFeatures]
	return p, nil
}

var defaultPolynomial = func() *Polynomial {
	p, err := NewPolynomial(defaultMakeupCoefficients[:])
	if err != nil {
		panic(err)
	}
	return p
}()

// DefaultPolynomial returns the bundled polynomial fitted by cmd/fit-makeup.
func DefaultPolynomial() *Polynomial {
	return defaultPolynomial
}

// DefaultCoefficients returns a copy of the bundled coefficient table.
func DefaultCoefficients() []float64 {
	out := make([]float64, NumCoefficients)
	copy(out, defaultMakeupCoefficients[:])
	return out
}

// Features returns the monomials of v = (drive, saturation, width, 1): all
// products v_i·v_j with i ≤ j, then all v_i·v_j·v_k with i ≤ j ≤ k.
func Features(drive, saturation, width float64) [NumFeatures]float64 {
	v := [polynomialInputs]float64{drive, saturation, width, 1}
	var f [NumFeatures]float64
	n := 0
	for i := range polynomialInputs {
		for j := i; j < polynomialInputs; j++ {
			f[n] = v[i] * v[j]
			n++
		}
	}
	for i := range polynomialInputs {
		for j := i; j < polynomialInputs; j++ {
			for k := j; k < polynomialInputs; k++ {
				f[n] = v[i] * v[j] * v[k]
				n++
			}
		}
	}
	return f
}

// Eval returns Σ w_i·φ_i + bias for the given controls.
func (p *Polynomial) Eval(drive, saturation, width float64) float64 {
	f := Features(drive, saturation, width)
	return p.dot(p.weights[:], f[:]) + p.bias
}

// Gain evaluates the polynomial for params and rejects results that cannot
// be used as an output gain.
func (p *Polynomial) Gain(params Params) (float64, error) {
	g := p.Eval(params.Drive, params.Saturation, params.Width)
	if !isFinite(g) || g <= 0 {
		return 0, fmt.Errorf("makeup gain %v at drive=%v saturation=%v width=%v must be positive",
			g, params.Drive, params.Saturation, params.Width)
	}
	return g, nil
}

// Coefficients returns a copy of the weights followed by the bias.
func (p *Polynomial) Coefficients() []float64 {
	out := make([]float64, NumCoefficients)
	copy(out, p.weights[:])
	out[NumFeatures] = p.bias
	return out
}

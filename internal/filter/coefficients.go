// Package filter provides the fixed-coefficient FIR filters used around the
// tape nonlinearity: a direct-form convolution, a polyphase interpolator that
// skips the zero-stuffed inputs, and a polyphase decimator that only computes
// the samples that survive decimation.
package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-tape-hysteresis/internal/simdops"
)

// ErrNoTable indicates that no coefficient table is bundled for a factor.
var ErrNoTable = errors.New("no bundled coefficient table")

// Factors lists the oversampling factors with a bundled table.
func Factors() []int {
	return []int{factor2, factor4}
}

// Table returns a copy of the bundled lowpass for the given oversampling
// factor, normalized so that its DC gain equals the factor. With that gain
// every polyphase branch of the interpolator passes DC at unity.
func Table(factor int) ([]float64, error) {
	switch factor {
	case factor2:
		return Normalize(halfband2[:], factor2)
	case factor4:
		return Normalize(lowpass4[:], factor4)
	default:
		return nil, fmt.Errorf("%w for factor %d", ErrNoTable, factor)
	}
}

// Normalize returns a copy of coeffs scaled so that their sum equals gain.
func Normalize(coeffs []float64, gain float64) ([]float64, error) {
	ops := simdops.SIMD()

	sum := ops.Sum(coeffs)
	if math.Abs(sum) < minNormalizableSum {
		return nil, fmt.Errorf("coefficient sum %g is too small to normalize", sum)
	}

	out := make([]float64, len(coeffs))
	ops.Scale(out, coeffs, gain/sum)
	return out, nil
}

// ValidateTable checks that coeffs is usable as a linear-phase lowpass:
// non-empty, odd length, finite and symmetric.
func ValidateTable(coeffs []float64) error {
	n := len(coeffs)
	if n < minTableTaps || n > maxTableTaps {
		return fmt.Errorf("coefficient table length %d out of range [%d, %d]", n, minTableTaps, maxTableTaps)
	}
	if n%2 == 0 {
		return fmt.Errorf("coefficient table length %d must be odd", n)
	}

	for i, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}

	for i := range n / 2 {
		j := n - 1 - i
		if math.Abs(coeffs[i]-coeffs[j]) > symmetryTolerance {
			return fmt.Errorf("coefficient table not symmetric at %d/%d: %g != %g", i, j, coeffs[i], coeffs[j])
		}
	}

	return nil
}

// GroupDelay returns the delay of a linear-phase table in samples at the
// rate it runs at.
func GroupDelay(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}
	return float64(len(coeffs)-1) / groupDelayDivisor
}

// PhaseGains returns the DC gain of each polyphase branch of coeffs when it
// is split for the given factor.
func PhaseGains(coeffs []float64, factor int) []float64 {
	gains := make([]float64, factor)
	for k, c := range coeffs {
		gains[k%factor] += c
	}
	return gains
}

func reversed(coeffs []float64) []float64 {
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[len(coeffs)-1-i] = c
	}
	return out
}

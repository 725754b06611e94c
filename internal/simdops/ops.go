// Package simdops provides the float64 vector kernels used by the FIR filters.
//
// The SIMD set delegates to github.com/tphakala/simd. The scalar set is a plain
// Go reference with identical semantics, selectable for verification or for
// platforms where bit-exact reproducibility across CPUs matters more than speed.
package simdops

import (
	"github.com/tphakala/simd/cpu"
	"github.com/tphakala/simd/f64"
)

// Ops bundles the kernels a filter needs. Function pointers let the filters
// switch implementations once at construction instead of branching per sample.
type Ops struct {
	// Dot computes Σ a[i]·b[i]. The slices must have equal length.
	Dot func(a, b []float64) float64

	// Sum returns the sum of all elements.
	Sum func(a []float64) float64

	// Scale multiplies each element by s: dst[i] = a[i] * s.
	Scale func(dst, a []float64, s float64)
}

var (
	simdOps = Ops{
		Dot:   f64.DotProductUnsafe,
		Sum:   f64.Sum,
		Scale: f64.Scale,
	}
	scalarOps = Ops{
		Dot:   dotScalar,
		Sum:   sumScalar,
		Scale: scaleScalar,
	}
)

// SIMD returns the accelerated kernels.
func SIMD() *Ops {
	return &simdOps
}

// Scalar returns the pure Go kernels.
func Scalar() *Ops {
	return &scalarOps
}

// Select returns Scalar when disableSIMD is set and SIMD otherwise.
func Select(disableSIMD bool) *Ops {
	if disableSIMD {
		return &scalarOps
	}
	return &simdOps
}

// Info describes the vector extensions detected on this CPU.
func Info() string {
	return cpu.Info()
}

func dotScalar(a, b []float64) float64 {
	var sum float64
	for i, v := range a {
		sum += v * b[i]
	}
	return sum
}

func sumScalar(a []float64) float64 {
	var sum float64
	for _, v := range a {
		sum += v
	}
	return sum
}

func scaleScalar(dst, a []float64, s float64) {
	for i, v := range a {
		dst[i] = v * s
	}
}

package testutil

import (
	"math"
	"math/rand/v2"
)

// Sine returns n samples of amp·sin(2π·freq·i/sampleRate).
func Sine(freq, sampleRate, amp float64, n int) []float64 {
	return DelayedSine(freq, sampleRate, amp, 0, n)
}

// DelayedSine returns a sine delayed by a possibly fractional number of
// samples. Samples before the delay are still evaluated analytically, which
// suits comparisons against a filter output after its transient has passed.
func DelayedSine(freq, sampleRate, amp, delay float64, n int) []float64 {
	out := make([]float64, n)
	w := 2 * math.Pi * freq / sampleRate
	for i := range out {
		out[i] = amp * math.Sin(w*(float64(i)-delay))
	}
	return out
}

// Noise returns n uniformly distributed samples in [-amp, amp) from a fixed
// seed, so failures are reproducible.
func Noise(seed uint64, amp float64, n int) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * (2*rng.Float64() - 1)
	}
	return out
}

// Negate returns -s.
func Negate(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = -v
	}
	return out
}

// ZeroStuff inserts factor-1 zeros after every sample of s.
func ZeroStuff(s []float64, factor int) []float64 {
	out := make([]float64, len(s)*factor)
	for i, v := range s {
		out[i*factor] = v
	}
	return out
}

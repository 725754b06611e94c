// Package analysis measures processed signals: peaks, zero crossings,
// windowed power spectra, harmonic levels and the share of energy that
// lands outside the harmonic series (aliasing).
package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// ErrEmptySignal is returned when a measurement needs at least one sample.
var ErrEmptySignal = errors.New("analysis: empty signal")

const (
	dbPower     = 10
	dbAmplitude = 20
	minPower    = 1e-300
	// DefaultGuardBins is the half-width, in bins, of the region around each
	// harmonic that Hann leakage is allowed to occupy.
	DefaultGuardBins = 3
)

// Peak returns max |x[i]|, or 0 for an empty slice.
func Peak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Max(floats.Max(x), -floats.Min(x))
}

// FallingZeroCrossings returns the fractional sample positions where x goes
// from positive to non-positive, linearly interpolated between samples.
func FallingZeroCrossings(x []float64) []float64 {
	var out []float64
	for i := 1; i < len(x); i++ {
		if x[i-1] > 0 && x[i] <= 0 {
			out = append(out, float64(i-1)+x[i-1]/(x[i-1]-x[i]))
		}
	}
	return out
}

// RisingZeroCrossings returns the fractional positions where x goes from
// negative to non-negative.
func RisingZeroCrossings(x []float64) []float64 {
	var out []float64
	for i := 1; i < len(x); i++ {
		if x[i-1] < 0 && x[i] >= 0 {
			out = append(out, float64(i-1)+x[i-1]/(x[i-1]-x[i]))
		}
	}
	return out
}

// PowerSpectrum returns |X[k]|² for k = 0..len(x)/2 of the Hann-windowed
// signal. x is not modified.
func PowerSpectrum(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptySignal
	}

	seq := window.Hann(append([]float64(nil), x...))
	coeffs := fourier.NewFFT(len(seq)).Coefficients(nil, seq)

	power := make([]float64, len(coeffs))
	for k, c := range coeffs {
		re, im := real(c), imag(c)
		power[k] = re*re + im*im
	}
	return power, nil
}

// Bin returns the spectrum bin nearest to freq for an n-point transform.
func Bin(freq, sampleRate float64, n int) int {
	return int(math.Round(freq * float64(n) / sampleRate))
}

// harmonicBins lists the bins within guard of each multiple of fundamental
// that lies below Nyquist.
func harmonicBins(fundamental, guard, bins int) map[int]bool {
	set := make(map[int]bool)
	if fundamental <= 0 {
		return set
	}
	for b := fundamental; b < bins; b += fundamental {
		for d := -guard; d <= guard; d++ {
			if k := b + d; k >= 0 && k < bins {
				set[k] = true
			}
		}
	}
	return set
}

// bandPower sums power over [center-guard, center+guard].
func bandPower(power []float64, center, guard int) float64 {
	lo := max(center-guard, 0)
	hi := min(center+guard, len(power)-1)
	if lo > hi {
		return 0
	}
	return floats.Sum(power[lo : hi+1])
}

// HarmonicLevels returns the level of harmonics 2..count+1 of fundamental
// relative to the fundamental, in dB. Harmonics above Nyquist are -Inf.
func HarmonicLevels(x []float64, sampleRate, fundamental float64, count int) ([]float64, error) {
	power, err := PowerSpectrum(x)
	if err != nil {
		return nil, err
	}

	f0 := Bin(fundamental, sampleRate, len(x))
	ref := math.Max(bandPower(power, f0, DefaultGuardBins), minPower)

	levels := make([]float64, count)
	for h := range count {
		b := (h + 2) * f0
		if b >= len(power) {
			levels[h] = math.Inf(-1)
			continue
		}
		p := math.Max(bandPower(power, b, DefaultGuardBins), minPower)
		levels[h] = dbPower * math.Log10(p/ref)
	}
	return levels, nil
}

// THD returns the total harmonic distortion of x as the amplitude ratio
// sqrt(Σ P_harmonics / P_fundamental), using harmonics below Nyquist.
func THD(x []float64, sampleRate, fundamental float64) (float64, error) {
	power, err := PowerSpectrum(x)
	if err != nil {
		return 0, err
	}

	f0 := Bin(fundamental, sampleRate, len(x))
	ref := bandPower(power, f0, DefaultGuardBins)
	if ref <= 0 {
		return 0, nil
	}

	var harm float64
	for b := 2 * f0; b < len(power); b += f0 {
		harm += bandPower(power, b, DefaultGuardBins)
	}
	return math.Sqrt(harm / ref), nil
}

// AliasingRatio returns, in dB, the power outside the guarded harmonic bins
// of fundamentalBin relative to the total power. Products of a nonlinearity
// that fold back from above Nyquist land between the harmonics, so lower is
// cleaner.
func AliasingRatio(x []float64, fundamentalBin, guard int) (float64, error) {
	power, err := PowerSpectrum(x)
	if err != nil {
		return 0, err
	}

	harm := harmonicBins(fundamentalBin, guard, len(power))
	var total, alias float64
	for k, p := range power {
		total += p
		if !harm[k] {
			alias += p
		}
	}
	if total <= 0 {
		return math.Inf(-1), nil
	}
	return dbPower * math.Log10(math.Max(alias, minPower)/total), nil
}

// ToDB converts an amplitude ratio to decibels.
func ToDB(ratio float64) float64 {
	return dbAmplitude * math.Log10(math.Max(ratio, minPower))
}

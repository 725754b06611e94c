package filter

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Response holds the magnitude response of a filter sampled on a uniform grid
// from DC to Nyquist.
type Response struct {
	// Frequencies are normalized to the filter's own rate (0 to 0.5 cycles/sample).
	Frequencies []float64

	// Magnitude is the linear magnitude |H(f)|.
	Magnitude []float64
}

// FrequencyResponse evaluates |H(f)| at numPoints+1 frequencies from DC to
// Nyquist inclusive, using a zero-padded real FFT of the coefficients.
func FrequencyResponse(coeffs []float64, numPoints int) Response {
	if numPoints <= 0 {
		numPoints = defaultResponsePoints
	}

	// The FFT grid must be at least as long as the filter; grow it in steps of
	// the requested resolution so the bins stay on the same grid.
	fftSize := fftSizeMultiplier * numPoints
	for fftSize < len(coeffs) {
		fftSize += fftSizeMultiplier * numPoints
	}

	padded := make([]float64, fftSize)
	copy(padded, coeffs)

	fft := fourier.NewFFT(fftSize)
	spectrum := fft.Coefficients(nil, padded)

	step := fftSize / (fftSizeMultiplier * numPoints)
	resp := Response{
		Frequencies: make([]float64, numPoints+1),
		Magnitude:   make([]float64, numPoints+1),
	}
	for k := range numPoints + 1 {
		bin := k * step
		resp.Frequencies[k] = float64(bin) / float64(fftSize)
		resp.Magnitude[k] = cmplx.Abs(spectrum[bin])
	}

	return resp
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}

// StopbandAttenuation returns the smallest attenuation in dB, relative to the
// DC gain, over frequencies at or above edge (cycles/sample).
func StopbandAttenuation(coeffs []float64, edge float64, numPoints int) float64 {
	resp := FrequencyResponse(coeffs, numPoints)
	dc := resp.Magnitude[0]

	worst := math.Inf(1)
	for k, f := range resp.Frequencies {
		if f < edge {
			continue
		}
		worst = math.Min(worst, MagnitudeDB(dc)-MagnitudeDB(resp.Magnitude[k]))
	}
	return worst
}

// PassbandRipple returns the largest deviation in dB from the DC gain over
// frequencies at or below edge (cycles/sample).
func PassbandRipple(coeffs []float64, edge float64, numPoints int) float64 {
	resp := FrequencyResponse(coeffs, numPoints)
	dc := resp.Magnitude[0]

	var ripple float64
	for k, f := range resp.Frequencies {
		if f > edge {
			break
		}
		ripple = math.Max(ripple, math.Abs(MagnitudeDB(resp.Magnitude[k])-MagnitudeDB(dc)))
	}
	return ripple
}

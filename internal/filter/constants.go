package filter

const (
	// Bundled oversampling factors.
	factor2 = 2
	factor4 = 4

	// Coefficient table validation
	minTableTaps       = 1
	maxTableTaps       = 8191
	symmetryTolerance  = 1e-9
	minNormalizableSum = 1e-12

	// Frequency response evaluation
	defaultResponsePoints = 2048
	fftSizeMultiplier     = 2

	// Decibel conversion
	minMagnitude = 1e-12 // Avoid log(0)
	dbMultiplier = 20.0  // 20*log10 for magnitude

	// Linear-phase group delay divisor
	groupDelayDivisor = 2
)

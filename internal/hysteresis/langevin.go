package hysteresis

import "math"

// Langevin returns L(x) = coth(x) - 1/x, the anhysteretic magnetization
// curve. Near zero the closed form cancels catastrophically, so |x| ≤ 1e-4
// uses the first series term x/3.
func Langevin(x float64) float64 {
	if math.Abs(x) > langevinThreshold {
		return 1/math.Tanh(x) - 1/x
	}
	return x * langevinSlope
}

// LangevinDerivative returns L'(x) = 1/x² - coth²(x) + 1, or 1/3 for
// |x| ≤ 1e-4.
func LangevinDerivative(x float64) float64 {
	if math.Abs(x) > langevinThreshold {
		coth := 1 / math.Tanh(x)
		return 1/(x*x) - coth*coth + 1
	}
	return langevinSlope
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

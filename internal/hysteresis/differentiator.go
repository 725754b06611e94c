package hysteresis

// Differentiator estimates the time derivative of a sampled signal with a
// damped trapezoidal rule:
//
//	x'[n] = ((1+β)/T)·(x[n] - x[n-1]) - β·x'[n-1]
type Differentiator struct {
	t      float64 // sample period
	gain   float64 // (1+β)/T
	xPrev  float64
	xdPrev float64
}

// NewDifferentiator creates a differentiator for the given sample rate.
func NewDifferentiator(sampleRate float64) Differentiator {
	t := 1 / sampleRate
	return Differentiator{
		t:    t,
		gain: (1 + Beta) / t,
	}
}

// Differentiate consumes one sample and returns its derivative estimate.
func (d *Differentiator) Differentiate(x float64) float64 {
	xd := d.gain*(x-d.xPrev) - Beta*d.xdPrev
	d.xPrev = x
	d.xdPrev = xd
	return xd
}

// Reset clears the stored sample and derivative.
func (d *Differentiator) Reset() {
	d.xPrev = 0
	d.xdPrev = 0
}

// finite reports whether the recurrence state is usable.
func (d *Differentiator) finite() bool {
	return isFinite(d.xPrev) && isFinite(d.xdPrev)
}

package filter

// delayLine keeps the last n samples in a mirrored ring: every sample is
// written twice, n slots apart, so the most recent n samples are always
// available as one contiguous slice, oldest first. That lets the tap loop run
// as a single dot product against time-reversed coefficients without copying.
type delayLine struct {
	buf []float64
	n   int
	pos int
}

func newDelayLine(n int) delayLine {
	return delayLine{
		buf: make([]float64, 2*n),
		n:   n,
	}
}

// push stores x and returns the window of the last n samples ending at x.
// The slice aliases internal storage and is valid until the next push.
func (d *delayLine) push(x float64) []float64 {
	d.buf[d.pos] = x
	d.buf[d.pos+d.n] = x
	d.pos++
	if d.pos == d.n {
		d.pos = 0
	}
	return d.buf[d.pos : d.pos+d.n]
}

func (d *delayLine) reset() {
	clear(d.buf)
	d.pos = 0
}

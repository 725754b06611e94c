package oversampling

// Upsample writes src to every factor-th position of dst and zeros the rest.
// dst must hold len(src)*factor samples.
func Upsample(dst, src []float64, factor int) {
	n := len(src) * factor
	if n == 0 {
		return
	}
	clear(dst[:n])
	for i, x := range src {
		dst[i*factor] = x
	}
}

// Downsample keeps samples 0, factor, 2·factor, … of src, truncating a
// trailing partial group, and returns how many were written to dst.
func Downsample(dst, src []float64, factor int) int {
	n := len(src) / factor
	for i := range n {
		dst[i] = src[i*factor]
	}
	return n
}

package tape

import "fmt"

// SaturateMono is a one-shot helper: it builds a mono processor with the
// given controls, 4x oversampling and makeup gain, and processes input.
// The output is delayed by the filter latency (32.5 samples).
func SaturateMono(input []float64, sampleRate, drive, saturation, width float64) ([]float64, error) {
	cfg := DefaultConfig()
	cfg.SampleRate = sampleRate
	cfg.Drive = drive
	cfg.Saturation = saturation
	cfg.Width = width

	p, err := New(&cfg)
	if err != nil {
		return nil, err
	}
	return p.Process(input)
}

// SaturateMonoFloat32 is the float32 equivalent of SaturateMono.
func SaturateMonoFloat32(input []float32, sampleRate, drive, saturation, width float64) ([]float32, error) {
	cfg := DefaultConfig()
	cfg.SampleRate = sampleRate
	cfg.Drive = drive
	cfg.Saturation = saturation
	cfg.Width = width

	p, err := New(&cfg)
	if err != nil {
		return nil, err
	}
	return p.ProcessFloat32(input)
}

// SaturateMulti is a one-shot helper for planar multi-channel audio. A nil
// config uses DefaultConfig; the channel count is taken from input when the
// config leaves it at 0 and must match otherwise.
func SaturateMulti(input [][]float64, config *Config) ([][]float64, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.Channels == 0 || config == nil {
		cfg.Channels = len(input)
	}
	if cfg.Channels != len(input) {
		return nil, fmt.Errorf("%w: config has %d channels, input has %d", ErrChannelMismatch, cfg.Channels, len(input))
	}

	p, err := New(&cfg)
	if err != nil {
		return nil, err
	}
	return p.ProcessMulti(input)
}

// InterleaveToStereo converts two mono channels to interleaved stereo.
// Output format: [L0, R0, L1, R1, L2, R2, ...]
func InterleaveToStereo(left, right []float64) []float64 {
	return Interleave([][]float64{left, right})
}

// DeinterleaveFromStereo converts interleaved stereo to two mono channels.
func DeinterleaveFromStereo(interleaved []float64) (left, right []float64) {
	planar := Deinterleave(interleaved, stereoChannels)
	return planar[0], planar[1]
}

// Interleave converts planar channels to one interleaved slice. Channels
// are truncated to the shortest one.
func Interleave(planar [][]float64) []float64 {
	if len(planar) == 0 {
		return []float64{}
	}

	frames := len(planar[0])
	for _, ch := range planar[1:] {
		frames = min(frames, len(ch))
	}

	n := len(planar)
	result := make([]float64, frames*n)
	for c, ch := range planar {
		for i := range frames {
			result[i*n+c] = ch[i]
		}
	}
	return result
}

// Deinterleave splits interleaved samples into channels planar slices.
// A trailing partial frame is dropped.
func Deinterleave(interleaved []float64, channels int) [][]float64 {
	if channels < 1 {
		return nil
	}

	frames := len(interleaved) / channels
	planar := make([][]float64, channels)
	for c := range planar {
		planar[c] = make([]float64, frames)
		for i := range frames {
			planar[c][i] = interleaved[i*channels+c]
		}
	}
	return planar
}

package tape

import (
	"testing"
)

// BenchmarkProcessMultiSequential benchmarks sequential multi-channel processing.
func BenchmarkProcessMultiSequential(b *testing.B) {
	benchmarkProcessMulti(b, false)
}

// BenchmarkProcessMultiParallel benchmarks parallel multi-channel processing.
func BenchmarkProcessMultiParallel(b *testing.B) {
	benchmarkProcessMulti(b, true)
}

func benchmarkProcessMulti(b *testing.B, parallel bool) {
	b.Helper()

	const (
		channels   = 2     // Stereo
		numSamples = 48000 // 1 second of audio
	)

	config := DefaultConfig()
	config.Channels = channels
	config.EnableParallel = parallel

	processor, err := New(&config)
	if err != nil {
		b.Fatalf("Failed to create processor: %v", err)
	}

	input := rampInput(channels, numSamples)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		if _, err := processor.ProcessMulti(input); err != nil {
			b.Fatalf("ProcessMulti failed: %v", err)
		}
	}
}

// BenchmarkProcessMultiChannels benchmarks parallel processing with varying channel counts.
func BenchmarkProcessMultiChannels(b *testing.B) {
	channelCounts := []int{1, 2, 4, 6, 8}

	for _, channels := range channelCounts {
		b.Run(channelName(channels), func(b *testing.B) {
			const numSamples = 48000 // 1 second of audio

			config := DefaultConfig()
			config.Channels = channels
			config.EnableParallel = true

			processor, err := New(&config)
			if err != nil {
				b.Fatalf("Failed to create processor: %v", err)
			}

			input := rampInput(channels, numSamples)

			b.ResetTimer()
			b.ReportAllocs()

			for b.Loop() {
				if _, err := processor.ProcessMulti(input); err != nil {
					b.Fatalf("ProcessMulti failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkProcessInto measures the allocation-free mono path per filter mode.
func BenchmarkProcessInto(b *testing.B) {
	for _, mode := range []FilterMode{FilterPolyphase, FilterDirect} {
		b.Run(mode.String(), func(b *testing.B) {
			const blockSize = 512

			config := DefaultConfig()
			config.FilterMode = mode
			config.MaxBlockSize = blockSize

			processor, err := New(&config)
			if err != nil {
				b.Fatalf("Failed to create processor: %v", err)
			}

			src := rampInput(1, blockSize)[0]
			dst := make([]float64, blockSize)

			b.ResetTimer()
			b.ReportAllocs()

			for b.Loop() {
				if err := processor.ProcessInto(dst, src); err != nil {
					b.Fatalf("ProcessInto failed: %v", err)
				}
			}
		})
	}
}

// rampInput returns channels ramps from 0 to 1. A slow ramp keeps the
// hysteresis busy without saturating every block identically.
func rampInput(channels, numSamples int) [][]float64 {
	input := make([][]float64, channels)
	for ch := range channels {
		input[ch] = make([]float64, numSamples)
		for i := range numSamples {
			input[ch][i] = float64(i) / float64(numSamples)
		}
	}
	return input
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	case 4:
		return "Quad"
	case 6:
		return "5.1"
	case 8:
		return "7.1"
	default:
		return "Multi"
	}
}

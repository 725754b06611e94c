package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	tape "github.com/tphakala/go-tape-hysteresis"
)

// Sample format constants.
const (
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	wavFormatPCM = 1
)

// wavInput holds a validated input file.
type wavInput struct {
	file     *os.File
	decoder  *wav.Decoder
	rate     int
	channels int
	bitDepth int
	format   *audio.Format
}

// openWAVInput opens and validates a PCM WAV file.
func openWAVInput(path string) (*wavInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	if _, err := maxValue(bitDepth); err != nil {
		_ = f.Close()
		return nil, err
	}
	if format.NumChannels < 1 {
		_ = f.Close()
		return nil, fmt.Errorf("invalid channel count %d in %s", format.NumChannels, path)
	}

	return &wavInput{
		file:     f,
		decoder:  decoder,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: bitDepth,
		format:   format,
	}, nil
}

// Close closes the input file.
func (w *wavInput) Close() error {
	return w.file.Close()
}

// wavOutput wraps the output file and its encoder.
type wavOutput struct {
	file    *os.File
	encoder *wav.Encoder
}

// createWAVOutput creates the output file with a PCM encoder.
func createWAVOutput(path string, sampleRate, bitDepth, channels int) (*wavOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &wavOutput{
		file:    f,
		encoder: wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM),
	}, nil
}

// Write encodes one interleaved buffer.
func (w *wavOutput) Write(buf *audio.IntBuffer) error {
	if err := w.encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutput) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return w.file.Close()
}

// maxValue returns the full-scale integer value for a PCM bit depth.
func maxValue(bitDepth int) (float64, error) {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16, nil
	case bitsPerSample24:
		return maxInt24, nil
	case bitsPerSample32:
		return maxInt32, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth %d (want 16, 24 or 32)", bitDepth)
	}
}

// processBuffers holds the preallocated chunk buffers.
type processBuffers struct {
	in        *audio.IntBuffer
	out       *audio.IntBuffer
	channels  [][]float64
	views     [][]float64
	maxVal    float64
	invMaxVal float64
}

func newProcessBuffers(channels, bitDepth int, format *audio.Format) *processBuffers {
	maxVal, err := maxValue(bitDepth)
	if err != nil {
		maxVal = maxInt16
	}

	bufs := &processBuffers{
		in: &audio.IntBuffer{
			Data:           make([]int, bufferFrames*channels),
			Format:         format,
			SourceBitDepth: bitDepth,
		},
		out: &audio.IntBuffer{
			Data:           make([]int, bufferFrames*channels),
			Format:         format,
			SourceBitDepth: bitDepth,
		},
		channels:  make([][]float64, channels),
		views:     make([][]float64, channels),
		maxVal:    maxVal,
		invMaxVal: 1 / maxVal,
	}
	for ch := range channels {
		bufs.channels[ch] = make([]float64, bufferFrames)
	}
	return bufs
}

// deinterleaveInto converts interleaved integer samples into per-channel
// floats in [-1, 1].
func deinterleaveInto(data []int, channelBufs [][]float64, frames int, invMaxVal float64) {
	numChannels := len(channelBufs)
	if numChannels == 1 {
		buf := channelBufs[0]
		for i := range frames {
			buf[i] = float64(data[i]) * invMaxVal
		}
		return
	}

	for i := range frames {
		base := i * numChannels
		for ch := range numChannels {
			channelBufs[ch][i] = float64(data[base+ch]) * invMaxVal
		}
	}
}

// interleaveInto clamps frames [from, to) of channels to [-1, 1] and writes
// them interleaved to dst, returning the number of values written.
func interleaveInto(channels [][]float64, from, to int, dst []int, maxVal float64) int {
	numChannels := len(channels)
	n := 0
	for i := from; i < to; i++ {
		for ch := range numChannels {
			dst[n] = int(max(-1, min(1, channels[ch][i])) * maxVal)
			n++
		}
	}
	return n
}

// alignedSink processes chunks and drops the first skip output frames.
type alignedSink struct {
	out  *wavOutput
	bufs *processBuffers
	skip int
}

func (s *alignedSink) process(proc *tape.Processor, frames int) error {
	for ch, buf := range s.bufs.channels {
		s.bufs.views[ch] = buf[:frames]
	}
	processed, err := proc.ProcessMulti(s.bufs.views)
	if err != nil {
		return err
	}

	from := min(s.skip, frames)
	s.skip -= from
	if from == frames {
		return nil
	}

	n := interleaveInto(processed, from, frames, s.bufs.out.Data, s.bufs.maxVal)
	s.bufs.out.Data = s.bufs.out.Data[:n]
	err = s.out.Write(s.bufs.out)
	s.bufs.out.Data = s.bufs.out.Data[:cap(s.bufs.out.Data)]
	return err
}

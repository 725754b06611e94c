// Package oversampling runs a nonlinearity at an integer multiple of the base
// sample rate:
//
//	upsample → anti-image filter → nonlinearity → anti-alias filter → downsample
//
// Both filters use the same symmetric lowpass table. The polyphase mode fuses
// zero stuffing into the first filter and decimation into the second; the
// direct mode runs every stage literally and serves as the reference path.
package oversampling

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-tape-hysteresis/internal/filter"
	"github.com/tphakala/go-tape-hysteresis/internal/simdops"
)

// Nonlinearity is a block processor running at the oversampled rate.
// Implementations may keep state across calls; ProcessBlock must accept
// dst aliasing src.
type Nonlinearity interface {
	ProcessBlock(dst, src []float64)
	Reset()
}

// FilterMode selects how the two filters are evaluated.
type FilterMode int

const (
	// ModePolyphase computes only the samples that survive zero stuffing
	// and decimation.
	ModePolyphase FilterMode = iota

	// ModeDirect convolves the full oversampled signal.
	ModeDirect
)

// String returns the mode name.
func (m FilterMode) String() string {
	switch m {
	case ModePolyphase:
		return "polyphase"
	case ModeDirect:
		return "direct"
	default:
		return fmt.Sprintf("FilterMode(%d)", int(m))
	}
}

// ErrShortBuffer is returned when dst cannot hold the processed block.
var ErrShortBuffer = errors.New("oversampling: destination shorter than source")

// Config describes an oversampling pipeline.
type Config struct {
	// Factor is the oversampling ratio; 1 bypasses both filters.
	Factor int

	// Coefficients overrides the bundled table for Factor. It must be
	// odd-length and symmetric; it is rescaled to a DC sum of Factor.
	Coefficients []float64

	// Mode selects polyphase or direct filtering.
	Mode FilterMode

	// MaxBlockSize pre-allocates scratch space for blocks up to this many
	// base-rate samples. Larger blocks grow the scratch once.
	MaxBlockSize int

	// Ops selects the vector kernels; nil uses SIMD.
	Ops *simdops.Ops
}

// upsampler turns n base-rate samples into n·factor filtered samples.
type upsampler interface {
	upsample(dst, src []float64)
	reset()
}

// downsampler filters an oversampled block and returns the decimated count.
type downsampler interface {
	downsample(dst, src []float64) int
	reset()
}

// Processor is a single-channel oversampled nonlinearity. It owns its
// filter state and scratch buffer and must not be shared between goroutines.
type Processor struct {
	factor int
	taps   int
	mode   FilterMode
	up     upsampler
	down   downsampler
	nl     Nonlinearity
	buf    []float64
}

// New builds a processor around nl.
func New(cfg Config, nl Nonlinearity) (*Processor, error) {
	if nl == nil {
		return nil, fmt.Errorf("oversampling needs a nonlinearity")
	}
	if cfg.Factor < 1 {
		return nil, fmt.Errorf("oversampling factor %d must be at least 1", cfg.Factor)
	}
	if cfg.Mode != ModePolyphase && cfg.Mode != ModeDirect {
		return nil, fmt.Errorf("unknown filter mode %v", cfg.Mode)
	}
	if cfg.MaxBlockSize < 0 {
		return nil, fmt.Errorf("max block size %d must not be negative", cfg.MaxBlockSize)
	}

	p := &Processor{
		factor: cfg.Factor,
		mode:   cfg.Mode,
		nl:     nl,
	}
	if cfg.Factor == 1 {
		return p, nil
	}

	coeffs, err := resolveCoefficients(cfg)
	if err != nil {
		return nil, err
	}
	p.taps = len(coeffs)

	if cfg.Mode == ModeDirect {
		p.up, p.down, err = newDirectStages(coeffs, cfg.Factor, cfg.Ops)
	} else {
		p.up, p.down, err = newPolyphaseStages(coeffs, cfg.Factor, cfg.Ops)
	}
	if err != nil {
		return nil, err
	}

	p.buf = make([]float64, cfg.MaxBlockSize*cfg.Factor)
	return p, nil
}

func resolveCoefficients(cfg Config) ([]float64, error) {
	if cfg.Coefficients == nil {
		return filter.Table(cfg.Factor)
	}
	if err := filter.ValidateTable(cfg.Coefficients); err != nil {
		return nil, err
	}
	return filter.Normalize(cfg.Coefficients, float64(cfg.Factor))
}

// ProcessBlock runs src through the pipeline into dst, which needs at least
// len(src) samples and may alias src. Filter and nonlinearity state carry
// over to the next call.
func (p *Processor) ProcessBlock(dst, src []float64) error {
	if len(dst) < len(src) {
		return fmt.Errorf("%w: %d < %d", ErrShortBuffer, len(dst), len(src))
	}
	if len(src) == 0 {
		return nil
	}

	if p.factor == 1 {
		p.nl.ProcessBlock(dst, src)
		return nil
	}

	n := len(src) * p.factor
	if cap(p.buf) < n {
		p.buf = make([]float64, n)
	}
	buf := p.buf[:n]

	p.up.upsample(buf, src)
	p.nl.ProcessBlock(buf, buf)
	p.down.downsample(dst, buf)
	return nil
}

// Reset clears both filters and the nonlinearity.
func (p *Processor) Reset() {
	if p.up != nil {
		p.up.reset()
		p.down.reset()
	}
	p.nl.Reset()
}

// Latency returns the combined group delay of the two linear-phase filters
// in base-rate samples: (taps-1)/factor, or 0 when bypassed.
func (p *Processor) Latency() float64 {
	if p.factor == 1 {
		return 0
	}
	return float64(p.taps-1) / float64(p.factor)
}

// Factor returns the oversampling ratio.
func (p *Processor) Factor() int {
	return p.factor
}

// Taps returns the filter length, 0 when bypassed.
func (p *Processor) Taps() int {
	return p.taps
}

// Mode returns the filter mode.
func (p *Processor) Mode() FilterMode {
	return p.mode
}

// Nonlinearity returns the wrapped processor.
func (p *Processor) Nonlinearity() Nonlinearity {
	return p.nl
}

package tape

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-tape-hysteresis/internal/filter"
	"github.com/tphakala/go-tape-hysteresis/internal/hysteresis"
)

// Nonlinearity selects the processor that runs at the oversampled rate.
type Nonlinearity int

const (
	// NonlinearityHysteresis runs the Jiles-Atherton tape model.
	NonlinearityHysteresis Nonlinearity = iota

	// NonlinearityClipper runs a hard clipper at ±2/3, the reference case
	// for aliasing measurements.
	NonlinearityClipper
)

// String returns the nonlinearity name.
func (n Nonlinearity) String() string {
	switch n {
	case NonlinearityHysteresis:
		return "hysteresis"
	case NonlinearityClipper:
		return "clipper"
	default:
		return fmt.Sprintf("Nonlinearity(%d)", int(n))
	}
}

// FilterMode selects how the oversampling filters are evaluated.
type FilterMode int

const (
	// FilterPolyphase skips the zero-stuffed inputs and the discarded
	// decimation outputs. Use this unless comparing implementations.
	FilterPolyphase FilterMode = iota

	// FilterDirect convolves every oversampled sample. It produces the same
	// output to rounding error at roughly Oversampling times the cost.
	FilterDirect
)

// String returns the filter mode name.
func (m FilterMode) String() string {
	switch m {
	case FilterPolyphase:
		return "polyphase"
	case FilterDirect:
		return "direct"
	default:
		return fmt.Sprintf("FilterMode(%d)", int(m))
	}
}

// Config holds the tape processor configuration.
type Config struct {
	// SampleRate is the base sample rate of the audio in Hz.
	SampleRate float64

	// Drive scales the input into the magnetic field; in [0, 1].
	Drive float64

	// Saturation lowers the saturation level as it rises; in [0, 1].
	Saturation float64

	// Width widens the hysteresis loop; in [0, 1). Values above about 0.999
	// approach the model's singularity.
	Width float64

	// Oversampling is the integer oversampling factor. 1 disables the
	// filters; 2 and 4 have bundled tables, other factors need Coefficients.
	Oversampling int

	// ApplyMakeupGain normalizes the hysteresis output level with the
	// makeup polynomial so a full-scale sine peaks near 1.0. The bundled
	// polynomial only holds that within about 15% for Drive of at least
	// 0.25; lower drives extrapolate and come out markedly quieter.
	ApplyMakeupGain bool

	// Nonlinearity selects hysteresis (default) or the hard clipper.
	Nonlinearity Nonlinearity

	// FilterMode selects polyphase (default) or direct filtering.
	FilterMode FilterMode

	// Coefficients optionally replaces the bundled lowpass table. It must be
	// odd-length, symmetric and finite; it is rescaled to a DC sum of
	// Oversampling.
	Coefficients []float64

	// MakeupCoefficients optionally replaces the bundled makeup polynomial:
	// 30 weights followed by the bias, as written by cmd/fit-makeup.
	MakeupCoefficients []float64

	// Channels is the number of independent audio channels.
	Channels int

	// EnableParallel processes channels concurrently in ProcessMulti.
	// Has no effect on mono audio.
	EnableParallel bool

	// MaxBlockSize pre-allocates scratch space for blocks of up to this many
	// samples so that processing does not allocate. 0 allocates on first use.
	MaxBlockSize int

	// DisableSIMD forces the pure Go filter kernels.
	DisableSIMD bool

	// OnDegeneracy, if set, is called with the channel index whenever the
	// hysteresis integration produces a non-finite or runaway value and is
	// reset. It runs on the processing goroutine while the Processor is
	// locked, so it must not block or call back into the Processor.
	OnDegeneracy func(channel int)
}

// Common errors returned by the processor.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid tape configuration")

	// ErrChannelMismatch indicates the input channel count differs from
	// the configured one.
	ErrChannelMismatch = errors.New("channel count mismatch")

	// ErrLengthMismatch indicates that input and output buffers differ in
	// length.
	ErrLengthMismatch = errors.New("buffer length mismatch")
)

// DefaultConfig returns a mono configuration with the tape machine's
// default controls: drive 1.0, saturation 0.9, width 0.5, 48 kHz,
// 4x oversampling and makeup gain on.
func DefaultConfig() Config {
	return Config{
		SampleRate:      RateDAT,
		Drive:           defaultDrive,
		Saturation:      defaultSaturation,
		Width:           defaultWidth,
		Oversampling:    defaultOversampling,
		ApplyMakeupGain: true,
		Channels:        1,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be positive and finite", ErrInvalidConfig)
	}

	if err := c.params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Oversampling < 1 || c.Oversampling > maxOversampling {
		return fmt.Errorf("%w: oversampling must be 1-%d", ErrInvalidConfig, maxOversampling)
	}

	if c.Channels < 1 {
		return fmt.Errorf("%w: channels must be at least 1", ErrInvalidConfig)
	}

	if c.Channels > maxChannels {
		return fmt.Errorf("%w: too many channels (max %d)", ErrInvalidConfig, maxChannels)
	}

	if c.Nonlinearity != NonlinearityHysteresis && c.Nonlinearity != NonlinearityClipper {
		return fmt.Errorf("%w: unknown nonlinearity %v", ErrInvalidConfig, c.Nonlinearity)
	}

	if c.FilterMode != FilterPolyphase && c.FilterMode != FilterDirect {
		return fmt.Errorf("%w: unknown filter mode %v", ErrInvalidConfig, c.FilterMode)
	}

	if c.MaxBlockSize < 0 {
		return fmt.Errorf("%w: max block size must not be negative", ErrInvalidConfig)
	}

	if err := c.validateCoefficients(); err != nil {
		return err
	}

	if _, err := c.makeupGain(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateCoefficients() error {
	if c.Oversampling == 1 {
		return nil
	}

	if c.Coefficients == nil {
		if _, err := filter.Table(c.Oversampling); err != nil {
			return fmt.Errorf("%w: %w; supply Coefficients", ErrInvalidConfig, err)
		}
		return nil
	}

	if err := filter.ValidateTable(c.Coefficients); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// polynomial returns the makeup polynomial in use, or nil when makeup is off.
func (c *Config) polynomial() (*hysteresis.Polynomial, error) {
	if !c.ApplyMakeupGain || c.Nonlinearity != NonlinearityHysteresis {
		return nil, nil
	}
	if c.MakeupCoefficients == nil {
		return hysteresis.DefaultPolynomial(), nil
	}
	p, err := hysteresis.NewPolynomial(c.MakeupCoefficients)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return p, nil
}

// makeupGain returns the constant output gain for the configured controls.
func (c *Config) makeupGain() (float64, error) {
	p, err := c.polynomial()
	if err != nil || p == nil {
		return 1, err
	}
	g, err := p.Gain(c.params())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return g, nil
}

func (c *Config) params() hysteresis.Params {
	return hysteresis.Params{Drive: c.Drive, Saturation: c.Saturation, Width: c.Width}
}

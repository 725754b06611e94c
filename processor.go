package tape

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/go-tape-hysteresis/internal/hysteresis"
	"github.com/tphakala/go-tape-hysteresis/internal/oversampling"
	"github.com/tphakala/go-tape-hysteresis/internal/simdops"
)

// Processor applies tape saturation to one or more channels. Each channel
// owns its model and filter state; only the read-only coefficient tables
// are shared.
//
// Calls on a Processor are serialized internally, so it is safe to share,
// but samples are processed block by block: SetParameters and Reset take
// effect between blocks.
type Processor struct {
	mu sync.Mutex

	config     Config
	polynomial *hysteresis.Polynomial
	makeup     float64
	channels   []*channelState
}

// channelState is the full state tree of one channel.
type channelState struct {
	model *hysteresis.Model // nil for the clipper
	chain *oversampling.Processor
}

// Info describes a processor's signal path.
type Info struct {
	// Nonlinearity is the processor at the oversampled rate.
	Nonlinearity Nonlinearity

	// FilterMode is the filter evaluation strategy.
	FilterMode FilterMode

	// Oversampling is the oversampling factor.
	Oversampling int

	// FilterLength is the number of filter taps, 0 when bypassed.
	FilterLength int

	// Latency is the filter group delay in base-rate samples.
	Latency float64

	// MakeupGain is the constant output gain.
	MakeupGain float64

	// SIMDEnabled indicates that the vector kernels are in use.
	SIMDEnabled bool

	// SIMDType describes the detected vector extensions.
	SIMDType string
}

// New creates a processor. The configuration is copied.
func New(config *Config) (*Processor, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Processor{
		config:   *config,
		channels: make([]*channelState, config.Channels),
	}
	p.config.Coefficients = append([]float64(nil), config.Coefficients...)
	p.config.MakeupCoefficients = append([]float64(nil), config.MakeupCoefficients...)

	var err error
	if p.polynomial, err = p.config.polynomial(); err != nil {
		return nil, err
	}
	if p.makeup, err = p.config.makeupGain(); err != nil {
		return nil, err
	}

	for ch := range p.channels {
		state, err := p.newChannel(ch)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %d: %w", ErrInvalidConfig, ch, err)
		}
		p.channels[ch] = state
	}

	return p, nil
}

func (p *Processor) newChannel(ch int) (*channelState, error) {
	cfg := &p.config
	state := &channelState{}

	var nl oversampling.Nonlinearity = oversampling.Clipper{}
	if cfg.Nonlinearity == NonlinearityHysteresis {
		var opts []hysteresis.Option
		if p.polynomial != nil {
			opts = append(opts, hysteresis.WithMakeup(p.polynomial))
		}
		if cfg.OnDegeneracy != nil {
			notify := cfg.OnDegeneracy
			opts = append(opts, hysteresis.WithDegeneracyHandler(func() { notify(ch) }))
		}

		model, err := hysteresis.NewModel(cfg.SampleRate*float64(cfg.Oversampling), cfg.params(), opts...)
		if err != nil {
			return nil, err
		}
		state.model = model
		nl = model
	}

	mode := oversampling.ModePolyphase
	if cfg.FilterMode == FilterDirect {
		mode = oversampling.ModeDirect
	}

	chain, err := oversampling.New(oversampling.Config{
		Factor:       cfg.Oversampling,
		Coefficients: cfg.Coefficients,
		Mode:         mode,
		MaxBlockSize: cfg.MaxBlockSize,
		Ops:          simdops.Select(cfg.DisableSIMD),
	}, nl)
	if err != nil {
		return nil, err
	}
	state.chain = chain

	return state, nil
}

// Process saturates a block of channel 0 and returns a new slice of the
// same length.
func (p *Processor) Process(input []float64) ([]float64, error) {
	output := make([]float64, len(input))
	if err := p.ProcessInto(output, input); err != nil {
		return nil, err
	}
	return output, nil
}

// ProcessInto saturates src on channel 0 into dst, which must have the same
// length and may alias src. It does not allocate once the scratch buffer
// has grown to the block size.
func (p *Processor) ProcessInto(dst, src []float64) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: dst %d, src %d", ErrLengthMismatch, len(dst), len(src))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channels[0].chain.ProcessBlock(dst, src)
}

// ProcessFloat32 is like Process for float32 samples. Processing runs in
// float64 internally.
func (p *Processor) ProcessFloat32(input []float32) ([]float32, error) {
	input64 := make([]float64, len(input))
	for i, v := range input {
		input64[i] = float64(v)
	}

	output64, err := p.Process(input64)
	if err != nil {
		return nil, err
	}

	output32 := make([]float32, len(output64))
	for i, v := range output64 {
		output32[i] = float32(v)
	}
	return output32, nil
}

// ProcessMulti saturates one block per channel. When EnableParallel is set
// the channels run concurrently; the result is identical either way.
func (p *Processor) ProcessMulti(input [][]float64) ([][]float64, error) {
	if len(input) != len(p.channels) {
		return nil, fmt.Errorf("%w: expected %d channels, got %d", ErrChannelMismatch, len(p.channels), len(input))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	output := make([][]float64, len(input))
	process := func(ch int) error {
		out := make([]float64, len(input[ch]))
		if err := p.channels[ch].chain.ProcessBlock(out, input[ch]); err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
		output[ch] = out
		return nil
	}

	if !p.config.EnableParallel || len(input) <= 1 {
		for ch := range input {
			if err := process(ch); err != nil {
				return nil, err
			}
		}
		return output, nil
	}

	var g errgroup.Group
	for ch := range input {
		g.Go(func() error { return process(ch) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return output, nil
}

// SetParameters replaces drive, saturation and width on every channel,
// recomputing the makeup gain. Integration and filter state are kept, so
// the change takes effect at the next block without a reset. Invalid
// values leave the previous parameters in force.
func (p *Processor) SetParameters(drive, saturation, width float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.config
	next.Drive, next.Saturation, next.Width = drive, saturation, width

	if err := next.params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	makeup := 1.0
	if p.polynomial != nil {
		g, err := p.polynomial.Gain(next.params())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		makeup = g
	}

	// Every check that SetParams performs has passed above, so the channels
	// cannot end up with different parameters.
	for ch, state := range p.channels {
		if state.model == nil {
			continue
		}
		if err := state.model.SetParams(next.params()); err != nil {
			return fmt.Errorf("%w: channel %d: %w", ErrInvalidConfig, ch, err)
		}
	}

	p.config = next
	p.makeup = makeup
	return nil
}

// Reset clears all integration state and filter delay lines.
func (p *Processor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, state := range p.channels {
		state.chain.Reset()
	}
}

// Latency returns the filter group delay in base-rate samples:
// (taps-1)/Oversampling, or 0 without oversampling. The hysteresis adds a
// further signal-dependent phase lag on top of this.
func (p *Processor) Latency() float64 {
	return p.channels[0].chain.Latency()
}

// Degeneracies returns the number of times the hysteresis integration was
// reset after a non-finite or runaway step, summed over channels.
//
// The count is per oversampled step. With oversampling, one non-finite input
// frame stays in the anti-image filter for its whole length and poisons
// roughly one oversampled step per tap (about 131 resets at 4x), so the
// count is not one per bad input frame.
func (p *Processor) Degeneracies() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	var total uint64
	for _, state := range p.channels {
		if state.model != nil {
			total += state.model.Degeneracies()
		}
	}
	return total
}

// MakeupGain returns the constant output gain, 1.0 when makeup is disabled
// or the clipper is selected.
func (p *Processor) MakeupGain() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.makeup
}

// SaturationMagnetization returns the level the hysteresis output
// approaches before makeup gain, or 0 for the clipper.
func (p *Processor) SaturationMagnetization() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m := p.channels[0].model; m != nil {
		return m.SaturationMagnetization()
	}
	return 0
}

// Config returns a copy of the current configuration, including the
// latest SetParameters values.
func (p *Processor) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}

// Info returns a description of the signal path.
func (p *Processor) Info() Info {
	p.mu.Lock()
	defer p.mu.Unlock()

	chain := p.channels[0].chain
	info := Info{
		Nonlinearity: p.config.Nonlinearity,
		FilterMode:   p.config.FilterMode,
		Oversampling: p.config.Oversampling,
		FilterLength: chain.Taps(),
		Latency:      chain.Latency(),
		MakeupGain:   p.makeup,
		SIMDEnabled:  !p.config.DisableSIMD,
		SIMDType:     "none",
	}
	if info.SIMDEnabled {
		info.SIMDType = simdops.Info()
	}
	return info
}

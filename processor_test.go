package tape

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-tape-hysteresis/internal/analysis"
	"github.com/tphakala/go-tape-hysteresis/internal/hysteresis"
	"github.com/tphakala/go-tape-hysteresis/internal/testutil"
)

const (
	testToneHz        = 100.0
	scenarioLength    = 480 // 0.01 s at 48 kHz
	scenarioCrossing  = 240 // falling zero crossing of the input
	maxHysteresisLag  = 40  // samples; well under a quarter period (120)
	equivalenceTol    = 1e-9
	float32Tol        = 1e-6
	testMaxBlockSize  = 512
	testNoiseSeed     = 11
	testNaNIndex      = 100
	parameterChangeAt = 240
)

func newProcessor(t *testing.T, modify func(*Config)) *Processor {
	t.Helper()
	cfg := DefaultConfig()
	if modify != nil {
		modify(&cfg)
	}
	p, err := New(&cfg)
	require.NoError(t, err)
	return p
}

func TestProcessor_EndToEnd(t *testing.T) {
	p := newProcessor(t, func(c *Config) { c.Width = 0.999 })

	in := testutil.Sine(testToneHz, RateDAT, 1, scenarioLength)
	out, err := p.Process(in)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	testutil.AssertNoNaNOrInf(t, out)
	assert.Zero(t, p.Degeneracies())

	bound := p.SaturationMagnetization() * p.MakeupGain()
	assert.LessOrEqual(t, analysis.Peak(out), bound)

	// Filter ringing before the group delay can cross zero; skip it.
	latency := p.Latency()
	assert.Equal(t, 32.5, latency)
	var crossing float64
	for _, zc := range analysis.FallingZeroCrossings(out) {
		if zc > latency {
			crossing = zc
			break
		}
	}
	require.NotZero(t, crossing, "no falling zero crossing after the filter delay")
	testutil.AssertInRange(t, crossing, latency+scenarioCrossing-1, latency+scenarioCrossing+maxHysteresisLag)
}

func TestProcessor_MakeupNormalizesPeak(t *testing.T) {
	p := newProcessor(t, nil)

	// Two cycles, the first settles the loop.
	in := testutil.Sine(testToneHz, RateDAT, 1, 2*scenarioLength)
	out, err := p.Process(in)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, analysis.Peak(out[scenarioLength:]), 0.15)
}

func TestProcessor_PolyphaseMatchesDirect(t *testing.T) {
	in := testutil.Noise(testNoiseSeed, 0.8, 1024)

	for _, nl := range []Nonlinearity{NonlinearityHysteresis, NonlinearityClipper} {
		t.Run(nl.String(), func(t *testing.T) {
			poly := newProcessor(t, func(c *Config) { c.Nonlinearity = nl })
			direct := newProcessor(t, func(c *Config) {
				c.Nonlinearity = nl
				c.FilterMode = FilterDirect
			})

			want, err := direct.Process(in)
			require.NoError(t, err)
			got, err := poly.Process(in)
			require.NoError(t, err)

			testutil.AssertSlicesInDelta(t, want, got, equivalenceTol)
		})
	}
}

func TestProcessor_SIMDMatchesScalar(t *testing.T) {
	in := testutil.Noise(testNoiseSeed, 0.8, 1024)

	simd := newProcessor(t, nil)
	scalar := newProcessor(t, func(c *Config) { c.DisableSIMD = true })

	want, err := scalar.Process(in)
	require.NoError(t, err)
	got, err := simd.Process(in)
	require.NoError(t, err)

	testutil.AssertSlicesInDelta(t, want, got, equivalenceTol)
	assert.False(t, scalar.Info().SIMDEnabled)
	assert.Equal(t, "none", scalar.Info().SIMDType)
}

func TestProcessor_BlockSplitContinuity(t *testing.T) {
	in := testutil.Sine(testToneHz, RateDAT, 1, 2*scenarioLength)

	whole := newProcessor(t, nil)
	want, err := whole.Process(in)
	require.NoError(t, err)

	split := newProcessor(t, nil)
	got := make([]float64, len(in))
	for start := 0; start < len(in); start += 97 {
		end := min(start+97, len(in))
		require.NoError(t, split.ProcessInto(got[start:end], in[start:end]))
	}

	testutil.AssertSlicesInDelta(t, want, got, testutil.EquivalenceTolerance)
}

func TestProcessor_ProcessIntoErrors(t *testing.T) {
	p := newProcessor(t, nil)

	err := p.ProcessInto(make([]float64, 3), make([]float64, 4))
	require.ErrorIs(t, err, ErrLengthMismatch)

	_, err = p.ProcessMulti([][]float64{{1}, {2}})
	require.ErrorIs(t, err, ErrChannelMismatch)
}

func TestProcessor_ProcessIntoZeroAllocs(t *testing.T) {
	p := newProcessor(t, func(c *Config) { c.MaxBlockSize = testMaxBlockSize })

	src := testutil.Sine(testToneHz, RateDAT, 0.7, testMaxBlockSize)
	dst := make([]float64, len(src))
	allocs := testing.AllocsPerRun(10, func() {
		_ = p.ProcessInto(dst, src)
	})
	assert.Zero(t, allocs)
}

func TestProcessor_ProcessFloat32(t *testing.T) {
	in := testutil.Sine(testToneHz, RateDAT, 0.9, scenarioLength)
	in32 := make([]float32, len(in))
	for i, v := range in {
		in32[i] = float32(v)
	}

	p64 := newProcessor(t, nil)
	want, err := p64.Process(in)
	require.NoError(t, err)

	p32 := newProcessor(t, nil)
	got, err := p32.ProcessFloat32(in32)
	require.NoError(t, err)
	require.Len(t, got, len(want))

	for i := range want {
		require.InDelta(t, want[i], float64(got[i]), float32Tol, "sample %d", i)
	}
}

func TestProcessor_SetParameters(t *testing.T) {
	p := newProcessor(t, nil)
	in := testutil.Sine(testToneHz, RateDAT, 1, scenarioLength)

	_, err := p.Process(in[:parameterChangeAt])
	require.NoError(t, err)

	require.NoError(t, p.SetParameters(0.5, 0.2, 0.3))
	assert.InDelta(t, hysteresis.DefaultPolynomial().Eval(0.5, 0.2, 0.3), p.MakeupGain(), 1e-15)
	cfg := p.Config()
	assert.Equal(t, 0.5, cfg.Drive)
	assert.Equal(t, 0.2, cfg.Saturation)
	assert.Equal(t, 0.3, cfg.Width)

	out, err := p.Process(in[parameterChangeAt:])
	require.NoError(t, err)
	testutil.AssertNoNaNOrInf(t, out)

	// Kept state makes the continuation differ from a fresh start.
	fresh := newProcessor(t, func(c *Config) {
		c.Drive, c.Saturation, c.Width = 0.5, 0.2, 0.3
	})
	freshOut, err := fresh.Process(in[parameterChangeAt:])
	require.NoError(t, err)
	assert.NotEqual(t, freshOut, out)
}

func TestProcessor_SetParametersRejectsInvalid(t *testing.T) {
	p := newProcessor(t, nil)
	before := p.MakeupGain()

	err := p.SetParameters(1.0, 0.9, 1.0)
	require.ErrorIs(t, err, ErrInvalidConfig)

	err = p.SetParameters(-0.1, 0.9, 0.5)
	require.ErrorIs(t, err, ErrInvalidConfig)

	cfg := p.Config()
	assert.Equal(t, 0.5, cfg.Width)
	assert.Equal(t, 1.0, cfg.Drive)
	assert.Equal(t, before, p.MakeupGain())
}

func TestProcessor_Reset(t *testing.T) {
	p := newProcessor(t, func(c *Config) { c.Channels = 2 })
	in := [][]float64{
		testutil.Sine(testToneHz, RateDAT, 1, scenarioLength),
		testutil.Sine(2*testToneHz, RateDAT, 0.5, scenarioLength),
	}

	first, err := p.ProcessMulti(in)
	require.NoError(t, err)

	p.Reset()
	second, err := p.ProcessMulti(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProcessor_DegeneracyCallback(t *testing.T) {
	var (
		mu       sync.Mutex
		channels = map[int]int{}
	)
	p := newProcessor(t, func(c *Config) {
		c.Channels = 2
		c.EnableParallel = true
		c.OnDegeneracy = func(ch int) {
			mu.Lock()
			channels[ch]++
			mu.Unlock()
		}
	})

	clean := testutil.Sine(testToneHz, RateDAT, 1, scenarioLength)
	broken := append([]float64(nil), clean...)
	broken[testNaNIndex] = math.NaN()

	out, err := p.ProcessMulti([][]float64{clean, broken})
	require.NoError(t, err)

	testutil.AssertNoNaNOrInf(t, out[0])
	testutil.AssertNoNaNOrInf(t, out[1])
	assert.Zero(t, channels[0])
	assert.Equal(t, uint64(channels[1]), p.Degeneracies())

	// The NaN spreads across every oversampled step the anti-image filter
	// holds it for, one reset each.
	factor := float64(DefaultConfig().Oversampling)
	taps := p.Latency()*factor + 1
	assert.InDelta(t, taps, float64(p.Degeneracies()), factor)
}

func TestProcessor_DegeneracyWithoutOversampling(t *testing.T) {
	p := newProcessor(t, func(c *Config) { c.Oversampling = 1 })

	in := testutil.Sine(testToneHz, RateDAT, 1, scenarioLength)
	in[testNaNIndex] = math.NaN()

	out, err := p.Process(in)
	require.NoError(t, err)
	testutil.AssertNoNaNOrInf(t, out)
	assert.Equal(t, uint64(1), p.Degeneracies())
}

func TestProcessor_Clipper(t *testing.T) {
	p := newProcessor(t, func(c *Config) { c.Nonlinearity = NonlinearityClipper })

	assert.Equal(t, 1.0, p.MakeupGain())
	assert.Zero(t, p.SaturationMagnetization())

	in := testutil.Sine(testToneHz, RateDAT, 1, 2*scenarioLength)
	out, err := p.Process(in)
	require.NoError(t, err)

	// Filter overshoot around the clipped corners stays small.
	peak := analysis.Peak(out[scenarioLength:])
	assert.InDelta(t, 2.0/3.0, peak, 0.05)
}

func TestProcessor_NoOversampling(t *testing.T) {
	p := newProcessor(t, func(c *Config) {
		c.Oversampling = 1
		c.ApplyMakeupGain = false
	})
	assert.Zero(t, p.Latency())

	model, err := hysteresis.NewModel(RateDAT, hysteresis.DefaultParams())
	require.NoError(t, err)

	in := testutil.Sine(testToneHz, RateDAT, 1, scenarioLength)
	want := make([]float64, len(in))
	model.ProcessBlock(want, in)

	got, err := p.Process(in)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestProcessor_CustomMakeup(t *testing.T) {
	coeffs := make([]float64, hysteresis.NumCoefficients)
	coeffs[hysteresis.NumFeatures] = 1.5

	p := newProcessor(t, func(c *Config) { c.MakeupCoefficients = coeffs })
	assert.Equal(t, 1.5, p.MakeupGain())

	// The processor keeps its own copy.
	coeffs[hysteresis.NumFeatures] = 3
	require.NoError(t, p.SetParameters(0.5, 0.5, 0.5))
	assert.Equal(t, 1.5, p.MakeupGain())
}

func TestProcessor_Info(t *testing.T) {
	p := newProcessor(t, func(c *Config) { c.Oversampling = 2 })

	info := p.Info()
	assert.Equal(t, NonlinearityHysteresis, info.Nonlinearity)
	assert.Equal(t, FilterPolyphase, info.FilterMode)
	assert.Equal(t, 2, info.Oversampling)
	assert.Equal(t, 91, info.FilterLength)
	assert.Equal(t, 45.0, info.Latency)
	assert.Equal(t, p.MakeupGain(), info.MakeupGain)
	assert.True(t, info.SIMDEnabled)
}

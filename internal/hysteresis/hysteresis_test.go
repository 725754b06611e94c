package hysteresis

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-tape-hysteresis/internal/testutil"
)

const (
	testSampleRate  = 48000.0
	testToneHz      = 100.0
	testPeriod      = 480 // samples per 100 Hz cycle at 48 kHz
	langevinTol     = 1e-6
	oddTol          = 1e-12
	makeupTol       = 0.15
	rampTol         = 1e-6
	derivativeTol   = 1e-9
	testDegenerateN = 100
)

// closedLangevin is L(x) without the small-argument fallback.
func closedLangevin(x float64) float64 {
	return 1/math.Tanh(x) - 1/x
}

func closedLangevinDerivative(x float64) float64 {
	coth := 1 / math.Tanh(x)
	return 1/(x*x) - coth*coth + 1
}

func TestLangevin_AtZero(t *testing.T) {
	assert.Zero(t, Langevin(0))
	assert.InDelta(t, 1.0/3.0, LangevinDerivative(0), 1e-15)
}

func TestLangevin_ContinuousAtThreshold(t *testing.T) {
	for _, x := range []float64{
		langevinThreshold * 0.999,
		langevinThreshold * 1.001,
		-langevinThreshold * 0.999,
		-langevinThreshold * 1.001,
	} {
		t.Run(fmt.Sprintf("x=%g", x), func(t *testing.T) {
			assert.InDelta(t, closedLangevin(x), Langevin(x), langevinTol)
			assert.InDelta(t, closedLangevinDerivative(x), LangevinDerivative(x), langevinTol)
		})
	}
}

func TestLangevin_Odd(t *testing.T) {
	for _, x := range []float64{1e-5, 0.3, 1, 4.5, 50} {
		assert.Equal(t, -Langevin(x), Langevin(-x), "x=%v", x)
		assert.Equal(t, LangevinDerivative(x), LangevinDerivative(-x), "x=%v", x)
	}
}

func TestLangevin_Saturates(t *testing.T) {
	assert.InDelta(t, 1.0, Langevin(1e3), 1e-2)
	assert.InDelta(t, -1.0, Langevin(-1e3), 1e-2)
	assert.InDelta(t, 0.0, LangevinDerivative(1e3), 1e-5)
}

func TestDifferentiator_Constant(t *testing.T) {
	d := NewDifferentiator(testSampleRate)
	var xd float64
	for range 200 {
		xd = d.Differentiate(0.5)
	}
	// The first step sees a jump from 0; the damped recurrence then decays.
	assert.InDelta(t, 0.0, xd, derivativeTol)
}

func TestDifferentiator_Ramp(t *testing.T) {
	const slope = 3.0 // units per second
	d := NewDifferentiator(testSampleRate)
	var xd float64
	for n := range 400 {
		xd = d.Differentiate(slope * float64(n) / testSampleRate)
	}
	assert.InDelta(t, slope, xd, rampTol)
}

func TestDifferentiator_Reset(t *testing.T) {
	d := NewDifferentiator(testSampleRate)
	first := d.Differentiate(1)
	d.Differentiate(0.3)
	d.Reset()
	assert.Equal(t, first, d.Differentiate(1))
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{name: "defaults", params: DefaultParams()},
		{name: "all zero", params: Params{}},
		{name: "upper edges", params: Params{Drive: 1, Saturation: 1, Width: 0.999}},
		{name: "width one", params: Params{Drive: 1, Saturation: 0.9, Width: 1}, wantErr: true},
		{name: "negative drive", params: Params{Drive: -0.1}, wantErr: true},
		{name: "drive above one", params: Params{Drive: 1.1}, wantErr: true},
		{name: "saturation above one", params: Params{Saturation: 2}, wantErr: true},
		{name: "negative width", params: Params{Width: -0.5}, wantErr: true},
		{name: "nan drive", params: Params{Drive: math.NaN()}, wantErr: true},
		{name: "nan width", params: Params{Width: math.NaN()}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewModel_Invalid(t *testing.T) {
	_, err := NewModel(0, DefaultParams())
	require.Error(t, err)

	_, err = NewModel(math.Inf(1), DefaultParams())
	require.Error(t, err)

	_, err = NewModel(testSampleRate, Params{Drive: 1, Saturation: 0.9, Width: 1})
	require.Error(t, err)
}

func TestModel_DerivedParameters(t *testing.T) {
	m, err := NewModel(testSampleRate, Params{Drive: 1, Saturation: 0.9, Width: 0.5})
	require.NoError(t, err)

	assert.InDelta(t, 0.65, m.SaturationMagnetization(), 1e-12)
	assert.InDelta(t, 0.65/6.01, m.coeffs.a, 1e-12)
	assert.InDelta(t, math.Sqrt(0.5)-0.01, m.coeffs.c, 1e-12)
	assert.InDelta(t, 0.47875, K, 1e-15)
	assert.Equal(t, 1.0, m.MakeupGain())
}

func TestModel_SilenceStaysSilent(t *testing.T) {
	m, err := NewModel(testSampleRate, DefaultParams())
	require.NoError(t, err)

	out := make([]float64, 256)
	m.ProcessBlock(out, make([]float64, 256))
	for i, v := range out {
		require.Zero(t, v, "sample %d", i)
	}
}

func TestModel_OddSymmetry(t *testing.T) {
	for _, p := range []Params{
		DefaultParams(),
		{Drive: 0.3, Saturation: 0.2, Width: 0.8},
		{Drive: 1, Saturation: 0.9, Width: 0.999},
	} {
		t.Run(fmt.Sprintf("%+v", p), func(t *testing.T) {
			in := testutil.Sine(testToneHz, testSampleRate, 1, 4*testPeriod)

			pos, err := NewModel(testSampleRate, p)
			require.NoError(t, err)
			neg, err := NewModel(testSampleRate, p)
			require.NoError(t, err)

			a := make([]float64, len(in))
			b := make([]float64, len(in))
			pos.ProcessBlock(a, in)
			neg.ProcessBlock(b, testutil.Negate(in))

			for i := range a {
				require.InDelta(t, 0.0, a[i]+b[i], oddTol, "sample %d", i)
			}
		})
	}
}

func TestModel_BoundedBySaturation(t *testing.T) {
	m, err := NewModel(testSampleRate, Params{Drive: 1, Saturation: 0.9, Width: 0.5})
	require.NoError(t, err)

	in := testutil.Sine(testToneHz, testSampleRate, 1, 4*testPeriod)
	out := make([]float64, len(in))
	m.ProcessBlock(out, in)

	testutil.AssertNoNaNOrInf(t, out)
	ms := m.SaturationMagnetization()
	testutil.AssertAllInRange(t, out, -ms, ms)
	assert.Zero(t, m.Degeneracies())
}

func TestModel_MakeupNormalizesPeak(t *testing.T) {
	triples := []Params{
		{Drive: 1, Saturation: 0.9, Width: 0.5},
		{Drive: 0.5, Saturation: 0.5, Width: 0.5},
		{Drive: 0.3, Saturation: 0.2, Width: 0.8},
		{Drive: 0.75, Saturation: 0, Width: 0},
		{Drive: 1, Saturation: 1, Width: 0.99},
		{Drive: 0.25, Saturation: 0.9, Width: 0.3},
		{Drive: 0.6, Saturation: 0.4, Width: 0.95},
	}

	for _, rate := range []float64{48000, 192000} {
		for _, p := range triples {
			t.Run(fmt.Sprintf("%g/%+v", rate, p), func(t *testing.T) {
				m, err := NewModel(rate, p, WithMakeup(nil))
				require.NoError(t, err)

				// Two cycles of the tone.
				n := int(2 * rate / testToneHz)
				in := testutil.Sine(testToneHz, rate, 1, n)
				out := make([]float64, n)
				m.ProcessBlock(out, in)

				peak := 0.0
				for _, v := range out {
					peak = math.Max(peak, math.Abs(v))
				}
				assert.InDelta(t, 1.0, peak, makeupTol)
			})
		}
	}
}

func TestModel_DegeneracyRecovers(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		t.Run(fmt.Sprint(bad), func(t *testing.T) {
			calls := 0
			m, err := NewModel(testSampleRate, DefaultParams(), WithDegeneracyHandler(func() { calls++ }))
			require.NoError(t, err)

			in := testutil.Sine(testToneHz, testSampleRate, 1, 2*testPeriod)
			in[testDegenerateN] = bad
			out := make([]float64, len(in))
			m.ProcessBlock(out, in)

			assert.Zero(t, out[testDegenerateN])
			testutil.AssertNoNaNOrInf(t, out)
			assert.Equal(t, uint64(1), m.Degeneracies())
			assert.Equal(t, 1, calls)
		})
	}
}

func TestModel_Reset(t *testing.T) {
	m, err := NewModel(testSampleRate, DefaultParams())
	require.NoError(t, err)

	in := testutil.Sine(testToneHz, testSampleRate, 1, testPeriod)
	first := make([]float64, len(in))
	m.ProcessBlock(first, in)

	m.Reset()
	second := make([]float64, len(in))
	m.ProcessBlock(second, in)

	assert.Equal(t, first, second)
}

func TestModel_BlockSplitContinuity(t *testing.T) {
	in := testutil.Sine(testToneHz, testSampleRate, 1, 2*testPeriod)

	whole, err := NewModel(testSampleRate, DefaultParams())
	require.NoError(t, err)
	want := make([]float64, len(in))
	whole.ProcessBlock(want, in)

	split, err := NewModel(testSampleRate, DefaultParams())
	require.NoError(t, err)
	got := make([]float64, len(in))
	for start := 0; start < len(in); start += 37 {
		end := min(start+37, len(in))
		split.ProcessBlock(got[start:end], in[start:end])
	}

	assert.Equal(t, want, got)
}

func TestModel_SetParams(t *testing.T) {
	m, err := NewModel(testSampleRate, DefaultParams(), WithMakeup(nil))
	require.NoError(t, err)

	in := testutil.Sine(testToneHz, testSampleRate, 1, testPeriod)
	out := make([]float64, len(in))
	m.ProcessBlock(out, in)
	magBefore := m.m

	next := Params{Drive: 0.5, Saturation: 0.2, Width: 0.3}
	require.NoError(t, m.SetParams(next))
	assert.Equal(t, next, m.Params())
	assert.Equal(t, magBefore, m.m, "integration state is kept")
	assert.InDelta(t, DefaultPolynomial().Eval(0.5, 0.2, 0.3), m.MakeupGain(), 1e-15)

	err = m.SetParams(Params{Drive: 1, Saturation: 0.9, Width: 1})
	require.Error(t, err)
	assert.Equal(t, next, m.Params(), "previous parameters stay in force")
}

func TestFeatures_Layout(t *testing.T) {
	f := Features(2, 3, 5)

	// Degree two: d², d·s, d·w, d, s², s·w, s, w², w, 1.
	wantSquare := []float64{4, 6, 10, 2, 9, 15, 3, 25, 5, 1}
	assert.Equal(t, wantSquare, f[:10])

	// Degree three starts with d³, d²s, d²w, d² and ends with w, 1.
	assert.Equal(t, []float64{8, 12, 20, 4}, f[10:14])
	assert.Equal(t, 5.0, f[NumFeatures-2])
	assert.Equal(t, 1.0, f[NumFeatures-1])
}

func TestPolynomial(t *testing.T) {
	_, err := NewPolynomial(make([]float64, NumCoefficients-1))
	require.Error(t, err)

	bad := make([]float64, NumCoefficients)
	bad[3] = math.Inf(1)
	_, err = NewPolynomial(bad)
	require.Error(t, err)

	// Only the constant monomial of degree two and the bias are set.
	coeffs := make([]float64, NumCoefficients)
	coeffs[9] = 0.5
	coeffs[NumFeatures] = 1.25
	p, err := NewPolynomial(coeffs)
	require.NoError(t, err)
	assert.InDelta(t, 1.75, p.Eval(0.3, 0.6, 0.9), 1e-15)
	assert.Equal(t, coeffs, p.Coefficients())

	negative := make([]float64, NumCoefficients)
	negative[NumFeatures] = -1
	p, err = NewPolynomial(negative)
	require.NoError(t, err)
	_, err = p.Gain(DefaultParams())
	assert.Error(t, err)
}

func TestDefaultPolynomial_PositiveOverDomain(t *testing.T) {
	p := DefaultPolynomial()
	assert.Equal(t, DefaultCoefficients(), p.Coefficients())

	for d := 0.0; d <= 1.0; d += 0.1 {
		for s := 0.0; s <= 1.0; s += 0.1 {
			for w := 0.0; w < 1.0; w += 0.1 {
				g, err := p.Gain(Params{Drive: d, Saturation: s, Width: w})
				require.NoError(t, err)
				require.Greater(t, g, 0.0)
			}
		}
	}
}

func BenchmarkModel_Process(b *testing.B) {
	m, err := NewModel(4*testSampleRate, DefaultParams(), WithMakeup(nil))
	require.NoError(b, err)

	in := testutil.Sine(testToneHz, 4*testSampleRate, 1, 1024)
	out := make([]float64, len(in))
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		m.ProcessBlock(out, in)
	}
}

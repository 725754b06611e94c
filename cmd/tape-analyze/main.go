// Command tape-analyze sweeps one tape control and reports the harmonic
// content of the processed test tone, optionally exporting the hysteresis
// loops as .npy files.
//
// Usage:
//
//	tape-analyze -param drive -points 5
//	tape-analyze -param width -harmonics 7 -loops ./loops
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	tape "github.com/tphakala/go-tape-hysteresis"
	"github.com/tphakala/go-tape-hysteresis/internal/analysis"
	"github.com/tphakala/go-tape-hysteresis/internal/dataset"
	"github.com/tphakala/go-tape-hysteresis/internal/hysteresis"
)

const (
	defaultRate      = 48000.0
	defaultTone      = 1000.0
	defaultSamples   = 4800 // analysis window, 100 periods of the default tone
	defaultPoints    = 5
	defaultHarmonics = 5
)

// settings is the parsed command line.
type settings struct {
	param      string
	lo, hi     float64
	points     int
	rate       float64
	tone       float64
	samples    int
	harmonics  int
	oversample int
	loops      string
}

func main() {
	s := settings{}
	flag.StringVar(&s.param, "param", "drive", "Control to sweep: drive, saturation or width")
	flag.Float64Var(&s.lo, "from", 0.1, "Sweep start")
	flag.Float64Var(&s.hi, "to", 1.0, "Sweep end (width is capped below 1)")
	flag.IntVar(&s.points, "points", defaultPoints, "Number of sweep points")
	flag.Float64Var(&s.rate, "rate", defaultRate, "Sample rate in Hz")
	flag.Float64Var(&s.tone, "tone", defaultTone, "Test tone frequency in Hz")
	flag.IntVar(&s.samples, "samples", defaultSamples, "Analysis window length")
	flag.IntVar(&s.harmonics, "harmonics", defaultHarmonics, "Harmonics to report above the fundamental")
	flag.IntVar(&s.oversample, "oversample", 4, "Oversampling factor")
	flag.StringVar(&s.loops, "loops", "", "Directory for H/M loop exports (.npy)")
	flag.Parse()

	if err := run(os.Stdout, s); err != nil {
		log.Fatal(err)
	}
}

// maxWidth keeps a width sweep inside the model's domain.
const maxWidth = 0.999

func (s *settings) values() ([]float64, error) {
	if s.points < 1 {
		return nil, errors.New("points must be at least 1")
	}
	hi := s.hi
	if s.param == "width" {
		hi = math.Min(hi, maxWidth)
	}
	if s.points == 1 {
		return []float64{s.lo}, nil
	}
	return floats.Span(make([]float64, s.points), s.lo, hi), nil
}

// params applies the swept value to the default controls.
func (s *settings) params(value float64) (hysteresis.Params, error) {
	p := hysteresis.DefaultParams()
	switch s.param {
	case "drive":
		p.Drive = value
	case "saturation":
		p.Saturation = value
	case "width":
		p.Width = value
	default:
		return p, fmt.Errorf("unknown parameter %q", s.param)
	}
	return p, p.Validate()
}

// result is one row of the report.
type result struct {
	value    float64
	peak     float64
	thd      float64
	aliasing float64
	levels   []float64
}

func run(w io.Writer, s settings) error {
	values, err := s.values()
	if err != nil {
		return err
	}
	if s.loops != "" {
		if err := os.MkdirAll(s.loops, 0o755); err != nil {
			return err
		}
	}

	results := make([]result, 0, len(values))
	for _, v := range values {
		p, err := s.params(v)
		if err != nil {
			return err
		}
		r, err := measure(s, p)
		if err != nil {
			return err
		}
		r.value = v
		results = append(results, r)

		if s.loops != "" {
			path := filepath.Join(s.loops, fmt.Sprintf("loop_%s_%.3f.npy", s.param, v))
			if err := exportLoop(path, s, p); err != nil {
				return err
			}
		}
	}

	report(w, s, results)
	return nil
}

// measure processes a settled unit tone and analyzes the last window.
func measure(s settings, p hysteresis.Params) (result, error) {
	cfg := tape.DefaultConfig()
	cfg.SampleRate = s.rate
	cfg.Oversampling = s.oversample
	cfg.Drive, cfg.Saturation, cfg.Width = p.Drive, p.Saturation, p.Width

	proc, err := tape.New(&cfg)
	if err != nil {
		return result{}, err
	}

	// One extra window lets the filters and the loop settle.
	out, err := proc.Process(tone(s.tone, s.rate, 2*s.samples))
	if err != nil {
		return result{}, err
	}
	window := out[s.samples:]

	levels, err := analysis.HarmonicLevels(window, s.rate, s.tone, s.harmonics)
	if err != nil {
		return result{}, err
	}
	thd, err := analysis.THD(window, s.rate, s.tone)
	if err != nil {
		return result{}, err
	}
	aliasing, err := analysis.AliasingRatio(window, analysis.Bin(s.tone, s.rate, len(window)), analysis.DefaultGuardBins)
	if err != nil {
		return result{}, err
	}

	return result{
		peak:     analysis.Peak(window),
		thd:      thd,
		aliasing: aliasing,
		levels:   levels,
	}, nil
}

// exportLoop writes one settled period of (H, M) from the model without
// makeup as an N×2 matrix.
func exportLoop(path string, s settings, p hysteresis.Params) error {
	model, err := hysteresis.NewModel(s.rate, p)
	if err != nil {
		return err
	}

	period := int(math.Round(s.rate / s.tone))
	h := tone(s.tone, s.rate, 2*period)
	m := make([]float64, len(h))
	model.ProcessBlock(m, h)

	loop := mat.NewDense(period, 2, nil)
	loop.SetCol(0, h[period:])
	loop.SetCol(1, m[period:])
	return dataset.WriteMatrix(path, loop)
}

func tone(freq, rate float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return x
}

func report(w io.Writer, s settings, results []result) {
	fmt.Fprintf(w, "Sweep of %s, %.0f Hz tone at %.0f Hz, %dx oversampling\n\n",
		s.param, s.tone, s.rate, s.oversample)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{s.param, "peak", "THD %", "alias dB"}
	for h := range s.harmonics {
		header = append(header, fmt.Sprintf("H%d dB", h+2))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, r := range results {
		cols := []string{
			fmt.Sprintf("%.3f", r.value),
			fmt.Sprintf("%.3f", r.peak),
			fmt.Sprintf("%.2f", 100*r.thd),
			fmt.Sprintf("%.1f", r.aliasing),
		}
		for _, l := range r.levels {
			cols = append(cols, fmt.Sprintf("%.1f", l))
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t")+"\t")
	}
	_ = tw.Flush()
}

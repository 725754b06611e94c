// Package calibrate measures the hysteresis model over a parameter grid and
// fits the makeup-gain polynomial that normalizes its output level.
package calibrate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-tape-hysteresis/internal/analysis"
	"github.com/tphakala/go-tape-hysteresis/internal/dataset"
	"github.com/tphakala/go-tape-hysteresis/internal/hysteresis"
)

// SweepConfig describes the measurement grid and the test tone.
type SweepConfig struct {
	SampleRate float64
	ToneHz     float64
	Samples    int

	DriveMin, DriveMax           float64
	SaturationMin, SaturationMax float64
	WidthMin, WidthMax           float64

	DrivePoints, SaturationPoints, WidthPoints int

	// Workers bounds the number of concurrent measurements. Zero uses
	// GOMAXPROCS.
	Workers int
}

// DefaultSweepConfig returns the grid the bundled table was fitted on.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		SampleRate:       48000,
		ToneHz:           100,
		Samples:          960,
		DriveMin:         hysteresis.MakeupMinDrive,
		DriveMax:         1,
		SaturationMin:    0,
		SaturationMax:    1,
		WidthMin:         0,
		WidthMax:         0.99,
		DrivePoints:      12,
		SaturationPoints: 6,
		WidthPoints:      6,
	}
}

// Validate checks the sweep before any work starts.
func (c *SweepConfig) Validate() error {
	if !(c.SampleRate > 0) {
		return fmt.Errorf("sample rate %v must be positive", c.SampleRate)
	}
	if !(c.ToneHz > 0) || c.ToneHz >= c.SampleRate/2 {
		return fmt.Errorf("tone %v Hz must be between 0 and Nyquist", c.ToneHz)
	}
	if c.Samples < 1 {
		return errors.New("samples must be at least 1")
	}
	if c.DrivePoints < 1 || c.SaturationPoints < 1 || c.WidthPoints < 1 {
		return errors.New("every grid axis needs at least one point")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}

	corners := []hysteresis.Params{
		{Drive: c.DriveMin, Saturation: c.SaturationMin, Width: c.WidthMin},
		{Drive: c.DriveMax, Saturation: c.SaturationMax, Width: c.WidthMax},
	}
	for _, p := range corners {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("grid bounds: %w", err)
		}
	}
	return nil
}

// Grid returns every parameter triple of the sweep, drive varying slowest.
// An axis with fewer than one point yields an empty grid.
func (c *SweepConfig) Grid() []hysteresis.Params {
	drives := span(c.DriveMin, c.DriveMax, c.DrivePoints)
	sats := span(c.SaturationMin, c.SaturationMax, c.SaturationPoints)
	widths := span(c.WidthMin, c.WidthMax, c.WidthPoints)

	grid := make([]hysteresis.Params, 0, len(drives)*len(sats)*len(widths))
	for _, d := range drives {
		for _, s := range sats {
			for _, w := range widths {
				grid = append(grid, hysteresis.Params{Drive: d, Saturation: s, Width: w})
			}
		}
	}
	return grid
}

func span(lo, hi float64, n int) []float64 {
	switch {
	case n < 1:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// MeasurePeak drives a model without makeup with a unit sine and returns the
// peak absolute output.
func MeasurePeak(sampleRate, toneHz float64, samples int, params hysteresis.Params) (float64, error) {
	model, err := hysteresis.NewModel(sampleRate, params)
	if err != nil {
		return 0, err
	}

	buf := make([]float64, samples)
	w := 2 * math.Pi * toneHz / sampleRate
	for i := range buf {
		buf[i] = math.Sin(w * float64(i))
	}
	model.ProcessBlock(buf, buf)

	peak := analysis.Peak(buf)
	if !(peak > 0) || math.IsInf(peak, 0) || model.Degeneracies() > 0 {
		return 0, fmt.Errorf("no usable peak at drive=%v saturation=%v width=%v",
			params.Drive, params.Saturation, params.Width)
	}
	return peak, nil
}

// Sweep measures every grid point with bounded concurrency.
func Sweep(ctx context.Context, cfg SweepConfig) (*dataset.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	grid := cfg.Grid()
	records := make([]dataset.Record, len(grid))

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range grid {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			peak, err := MeasurePeak(cfg.SampleRate, cfg.ToneHz, cfg.Samples, p)
			if err != nil {
				return err
			}
			records[i] = dataset.Record{
				Drive:      p.Drive,
				Saturation: p.Saturation,
				Width:      p.Width,
				Peak:       peak,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dataset.Dataset{
		SampleRate: cfg.SampleRate,
		ToneHz:     cfg.ToneHz,
		Samples:    cfg.Samples,
		Records:    records,
	}, nil
}

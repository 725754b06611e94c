// Command fit-makeup measures the hysteresis model over a parameter grid and
// fits the makeup-gain polynomial, writing it as Go source.
//
// Usage:
//
//	fit-makeup -out internal/hysteresis/makeup_table.go
//	fit-makeup -dataset sweep.msgpack.zst -out -        # keep the measurements
//	fit-makeup -load sweep.npy -out makeup_table.go     # refit without sweeping
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/tphakala/go-tape-hysteresis/internal/calibrate"
	"github.com/tphakala/go-tape-hysteresis/internal/dataset"
	"github.com/tphakala/go-tape-hysteresis/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fit-makeup", flag.ContinueOnError)
	fs.SetOutput(stderr)

	sweep := calibrate.DefaultSweepConfig()
	out := fs.String("out", "-", "Output Go file, - for stdout")
	save := fs.String("dataset", "", "Save the sweep to this .npy or .msgpack.zst file")
	load := fs.String("load", "", "Fit a saved dataset instead of sweeping")
	ridge := fs.Float64("ridge", calibrate.DefaultRidge, "Ridge regularization")
	fs.Float64Var(&sweep.SampleRate, "rate", sweep.SampleRate, "Sample rate in Hz")
	fs.Float64Var(&sweep.ToneHz, "tone", sweep.ToneHz, "Test tone frequency in Hz")
	fs.IntVar(&sweep.Samples, "samples", sweep.Samples, "Samples per measurement")
	fs.IntVar(&sweep.DrivePoints, "drive-points", sweep.DrivePoints, "Grid points for drive")
	fs.IntVar(&sweep.SaturationPoints, "saturation-points", sweep.SaturationPoints, "Grid points for saturation")
	fs.IntVar(&sweep.WidthPoints, "width-points", sweep.WidthPoints, "Grid points for width")
	fs.IntVar(&sweep.Workers, "workers", 0, "Concurrent measurements (0: GOMAXPROCS)")
	verbose := fs.Bool("v", false, "Verbose output")
	logDir := fs.String("log-dir", ".", "Directory for the rotating log file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Dir:     *logDir,
		Name:    "fit-makeup.slog",
		Verbose: *verbose,
		Stderr:  stderr,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	var ds *dataset.Dataset
	if *load != "" {
		ds, err = dataset.Load(*load)
		if err != nil {
			return err
		}
		logger.Info("dataset loaded", "path", *load, "records", len(ds.Records))
	} else {
		if err := sweep.Validate(); err != nil {
			return fmt.Errorf("invalid sweep: %w", err)
		}
		logger.Info("sweep started", "points", len(sweep.Grid()), "rate", sweep.SampleRate, "tone", sweep.ToneHz)
		ds, err = calibrate.Sweep(ctx, sweep)
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		logger.Info("sweep finished", "records", len(ds.Records), "elapsed", logger.Elapsed())
	}

	if *save != "" {
		if err := dataset.Save(*save, ds); err != nil {
			return err
		}
		logger.Info("dataset saved", "path", *save)
	}

	fit, err := calibrate.FitMakeup(ds.Records, *ridge)
	if err != nil {
		return err
	}
	logger.Info("fit finished",
		"points", fit.Points,
		"max_rel_error", fit.MaxRelError,
		"mean_rel_error", fit.MeanRelError,
		"std_rel_error", fit.StdRelError)

	var src bytes.Buffer
	if err := calibrate.WriteGoTable(&src, fit); err != nil {
		return err
	}

	if *out == "-" {
		_, err = stdout.Write(src.Bytes())
		return err
	}
	if err := os.WriteFile(*out, src.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	fmt.Fprintf(stdout, "Fitted %d points: max relative error %.2f%%, mean %.2f%%\n",
		fit.Points, 100*fit.MaxRelError, 100*fit.MeanRelError)
	fmt.Fprintf(stdout, "Wrote %s\n", *out)
	return nil
}

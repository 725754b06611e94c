// Command tape-wav runs WAV audio files through the tape hysteresis stage.
//
// Usage:
//
//	tape-wav input.wav output.wav
//	tape-wav -preset hot input.wav output.wav
//	tape-wav -drive 0.6 -width 0.8 -oversample 2 input.wav output.wav
//	tape-wav -presets ~/tape.yaml -preset master -align input.wav out.wav
//
// Presets are looked up in tape-presets.{yaml,toml,json} under
// $HOME/.config/tape-wav and the working directory unless -presets names a
// file. Flags given explicitly override the preset.
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
	"runtime/pprof"

	tape "github.com/tphakala/go-tape-hysteresis"
	"github.com/tphakala/go-tape-hysteresis/internal/logging"
)

const (
	// Frames per processing chunk.
	bufferFrames = 8192

	minRequiredArgs = 2
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

// options is the parsed command line.
type options struct {
	preset      string
	presetsFile string
	overrides   preset
	set         map[string]bool

	align    bool
	parallel bool
	verbose  bool
	logDir   string
	logLevel string
	cpuprof  string

	input, output string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("tape-wav", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{set: make(map[string]bool)}
	fs.StringVar(&o.preset, "preset", defaultPresetName, "Named preset to start from")
	fs.StringVar(&o.presetsFile, "presets", "", "Preset file (YAML, TOML or JSON)")
	fs.Float64Var(&o.overrides.Drive, "drive", 0, "Drive in [0, 1]")
	fs.Float64Var(&o.overrides.Saturation, "saturation", 0, "Saturation in [0, 1]")
	fs.Float64Var(&o.overrides.Width, "width", 0, "Loop width in [0, 1)")
	fs.IntVar(&o.overrides.Oversampling, "oversample", 0, "Oversampling factor (1, 2 or 4)")
	fs.StringVar(&o.overrides.Mode, "mode", "", "Filter mode: polyphase or direct")
	fs.StringVar(&o.overrides.Nonlinearity, "nonlinearity", "", "Nonlinearity: hysteresis or clipper")
	fs.BoolVar(&o.overrides.Makeup, "makeup", true, "Apply makeup gain")
	fs.BoolVar(&o.align, "align", false, "Remove the filter latency so output lines up with input")
	fs.BoolVar(&o.parallel, "parallel", true, "Process channels concurrently")
	fs.BoolVar(&o.verbose, "v", false, "Verbose output")
	fs.StringVar(&o.logDir, "log-dir", "", "Directory for the rotating log file (default: user cache dir)")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&o.cpuprof, "cpuprofile", "", "Write CPU profile to file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tape-wav [options] input.wav output.wav\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if fs.NArg() < minRequiredArgs {
		fs.Usage()
		return nil, fmt.Errorf("insufficient arguments")
	}
	o.input, o.output = fs.Arg(0), fs.Arg(1)
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	if opts.cpuprof != "" {
		f, err := os.Create(opts.cpuprof)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	logDir := opts.logDir
	if logDir == "" {
		logDir = defaultLogDir()
	}
	logger, err := logging.New(logging.Options{
		Dir:     logDir,
		Name:    "tape-wav.slog",
		Level:   opts.logLevel,
		Verbose: opts.verbose,
		Stderr:  stderr,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	p, err := loadPreset(opts.presetsFile, opts.preset)
	if err != nil {
		return err
	}
	p = p.override(opts.overrides, opts.set)

	logger.Info("processing",
		"input", opts.input, "output", opts.output, "preset", opts.preset,
		"drive", p.Drive, "saturation", p.Saturation, "width", p.Width,
		"oversampling", p.Oversampling, "mode", p.Mode, "nonlinearity", p.Nonlinearity)

	stats, err := processWAV(opts.input, opts.output, p, opts.align, opts.parallel)
	if err != nil {
		logger.Error("processing failed", "error", err)
		return err
	}

	elapsed := logger.Elapsed()
	logger.Info("done",
		"frames", stats.frames, "degeneracies", stats.degeneracies,
		"latency", stats.latency, "elapsed", elapsed)

	fmt.Fprintf(stdout, "Processed %s -> %s\n", filepath.Base(opts.input), filepath.Base(opts.output))
	fmt.Fprintf(stdout, "  %d Hz, %d channels, %d-bit, %d frames\n",
		stats.sampleRate, stats.channels, stats.bitDepth, stats.frames)
	fmt.Fprintf(stdout, "  drive %.2f, saturation %.2f, width %.2f, %dx %s\n",
		p.Drive, p.Saturation, p.Width, p.Oversampling, p.Mode)
	if stats.degeneracies > 0 {
		fmt.Fprintf(stdout, "  %d integration resets\n", stats.degeneracies)
	}
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(stdout, "  Duration: %.2fs, Speed: %.1fx realtime\n",
			secs, float64(stats.frames)/float64(stats.sampleRate)/secs)
	}
	return nil
}

// processStats summarizes one processed file.
type processStats struct {
	sampleRate   int
	channels     int
	bitDepth     int
	frames       int64
	latency      float64
	degeneracies uint64
}

func processWAV(inputPath, outputPath string, p preset, align, parallel bool) (stats *processStats, err error) {
	input, err := openWAVInput(inputPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	cfg, err := p.config(float64(input.rate), input.channels)
	if err != nil {
		return nil, err
	}
	cfg.EnableParallel = parallel
	cfg.MaxBlockSize = bufferFrames

	proc, err := tape.New(&cfg)
	if err != nil {
		return nil, err
	}

	output, err := createWAVOutput(outputPath, input.rate, input.bitDepth, input.channels)
	if err != nil {
		return nil, err
	}
	// Close errors matter on success: the encoder rewrites the header sizes.
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	stats = &processStats{
		sampleRate: input.rate,
		channels:   input.channels,
		bitDepth:   input.bitDepth,
		latency:    proc.Latency(),
	}

	bufs := newProcessBuffers(input.channels, input.bitDepth, input.format)
	skip := 0
	if align {
		skip = latencyFrames(proc.Latency())
	}
	sink := &alignedSink{out: output, bufs: bufs, skip: skip}

	for {
		n, err := input.decoder.PCMBuffer(bufs.in)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		frames := n / input.channels
		if frames == 0 {
			break
		}

		bufs.in.Data = bufs.in.Data[:frames*input.channels]
		deinterleaveInto(bufs.in.Data, bufs.channels, frames, bufs.invMaxVal)
		if err := sink.process(proc, frames); err != nil {
			return nil, err
		}
		stats.frames += int64(frames)
		bufs.in.Data = bufs.in.Data[:cap(bufs.in.Data)]
	}

	// Feed silence through the delay so the aligned output keeps the
	// input length.
	for remaining := skip; align && remaining > 0; {
		frames := min(remaining, bufferFrames)
		for ch := range bufs.channels {
			clear(bufs.channels[ch][:frames])
		}
		if err := sink.process(proc, frames); err != nil {
			return nil, err
		}
		remaining -= frames
	}

	stats.degeneracies = proc.Degeneracies()
	return stats, nil
}

// latencyFrames rounds the fractional filter delay to whole base-rate frames.
func latencyFrames(latency float64) int {
	return int(math.Round(latency))
}

func defaultLogDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "tape-wav")
	}
	return ""
}

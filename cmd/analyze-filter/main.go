// Command analyze-filter reports on the bundled oversampling lowpass tables:
// per-phase DC gains, group delay, passband ripple and stopband attenuation.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/tphakala/go-tape-hysteresis/internal/filter"
)

const (
	// Band edges as a fraction of the base-rate Nyquist frequency. The
	// passband covers 20 kHz of a 48 kHz stream; the stopband starts where
	// the first image would fold back into it.
	passbandFraction = 0.8333
	stopbandFraction = 1.1667

	defaultPoints = 8192
)

func main() {
	points := flag.Int("points", defaultPoints, "Frequency response resolution")
	flag.Parse()

	if err := run(os.Stdout, *points); err != nil {
		log.Fatal(err)
	}
}

func run(w io.Writer, points int) error {
	fmt.Fprintln(w, "=== Bundled Oversampling Filters ===")

	for _, factor := range filter.Factors() {
		coeffs, err := filter.Table(factor)
		if err != nil {
			return err
		}
		if err := filter.ValidateTable(coeffs); err != nil {
			return fmt.Errorf("%dx table: %w", factor, err)
		}

		// Edges in cycles per oversampled sample; base Nyquist is 0.5/factor.
		nyquist := 0.5 / float64(factor)
		passEdge := passbandFraction * nyquist
		stopEdge := stopbandFraction * nyquist

		fmt.Fprintf(w, "\n%dx oversampling\n", factor)
		fmt.Fprintf(w, "  Taps:              %d\n", len(coeffs))
		fmt.Fprintf(w, "  Group delay:       %.2f oversampled, %.3f base-rate samples\n",
			filter.GroupDelay(coeffs), filter.GroupDelay(coeffs)/float64(factor))

		var dc float64
		fmt.Fprintln(w, "  DC gain per phase:")
		for phase, g := range filter.PhaseGains(coeffs, factor) {
			fmt.Fprintf(w, "    Phase %d: %.10f\n", phase, g)
			dc += g
		}
		fmt.Fprintf(w, "  Total DC gain:     %.10f\n", dc)

		fmt.Fprintf(w, "  Passband ripple:   %.4f dB (up to %.4f cycles/sample)\n",
			filter.PassbandRipple(coeffs, passEdge, points), passEdge)
		fmt.Fprintf(w, "  Stopband atten.:   %.1f dB (from %.4f cycles/sample)\n",
			filter.StopbandAttenuation(coeffs, stopEdge, points), stopEdge)
	}
	return nil
}

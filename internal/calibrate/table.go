package calibrate

import (
	"bytes"
	"fmt"
	"go/format"
	"io"

	"github.com/tphakala/go-tape-hysteresis/internal/hysteresis"
)

// WriteGoTable writes fit as the generated makeup_table.go source of package
// hysteresis.
func WriteGoTable(w io.Writer, fit *Fit) error {
	if len(fit.Coefficients) != hysteresis.NumCoefficients {
		return fmt.Errorf("fit has %d coefficients, want %d", len(fit.Coefficients), hysteresis.NumCoefficients)
	}

	d := fit.Domain
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by fit-makeup. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package hysteresis\n\n")
	fmt.Fprintf(&buf, "// defaultMakeupCoefficients holds the makeup-gain polynomial: %d weights\n", hysteresis.NumFeatures)
	fmt.Fprintf(&buf, "// followed by the bias. Fitted from %d points over drive [%v, %v],\n",
		fit.Points, d.DriveMin, d.DriveMax)
	fmt.Fprintf(&buf, "// saturation [%v, %v], width [%v, %v]; max relative error %.2f%%.\n",
		d.SaturationMin, d.SaturationMax, d.WidthMin, d.WidthMax, 100*fit.MaxRelError)
	fmt.Fprintf(&buf, "var defaultMakeupCoefficients = [NumCoefficients]float64{\n")
	for _, c := range fit.Coefficients {
		fmt.Fprintf(&buf, "\t%v,\n", c)
	}
	fmt.Fprintf(&buf, "}\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to format generated table: %w", err)
	}
	_, err = w.Write(src)
	return err
}

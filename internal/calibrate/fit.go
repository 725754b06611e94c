package calibrate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/go-tape-hysteresis/internal/dataset"
	"github.com/tphakala/go-tape-hysteresis/internal/hysteresis"
)

// DefaultRidge regularizes the normal equations. The monomial basis over
// (drive, saturation, width, 1) repeats several terms, so the unregularized
// system is singular.
const DefaultRidge = 1e-7

// ErrIllConditioned is returned when the normal equations cannot be factored.
var ErrIllConditioned = errors.New("calibrate: normal equations are not positive definite")

// Domain is the parameter box a fit was made over.
type Domain struct {
	DriveMin, DriveMax           float64
	SaturationMin, SaturationMax float64
	WidthMin, WidthMax           float64
}

// Fit is a fitted makeup polynomial and how well it matches the data.
type Fit struct {
	Coefficients []float64

	Points       int
	Domain       Domain
	MaxRelError  float64
	MeanRelError float64
	StdRelError  float64
}

// Polynomial builds the model-side polynomial from the fit.
func (f *Fit) Polynomial() (*hysteresis.Polynomial, error) {
	return hysteresis.NewPolynomial(f.Coefficients)
}

// FitMakeup fits gain(drive, saturation, width) ≈ 1/peak by ridge
// regression, weighting each row by the target so the relative error is
// minimized.
func FitMakeup(records []dataset.Record, ridge float64) (*Fit, error) {
	if len(records) == 0 {
		return nil, errors.New("no records to fit")
	}
	if ridge < 0 || math.IsNaN(ridge) {
		return nil, fmt.Errorf("ridge %v must be non-negative", ridge)
	}

	targets := make([]float64, len(records))
	rows := mat.NewDense(len(records), hysteresis.NumCoefficients, nil)
	for i, r := range records {
		if !(r.Peak > 0) || math.IsInf(r.Peak, 0) {
			return nil, fmt.Errorf("record %d has unusable peak %v", i, r.Peak)
		}
		y := 1 / r.Peak
		targets[i] = y
		rows.SetRow(i, featureRow(r))
		// Weighted row: φ_i·w/y_i ≈ 1.
		floats.Scale(1/y, rows.RawRowView(i))
	}

	var normal mat.SymDense
	normal.SymOuterK(1, rows.T())
	for i := range hysteresis.NumCoefficients {
		normal.SetSym(i, i, normal.At(i, i)+ridge)
	}

	ones := make([]float64, len(records))
	floats.AddConst(1, ones)
	var rhs mat.VecDense
	rhs.MulVec(rows.T(), mat.NewVecDense(len(ones), ones))

	var chol mat.Cholesky
	if ok := chol.Factorize(&normal); !ok {
		return nil, ErrIllConditioned
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return nil, fmt.Errorf("failed to solve normal equations: %w", err)
	}

	fit := &Fit{
		Coefficients: make([]float64, hysteresis.NumCoefficients),
		Points:       len(records),
		Domain:       domainOf(records),
	}
	copy(fit.Coefficients, w.RawVector().Data)

	poly, err := fit.Polynomial()
	if err != nil {
		return nil, err
	}
	relErr := make([]float64, len(records))
	for i, r := range records {
		got := poly.Eval(r.Drive, r.Saturation, r.Width)
		relErr[i] = math.Abs(got-targets[i]) / targets[i]
	}
	fit.MaxRelError = floats.Max(relErr)
	fit.MeanRelError, fit.StdRelError = stat.MeanStdDev(relErr, nil)

	return fit, nil
}

// featureRow is the polynomial's monomials followed by the bias column.
func featureRow(r dataset.Record) []float64 {
	f := hysteresis.Features(r.Drive, r.Saturation, r.Width)
	row := make([]float64, hysteresis.NumCoefficients)
	copy(row, f[:])
	row[hysteresis.NumFeatures] = 1
	return row
}

func domainOf(records []dataset.Record) Domain {
	col := func(get func(dataset.Record) float64) []float64 {
		out := make([]float64, len(records))
		for i, r := range records {
			out[i] = get(r)
		}
		return out
	}
	d := col(func(r dataset.Record) float64 { return r.Drive })
	s := col(func(r dataset.Record) float64 { return r.Saturation })
	w := col(func(r dataset.Record) float64 { return r.Width })

	return Domain{
		DriveMin: floats.Min(d), DriveMax: floats.Max(d),
		SaturationMin: floats.Min(s), SaturationMax: floats.Max(s),
		WidthMin: floats.Min(w), WidthMax: floats.Max(w),
	}
}

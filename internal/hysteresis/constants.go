package hysteresis

// Jiles-Atherton model constants.
const (
	// Alpha is the mean-field coupling between domains.
	Alpha = 1.6e-3

	// K is the coercivity term, 30·0.5⁶ + 0.01. It does not depend on the
	// width control.
	K = 30.0*(0.5*0.5*0.5*0.5*0.5*0.5) + 0.01

	// Beta damps the trapezoidal differentiator. β = 1 gives the classic
	// 2/T form, which rings at Nyquist.
	Beta = 0.75

	// MaxMagnetization bounds |M|; larger values are treated as a runaway
	// integration and reset.
	MaxMagnetization = 20.0
)

// Parameter mapping from the normalized controls.
const (
	msBase      = 0.5  // M_s at full saturation
	msRange     = 1.5  // added M_s at zero saturation
	driveOffset = 0.01 // keeps a finite at zero drive
	driveScale  = 6.0
	widthOffset = 0.01
)

// Langevin small-argument fallback.
const (
	langevinThreshold = 1e-4
	langevinSlope     = 1.0 / 3.0 // L(x) ≈ x/3 and L'(x) ≈ 1/3 near 0
)

// RK4 stencil weights.
const (
	rk4Half  = 0.5
	rk4Sixth = 1.0 / 6.0
	rk4Third = 1.0 / 3.0
)

// Makeup polynomial layout.
const (
	// NumFeatures is the number of monomials: 10 of degree 2 and 20 of
	// degree 3 over (drive, saturation, width, 1).
	NumFeatures = 30

	// NumCoefficients is NumFeatures weights plus the bias.
	NumCoefficients = NumFeatures + 1

	polynomialInputs = 4

	// MakeupMinDrive is the lowest drive the bundled table was fitted at.
	// Below it the polynomial extrapolates and the normalized peak falls
	// well short of 1 (about 0.6 at drive 0.1, near silence at 0).
	MakeupMinDrive = 0.25
)

package hysteresis

import (
	"fmt"
	"math"
)

// Params are the three normalized user controls.
type Params struct {
	// Drive scales the input field; in [0, 1].
	Drive float64

	// Saturation lowers the saturation magnetization as it rises; in [0, 1].
	Saturation float64

	// Width widens the hysteresis loop; in [0, 1). At 1 the reversibility
	// term reaches its singular limit, so values close to 1 (above ~0.999)
	// are numerically fragile even though they validate.
	Width float64
}

// DefaultParams returns the tape machine's default controls.
func DefaultParams() Params {
	return Params{Drive: 1.0, Saturation: 0.9, Width: 0.5}
}

// Validate checks the control ranges.
func (p Params) Validate() error {
	if !inUnitInterval(p.Drive) {
		return fmt.Errorf("drive %v must be in [0, 1]", p.Drive)
	}
	if !inUnitInterval(p.Saturation) {
		return fmt.Errorf("saturation %v must be in [0, 1]", p.Saturation)
	}
	if !(p.Width >= 0 && p.Width < 1) {
		return fmt.Errorf("width %v must be in [0, 1)", p.Width)
	}
	return nil
}

// coefficients are the physical parameters derived from Params.
type coefficients struct {
	ms      float64 // saturation magnetization M_s
	a       float64 // anhysteretic shape
	c       float64 // reversibility
	msOverA float64
}

func derive(p Params) coefficients {
	ms := msBase + msRange*(1-p.Saturation)
	a := ms / (driveOffset + driveScale*p.Drive)
	return coefficients{
		ms:      ms,
		a:       a,
		c:       math.Sqrt(1-p.Width) - widthOffset,
		msOverA: ms / a,
	}
}

func inUnitInterval(x float64) bool {
	return x >= 0 && x <= 1
}

package tape

// Common sample rates.
const (
	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateDAT is the DAT/DVD sample rate.
	RateDAT = 48000

	// RateHiRes96 is the high-resolution 2x DAT sample rate.
	RateHiRes96 = 96000

	// RateHiRes192 is the very high resolution 4x DAT sample rate.
	RateHiRes192 = 192000
)

// Defaults of the tape machine.
const (
	defaultDrive        = 1.0
	defaultSaturation   = 0.9
	defaultWidth        = 0.5
	defaultOversampling = 4
)

// Configuration limits.
const (
	maxOversampling = 16
	maxChannels     = 32
)

// Channel layout.
const (
	stereoChannels = 2
)

package panel

import "errors"

// Domain errors for the panel package.
var (
	// ErrBounced is returned when a tap repeats the previous button inside
	// the bounce window. Nothing is dispatched.
	ErrBounced = errors.New("panel: tap ignored, button bounce")

	// ErrInvalidMode is returned for a power mode other than ON or OFF.
	ErrInvalidMode = errors.New("panel: invalid power mode")
)

package seismic

import "errors"

// Error kinds. Every failure returned by this package wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	ErrTimeParse            = errors.New("arrival time is not a valid time of day")
	ErrNonPositiveInterval  = errors.New("s-wave must arrive after p-wave")
	ErrNonPositiveAmplitude = errors.New("amplitude must be positive")
	ErrNonFiniteAmplitude   = errors.New("amplitude must be finite")
	ErrUnknownEnergyMethod  = errors.New("unknown energy method")
	ErrInvalidVelocityModel = errors.New("invalid velocity model")
	ErrDegenerateGeometry   = errors.New("degenerate station geometry")
	ErrTrilateration        = errors.New("inconsistent or reversed arrival-time inputs")
	ErrMissingEvent         = errors.New("station has no recorded event")
)

package domain

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/epicenter-locator/internal/seismic"
)

var (
	ErrInvalidRequest    = errors.New("invalid solve request")
	ErrStationCount      = errors.New("exactly three stations are required")
	ErrUnresolvedStation = errors.New("station location could not be resolved")

	// ErrGeocoderUnavailable marks a forward geocoding call that failed in
	// transport rather than finding no match. It always accompanies
	// ErrUnresolvedStation.
	ErrGeocoderUnavailable = errors.New("geocoder unavailable")
)

// StationError attributes a failure to one station of a request.
type StationError struct {
	Index int
	Name  string
	Err   error
}

func (e *StationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("station %d (%s): %v", e.Index+1, e.Name, e.Err)
	}
	return fmt.Sprintf("station %d: %v", e.Index+1, e.Err)
}

func (e *StationError) Unwrap() error {
	return e.Err
}

// Error kind labels, stable for metrics and API responses.
const (
	KindTimeParse            = "time_parse"
	KindNonPositiveInterval  = "non_positive_interval"
	KindNonPositiveAmplitude = "non_positive_amplitude"
	KindNonFiniteAmplitude   = "non_finite_amplitude"
	KindUnknownEnergyMethod  = "unknown_energy_method"
	KindInvalidVelocityModel = "invalid_velocity_model"
	KindDegenerateGeometry   = "degenerate_geometry"
	KindTrilateration        = "trilateration"
	KindMissingEvent         = "missing_event"
	KindStationCount         = "station_count"
	KindUnresolvedStation    = "unresolved_station"
	KindInvalidRequest       = "invalid_request"
	KindInternal             = "internal"
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{seismic.ErrTimeParse, KindTimeParse},
	{seismic.ErrNonPositiveInterval, KindNonPositiveInterval},
	{seismic.ErrNonPositiveAmplitude, KindNonPositiveAmplitude},
	{seismic.ErrNonFiniteAmplitude, KindNonFiniteAmplitude},
	{seismic.ErrUnknownEnergyMethod, KindUnknownEnergyMethod},
	{seismic.ErrInvalidVelocityModel, KindInvalidVelocityModel},
	{seismic.ErrDegenerateGeometry, KindDegenerateGeometry},
	{seismic.ErrTrilateration, KindTrilateration},
	{seismic.ErrMissingEvent, KindMissingEvent},
	{ErrStationCount, KindStationCount},
	{ErrUnresolvedStation, KindUnresolvedStation},
	{ErrInvalidRequest, KindInvalidRequest},
}

// ErrorKind classifies err into one of the Kind* labels. Unrecognized errors
// are KindInternal; nil is the empty string.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsInputError reports whether err was caused by the readings themselves, as
// opposed to station geometry, geocoding, or an internal fault.
func IsInputError(err error) bool {
	switch ErrorKind(err) {
	case KindTimeParse, KindNonPositiveInterval, KindNonPositiveAmplitude, KindNonFiniteAmplitude,
		KindUnknownEnergyMethod, KindInvalidVelocityModel, KindMissingEvent,
		KindStationCount, KindInvalidRequest:
		return true
	default:
		return false
	}
}

// IsTransient reports whether err came from an unavailable dependency, so the
// same request may succeed when retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrGeocoderUnavailable)
}

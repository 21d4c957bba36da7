package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/epicenter-locator/internal/seismic"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// StationReading is one station's observation as submitted by a caller.
// Either Lat/Lon or Address must be set; an address is geocoded when the
// coordinates are missing.
type StationReading struct {
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	PArrival    string   `json:"p_arrival"`
	SArrival    string   `json:"s_arrival"`
	AmplitudeMM float64  `json:"amplitude_mm"`

	// GeoSource records where the coordinates came from once resolved.
	GeoSource string `json:"-"`
}

// HasCoordinates reports whether both latitude and longitude were supplied.
func (r StationReading) HasCoordinates() bool {
	return r.Lat != nil && r.Lon != nil
}

// ModelOverride replaces parts of the service's velocity model for one request.
type ModelOverride struct {
	VS           float64 `json:"vs,omitempty"`
	VP           float64 `json:"vp,omitempty"`
	TimeLayout   string  `json:"time_layout,omitempty"`
	EnergyMethod string  `json:"energy_method,omitempty"`
}

// SolveRequest asks for one epicenter from exactly three station readings.
type SolveRequest struct {
	ID       string           `json:"id,omitempty"`
	Stations []StationReading `json:"stations"`
	Model    *ModelOverride   `json:"model,omitempty"`
}

// Geo represents a latitude/longitude pair in decimal degrees.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// StationSummary reports a station's reading and the quantities derived from it.
type StationSummary struct {
	Name          string  `json:"name"`
	Geo           Geo     `json:"geo"`
	GeoSource     string  `json:"geo_source"` // "request" or "forward"
	DeltaSec      int64   `json:"delta_sec"`
	AmplitudeMM   float64 `json:"amplitude_mm"`
	DistanceKm    float64 `json:"distance_km"`
	Magnitude     float64 `json:"magnitude"`
	SeismicMoment float64 `json:"seismic_moment"`
	Energy        float64 `json:"energy"`

	// Great-circle distance from the solved epicenter, and how far the
	// arrival-time estimate is from it.
	EpicenterDistanceKm float64 `json:"epicenter_distance_km"`
	ResidualKm          float64 `json:"residual_km"`
}

// ModelSummary echoes the velocity model a report was computed with.
type ModelSummary struct {
	VS           float64 `json:"vs"`
	VP           float64 `json:"vp"`
	Vsp          float64 `json:"vsp"`
	EnergyMethod string  `json:"energy_method"`
}

// EpicenterReport is the result of a successful solve.
type EpicenterReport struct {
	ID           string           `json:"id"`
	Epicenter    Geo              `json:"epicenter"`
	Stations     []StationSummary `json:"stations"`
	Model        ModelSummary     `json:"model"`
	MaxMagnitude float64          `json:"max_magnitude"`

	// Reverse geocoding enrichment fields.
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "reverse", "original", "failed"

	ProcessedAt time.Time `json:"processed_at"`
}

// Point converts the epicenter to the solver's coordinate type.
func (r EpicenterReport) Point() seismic.Point {
	return seismic.Point{Lat: r.Epicenter.Lat, Lon: r.Epicenter.Lon}
}

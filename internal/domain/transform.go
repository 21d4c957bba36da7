package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/epicenter-locator/internal/seismic"
)

// stationsPerSolve is fixed by the trilateration method.
const stationsPerSolve = 3

// ParseSolveRequest deserializes a RawEvent's value into a SolveRequest.
// Requests without an ID take the message key, or a deterministic hash of
// their readings when the key is empty too.
func ParseSolveRequest(raw RawEvent) (SolveRequest, error) {
	var req SolveRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return SolveRequest{}, fmt.Errorf("parse solve request: %w: %w", ErrInvalidRequest, err)
	}
	if len(req.Stations) != stationsPerSolve {
		return SolveRequest{}, fmt.Errorf("parse solve request: %w: got %d", ErrStationCount, len(req.Stations))
	}
	for i, st := range req.Stations {
		if (st.Lat == nil) != (st.Lon == nil) {
			return SolveRequest{}, fmt.Errorf("parse solve request: %w", &StationError{
				Index: i,
				Name:  st.Name,
				Err:   fmt.Errorf("%w: lat and lon must be given together", ErrInvalidRequest),
			})
		}
	}

	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if req.ID == "" {
		req.ID = generateID(req)
	}
	return req, nil
}

// generateID produces a deterministic ID from the request's readings, so a
// replayed message yields the same report key.
func generateID(req SolveRequest) string {
	var b strings.Builder
	for _, st := range req.Stations {
		location := st.Address
		if st.HasCoordinates() {
			location = fmt.Sprintf("%.6f,%.6f", *st.Lat, *st.Lon)
		}
		fmt.Fprintf(&b, "%s|%s|%s|%s|%g;", st.Name, location, st.PArrival, st.SArrival, st.AmplitudeMM)
	}
	hash := sha256.Sum256([]byte(b.String()))
	return "quake-" + hex.EncodeToString(hash[:8])
}

// ResolveModel applies a per-request override on top of the service model.
func ResolveModel(base seismic.Model, override *ModelOverride) seismic.Model {
	if override == nil {
		return base
	}
	if override.VS != 0 {
		base.VS = override.VS
	}
	if override.VP != 0 {
		base.VP = override.VP
	}
	if override.TimeLayout != "" {
		base.TimeLayout = override.TimeLayout
	}
	if override.EnergyMethod != "" {
		base.EnergyMethod = seismic.EnergyMethod(override.EnergyMethod)
	}
	return base
}

// Locate derives each station's wave-arrival event and solves for the
// epicenter. Every station must already have coordinates; see
// ResolveStations.
func Locate(req SolveRequest, base seismic.Model) (EpicenterReport, error) {
	if len(req.Stations) != stationsPerSolve {
		return EpicenterReport{}, fmt.Errorf("%w: got %d", ErrStationCount, len(req.Stations))
	}

	model := ResolveModel(base, req.Model)
	if err := model.Validate(); err != nil {
		return EpicenterReport{}, err
	}

	var stations [stationsPerSolve]*seismic.Station
	for i, st := range req.Stations {
		if !st.HasCoordinates() {
			return EpicenterReport{}, &StationError{Index: i, Name: st.Name, Err: fmt.Errorf("%w: missing coordinates", ErrUnresolvedStation)}
		}
		ev, err := seismic.NewWaveArrivalEvent(st.PArrival, st.SArrival, st.AmplitudeMM, model)
		if err != nil {
			return EpicenterReport{}, &StationError{Index: i, Name: st.Name, Err: err}
		}
		stations[i] = seismic.NewStation(st.Name, seismic.Point{Lat: *st.Lat, Lon: *st.Lon}).AddEvent(ev)
	}

	quake, err := seismic.NewEarthquake(stations[0], stations[1], stations[2])
	if err != nil {
		return EpicenterReport{}, err
	}
	epicenter, err := quake.Epicenter()
	if err != nil {
		return EpicenterReport{}, fmt.Errorf("locate %s: %w", req.ID, err)
	}

	report := EpicenterReport{
		ID:           req.ID,
		Epicenter:    Geo{Lat: epicenter.Lat, Lon: epicenter.Lon},
		Stations:     make([]StationSummary, 0, stationsPerSolve),
		Model:        summarizeModel(model),
		MaxMagnitude: math.Inf(-1),
		ProcessedAt:  clock.Now().UTC(),
	}
	for i, r := range quake.Readings() {
		report.Stations = append(report.Stations, summarizeStation(r, req.Stations[i].GeoSource, epicenter))
		report.MaxMagnitude = math.Max(report.MaxMagnitude, r.Event.Magnitude)
	}
	return report, nil
}

func summarizeStation(r seismic.Reading, geoSource string, epicenter seismic.Point) StationSummary {
	if geoSource == "" {
		geoSource = "request"
	}
	loc := r.Station.Location()
	gc := seismic.GreatCircleDistance(epicenter, loc)
	return StationSummary{
		Name:                r.Station.Name(),
		Geo:                 Geo{Lat: loc.Lat, Lon: loc.Lon},
		GeoSource:           geoSource,
		DeltaSec:            r.Event.DeltaSec,
		AmplitudeMM:         r.Event.AmplitudeMM,
		DistanceKm:          r.Event.DistanceKm,
		Magnitude:           r.Event.Magnitude,
		SeismicMoment:       r.Event.SeismicMoment,
		Energy:              r.Event.Energy,
		EpicenterDistanceKm: gc,
		ResidualKm:          r.Event.DistanceKm - gc,
	}
}

func summarizeModel(m seismic.Model) ModelSummary {
	return ModelSummary{
		VS:           m.VS,
		VP:           m.VP,
		Vsp:          m.Vsp(),
		EnergyMethod: string(m.EnergyMethod),
	}
}

// SerializeReport marshals a report into an OutputEvent keyed by its ID.
func SerializeReport(report EpicenterReport) (OutputEvent, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize epicenter report: %w", err)
	}
	return OutputEvent{
		Key:   []byte(report.ID),
		Value: data,
		Headers: map[string]string{
			"type":         "epicenter",
			"processed_at": report.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// ResolveStations fills in coordinates for readings that only carry an
// address. Readings with coordinates are left untouched and never sent to
// the geocoder. A station that cannot be placed fails the whole request with
// ErrUnresolvedStation, since the solve needs all three locations.
func ResolveStations(ctx context.Context, req SolveRequest, geocoder Geocoder, logger *slog.Logger) (SolveRequest, error) {
	stations := make([]StationReading, len(req.Stations))
	copy(stations, req.Stations)
	req.Stations = stations

	for i := range req.Stations {
		st := &req.Stations[i]
		if st.HasCoordinates() {
			if st.GeoSource == "" {
				st.GeoSource = "request"
			}
			continue
		}
		if st.Address == "" {
			return req, &StationError{Index: i, Name: st.Name, Err: fmt.Errorf("%w: no coordinates or address", ErrUnresolvedStation)}
		}
		if geocoder == nil {
			return req, &StationError{Index: i, Name: st.Name, Err: fmt.Errorf("%w: geocoding is disabled", ErrUnresolvedStation)}
		}

		result, err := geocoder.ForwardGeocode(ctx, st.Address)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"request_id", req.ID,
				"station", st.Name,
				"address", st.Address,
				"error", err,
			)
			return req, &StationError{Index: i, Name: st.Name, Err: fmt.Errorf("%w: %w: %w", ErrUnresolvedStation, ErrGeocoderUnavailable, err)}
		}
		if result.Lat == 0 && result.Lon == 0 {
			return req, &StationError{Index: i, Name: st.Name, Err: fmt.Errorf("%w: no match for %q", ErrUnresolvedStation, st.Address)}
		}

		lat, lon := result.Lat, result.Lon
		st.Lat, st.Lon = &lat, &lon
		st.GeoSource = "forward"
		if st.Name == "" {
			st.Name = result.FormattedAddress
		}
		logger.Debug("station geocoded",
			"request_id", req.ID,
			"station", st.Name,
			"lat", lat,
			"lon", lon,
			"confidence", result.Confidence,
		)
	}
	return req, nil
}

// EnrichWithGeocoding attempts to describe the solved epicenter with a
// reverse geocode. If geocoder is nil or geocoding fails, the report is
// returned with GeoSource set accordingly (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, report EpicenterReport, geocoder Geocoder, logger *slog.Logger) EpicenterReport {
	if geocoder == nil {
		return report
	}

	result, err := geocoder.ReverseGeocode(ctx, report.Epicenter.Lat, report.Epicenter.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"request_id", report.ID,
			"lat", report.Epicenter.Lat,
			"lon", report.Epicenter.Lon,
			"error", err,
		)
		report.GeoSource = "failed"
		return report
	}
	if result.FormattedAddress != "" {
		report.FormattedAddress = result.FormattedAddress
		report.PlaceName = result.PlaceName
		report.GeoConfidence = result.Confidence
		report.GeoSource = "reverse"
		return report
	}

	report.GeoSource = "original"
	return report
}

package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/epicenter-locator/internal/domain"
	"github.com/couchcryptid/epicenter-locator/internal/seismic"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxRequestBytes = 1 << 20

// Solver locates one epicenter synchronously.
type Solver interface {
	Solve(ctx context.Context, req domain.SolveRequest) (domain.EpicenterReport, error)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type distanceResponse struct {
	From       domain.Geo `json:"from"`
	To         domain.Geo `json:"to"`
	DistanceKm float64    `json:"distance_km"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		s.writeError(w, fmt.Errorf("read body: %w: %w", domain.ErrInvalidRequest, err))
		return
	}

	req, err := domain.ParseSolveRequest(domain.RawEvent{Value: body})
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := s.solver.Solve(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	from, err := parseLatLon(r.URL.Query().Get("from"))
	if err != nil {
		s.writeError(w, fmt.Errorf("from: %w", err))
		return
	}
	to, err := parseLatLon(r.URL.Query().Get("to"))
	if err != nil {
		s.writeError(w, fmt.Errorf("to: %w", err))
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, distanceResponse{
		From:       domain.Geo{Lat: from.Lat, Lon: from.Lon},
		To:         domain.Geo{Lat: to.Lat, Lon: to.Lon},
		DistanceKm: seismic.GreatCircleDistance(from, to),
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("solve request failed", "status", status, "error", err)
	}
	sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error(), Kind: domain.ErrorKind(err)})
}

// statusFor maps an error to its HTTP status: the caller's readings are 400,
// readings that are well-formed but admit no epicenter are 422, and a
// geocoder that could not place a station is 502.
func statusFor(err error) int {
	switch {
	case domain.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, seismic.ErrDegenerateGeometry), errors.Is(err, seismic.ErrTrilateration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnresolvedStation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseLatLon reads a "lat,lon" pair in decimal degrees.
func parseLatLon(s string) (seismic.Point, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return seismic.Point{}, fmt.Errorf("%w: want lat,lon, got %q", domain.ErrInvalidRequest, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || lat < -90 || lat > 90 {
		return seismic.Point{}, fmt.Errorf("%w: latitude %q", domain.ErrInvalidRequest, latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil || lon < -180 || lon > 180 {
		return seismic.Point{}, fmt.Errorf("%w: longitude %q", domain.ErrInvalidRequest, lonStr)
	}
	return seismic.Point{Lat: lat, Lon: lon}, nil
}

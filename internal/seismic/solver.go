package seismic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// degenerateToleranceKm is the smallest separation, in kilometers, the solver
// treats as distinct when building its basis.
const degenerateToleranceKm = 1e-6

// SolveEpicenter returns the point on the sphere whose distances to the three
// stations match radiiKm, using closed-form trilateration in ECEF coordinates.
//
// The three spheres generally intersect in two points mirrored across the
// plane of the stations. Only the root on the +z side of the local basis
// (z = ex × ey, with ex toward station 2 and ey toward station 3) is returned.
// Small negative residues under the square root are folded with an absolute
// value; radii that are grossly inconsistent with the station geometry push
// the reconstructed point off the sphere and fail with ErrTrilateration.
func SolveEpicenter(stations [3]Point, radiiKm [3]float64) (Point, error) {
	for i, r := range radiiKm {
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			return Point{}, fmt.Errorf("%w: radius %d is %g km", ErrTrilateration, i+1, r)
		}
	}

	p1, p2, p3 := toECEF(stations[0]), toECEF(stations[1]), toECEF(stations[2])

	p21 := r3.Sub(p2, p1)
	d := r3.Norm(p21)
	if d < degenerateToleranceKm {
		return Point{}, fmt.Errorf("%w: stations 1 and 2 coincide at %s", ErrDegenerateGeometry, stations[0])
	}
	ex := r3.Scale(1/d, p21)

	p31 := r3.Sub(p3, p1)
	i := r3.Dot(ex, p31)
	perp := r3.Sub(p31, r3.Scale(i, ex))
	perpNorm := r3.Norm(perp)
	if perpNorm < degenerateToleranceKm {
		return Point{}, fmt.Errorf("%w: station 3 lies on the line through stations 1 and 2", ErrDegenerateGeometry)
	}
	if onOneGreatCircle(p1, p2, p3) {
		return Point{}, fmt.Errorf("%w: stations lie on a single great circle", ErrDegenerateGeometry)
	}
	ey := r3.Scale(1/perpNorm, perp)
	ez := r3.Cross(ex, ey)
	j := r3.Dot(ey, p31)

	r1, r2, r3sq := radiiKm[0]*radiiKm[0], radiiKm[1]*radiiKm[1], radiiKm[2]*radiiKm[2]

	x := (r1 - r2 + d*d) / (2 * d)
	y := ((r1 - r3sq + i*i + j*j) / (2 * j)) - (i/j)*x
	z := math.Sqrt(math.Abs(r1 - x*x - y*y))

	tri := r3.Add(r3.Add(r3.Add(p1, r3.Scale(x, ex)), r3.Scale(y, ey)), r3.Scale(z, ez))

	epicenter, err := fromECEF(tri)
	if err != nil {
		return Point{}, err
	}
	if math.IsNaN(epicenter.Lon) {
		return Point{}, fmt.Errorf("%w: longitude is undefined", ErrTrilateration)
	}
	return epicenter, nil
}

// onOneGreatCircle reports whether the three points are coplanar with the
// Earth's center. The mirror roots then both lie on the surface and the
// positive root is an arbitrary pick.
func onOneGreatCircle(p1, p2, p3 r3.Vec) bool {
	normal := r3.Cross(p1, p2)
	n := r3.Norm(normal)
	if n == 0 {
		return true
	}
	return math.Abs(r3.Dot(p3, r3.Scale(1/n, normal))) < degenerateToleranceKm
}

// Reading pairs a station with the event whose distance estimate it
// contributes to a solve.
type Reading struct {
	Station *Station
	Event   WaveArrivalEvent
}

// Earthquake is a single epicenter solve over exactly three readings. It does
// not modify the stations it was built from.
type Earthquake struct {
	readings [3]Reading
}

// NewEarthquake builds a solve from three stations, using each station's
// first recorded event.
func NewEarthquake(s1, s2, s3 *Station) (*Earthquake, error) {
	var q Earthquake
	for i, s := range [3]*Station{s1, s2, s3} {
		if s == nil {
			return nil, fmt.Errorf("%w: station %d is nil", ErrMissingEvent, i+1)
		}
		ev, ok := s.FirstEvent()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingEvent, s.Name())
		}
		q.readings[i] = Reading{Station: s, Event: ev}
	}
	return &q, nil
}

// NewEarthquakeFromReadings builds a solve from explicit station/event pairs.
func NewEarthquakeFromReadings(readings [3]Reading) (*Earthquake, error) {
	for i, r := range readings {
		if r.Station == nil {
			return nil, fmt.Errorf("%w: station %d is nil", ErrMissingEvent, i+1)
		}
	}
	return &Earthquake{readings: readings}, nil
}

// Readings returns the ordered station/event triple.
func (q *Earthquake) Readings() [3]Reading { return q.readings }

// Epicenter solves for the epicenter from the stations' locations and their
// events' distance estimates.
func (q *Earthquake) Epicenter() (Point, error) {
	var points [3]Point
	var radii [3]float64
	for i, r := range q.readings {
		points[i] = r.Station.Location()
		radii[i] = r.Event.DistanceKm
	}
	return SolveEpicenter(points, radii)
}

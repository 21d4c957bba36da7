package seismic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// EarthRadiusKm is the radius of the spherical Earth used by every
// calculation in this package.
const EarthRadiusKm = 6371.0

// Point is a geodetic coordinate in decimal degrees. Elevation is assumed zero.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.Lat, p.Lon)
}

// GreatCircleDistance returns the haversine distance in kilometers between two
// points. Out-of-range coordinates are not rejected.
func GreatCircleDistance(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon) - radians(a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// toECEF projects a geodetic point onto the sphere in Earth-centered,
// Earth-fixed kilometers.
func toECEF(p Point) r3.Vec {
	lat, lon := radians(p.Lat), radians(p.Lon)
	return r3.Vec{
		X: EarthRadiusKm * (math.Cos(lat) * math.Cos(lon)),
		Y: EarthRadiusKm * (math.Cos(lat) * math.Sin(lon)),
		Z: EarthRadiusKm * math.Sin(lat),
	}
}

// fromECEF converts an ECEF vector back to degrees. Latitude is taken from
// z/R, so it fails when that ratio leaves [-1, 1].
func fromECEF(v r3.Vec) (Point, error) {
	ratio := v.Z / EarthRadiusKm
	if math.IsNaN(ratio) || ratio < -1 || ratio > 1 {
		return Point{}, fmt.Errorf("%w: z/R = %g outside [-1, 1]", ErrTrilateration, ratio)
	}
	return Point{
		Lat: degrees(math.Asin(ratio)),
		Lon: degrees(math.Atan2(v.Y, v.X)),
	}, nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

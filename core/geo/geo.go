package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// KmPerDegreeLat approximates the length of one degree of latitude.
const KmPerDegreeLat = 111.0

// Point is an immutable geographic coordinate in decimal degrees.
// AltitudeM is optional and ignored by distance computations.
type Point struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	AltitudeM float64 `json:"altitude_m,omitempty"`
}

// Validate checks that the coordinate is well formed.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return fmt.Errorf("coordinate is NaN")
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", p.Lng)
	}
	return nil
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Distance returns the Haversine great-circle distance between a and b in km.
func Distance(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Bearing returns the initial bearing from a to b in degrees [0,360).
func Bearing(a, b Point) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLng := toRad(b.Lng - a.Lng)
	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Offset displaces p by dKm kilometers in both latitude and longitude using
// the flat approximation 1 degree latitude = 111 km, with longitude scaled by
// the cosine of the latitude. Used to push avoidance waypoints clear of an
// obstacle center.
func Offset(p Point, dKm float64) Point {
	return Point{
		Lat: p.Lat + dKm/KmPerDegreeLat,
		Lng: p.Lng + dKm/(KmPerDegreeLat*math.Cos(toRad(p.Lat))),
	}
}

// Midpoint returns the arithmetic midpoint of a and b in lat/lng space.
func Midpoint(a, b Point) Point {
	return Point{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
}

// Interpolate returns the point at the given fraction along the straight
// lat/lng line from a to b.
func Interpolate(a, b Point, fraction float64) Point {
	return Point{
		Lat: a.Lat + (b.Lat-a.Lat)*fraction,
		Lng: a.Lng + (b.Lng-a.Lng)*fraction,
	}
}

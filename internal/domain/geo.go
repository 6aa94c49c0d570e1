package domain

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// GeoPoint is a WGS-84 latitude/longitude pair in decimal degrees.
// Ranges are not validated; callers pass well-formed coordinates.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewGeoPoint returns the point at lat, lon.
func NewGeoPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Lat: lat, Lon: lon}
}

// DistanceTo returns the great-circle distance to other in nautical miles,
// computed with the haversine formula so short distances stay accurate.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	a := s2.LatLngFromDegrees(p.Lat, p.Lon)
	b := s2.LatLngFromDegrees(other.Lat, other.Lon)
	return RadToNM(a.Distance(b).Radians())
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%f,%f)", p.Lat, p.Lon)
}

// DegToRad converts decimal degrees to radians.
func DegToRad(degrees float64) float64 {
	return (math.Pi / 180) * degrees
}

// RadToNM converts an arc length in radians to nautical miles.
func RadToNM(radians float64) float64 {
	return ((180 * 60) / math.Pi) * radians
}

// DMSToDecimal converts degrees, minutes, and seconds to decimal degrees.
func DMSToDecimal(degrees, minutes, seconds float64) float64 {
	return degrees + minutes/60 + seconds/3600
}

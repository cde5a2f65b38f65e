// Package geo provides the Point value type and the small set of geodesic
// helpers the rest of the module is built on.
package geo

import (
	"math"
	"time"
)

// earthRadiusMeters is the mean Earth radius used for haversine distances.
const earthRadiusMeters = 6371000.0

// metersPerDegree is the approximate length of one degree of latitude.
const metersPerDegree = 111320.0

// Point is an immutable WGS84 coordinate with an optional timestamp.
type Point struct {
	Lat  float64    `json:"lat"`
	Lon  float64    `json:"lon"`
	Time *time.Time `json:"time,omitempty"`
}

// NewPoint creates a Point without a timestamp.
func NewPoint(lat, lon float64) Point {
	return Point{Lat: lat, Lon: lon}
}

// Distance returns the great-circle distance to other, in meters.
func (p Point) Distance(other Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLon := (other.Lon - p.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// SameCoordinates reports whether two points have identical lat/lon,
// ignoring timestamps.
func (p Point) SameCoordinates(other Point) bool {
	return p.Lat == other.Lat && p.Lon == other.Lon
}

// LonLat returns the point as a (lon, lat) pair, the axis order expected by
// the clustering primitive.
func (p Point) LonLat() [2]float64 {
	return [2]float64{p.Lon, p.Lat}
}

// MetersToDegrees estimates the degree span of a meters-length arc at the
// given latitude, rounded to precision decimal digits. Longitude degrees
// shrink with latitude, so the estimate widens toward the poles; latitudes
// beyond ±89° are clamped to keep the divisor finite.
func MetersToDegrees(meters, lat float64, precision int) float64 {
	if lat > 89 {
		lat = 89
	} else if lat < -89 {
		lat = -89
	}
	deg := meters / (metersPerDegree * math.Cos(lat*math.Pi/180))
	scale := math.Pow(10, float64(precision))
	return math.Round(deg*scale) / scale
}

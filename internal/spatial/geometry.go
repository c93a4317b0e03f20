package spatial

import (
	"math"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// Box is an axis-aligned square around a center, in degrees. Points on
// the edges are outside.
type Box struct {
	Center    Point
	Tolerance float64
}

// NewBox creates a geofence of the given tolerance around (lat, lon)
func NewBox(lat, lon, tolerance float64) Box {
	return Box{Center: Point{Lat: lat, Lon: lon}, Tolerance: math.Abs(tolerance)}
}

// Bounds returns (minLat, minLon, maxLat, maxLon)
func (b Box) Bounds() (float64, float64, float64, float64) {
	return b.Center.Lat - b.Tolerance, b.Center.Lon - b.Tolerance,
		b.Center.Lat + b.Tolerance, b.Center.Lon + b.Tolerance
}

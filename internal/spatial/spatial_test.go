package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	d := HaversineDistance(39.0, 116.0, 40.0, 116.0)
	assert.InDelta(t, 111195, d, 10)

	assert.Zero(t, HaversineDistance(39.9, 116.4, 39.9, 116.4))
}

func TestPathLength(t *testing.T) {
	assert.Zero(t, PathLength(nil))
	assert.Zero(t, PathLength([]Point{{Lat: 1, Lon: 1}}))

	path := []Point{{Lat: 39, Lon: 116}, {Lat: 40, Lon: 116}, {Lat: 41, Lon: 116}}
	assert.InDelta(t, 2*111195.0, PathLength(path), 20)
	assert.InDelta(t, 2*111.195, PathLengthKm(path), 0.02)
}

func TestBox_Bounds(t *testing.T) {
	minLat, minLon, maxLat, maxLon := NewBox(39.916, 116.397, -0.001).Bounds()

	assert.InDelta(t, 39.915, minLat, 1e-9)
	assert.InDelta(t, 116.396, minLon, 1e-9)
	assert.InDelta(t, 39.917, maxLat, 1e-9)
	assert.InDelta(t, 116.398, maxLon, 1e-9)
}

package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineSymmetric(t *testing.T) {
	a := Point{Lat: 40.783282, Lon: -73.950655}
	b := Point{Lat: 40.769802, Lon: -73.984365}

	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-12)
	assert.InDelta(t, 3.21, Haversine(a, b), 0.05)
}

func TestHaversineSamePointIsZero(t *testing.T) {
	p := Point{Lat: 40.7, Lon: -74.0}
	assert.Equal(t, 0.0, Haversine(p, p))
}

func TestHaversineMonotonicAlongMeridian(t *testing.T) {
	origin := Point{Lat: 40.0, Lon: -74.0}
	prev := 0.0
	for _, lat := range []float64{40.1, 40.5, 41.0, 41.9} {
		d := Haversine(origin, Point{Lat: lat, Lon: -74.0})
		assert.Greater(t, d, prev, "lat %v", lat)
		prev = d
	}
	// one degree of latitude is ~111.2 km on a 6371 km sphere
	assert.InDelta(t, 111.19, Haversine(origin, Point{Lat: 41.0, Lon: -74.0}), 0.01)
}

func TestHaversineNaN(t *testing.T) {
	d := Haversine(Point{Lat: math.NaN(), Lon: -74}, NYCCenter)
	assert.True(t, math.IsNaN(d))
}

func TestCell(t *testing.T) {
	c := Cell(NYCCenter, CellPrecision)
	assert.Len(t, c, CellPrecision)
	assert.Equal(t, "dr5", c[:3])
}

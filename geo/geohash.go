package geo

import (
	"github.com/mmcloughlin/geohash"
)

// CellPrecision is the geohash length used for map cells (~150m).
const CellPrecision = 7

// Cell encodes a point into a geohash with the given precision.
func Cell(p Point, precision uint) string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lon, precision)
}

package data

import (
	"fmt"
	"math"
	"math/rand"

	"taxifare/models"
)

// DefaultTestSize is the held-out share used for validation.
const DefaultTestSize = 0.15

// Split shuffles ds with a seeded source and holds out ceil(n*testSize) rows
// for validation. The same seed always yields the same partition.
func Split(ds models.Dataset, testSize float64, seed int64) (train, val models.Dataset, err error) {
	if !(testSize > 0 && testSize < 1) {
		return train, val, fmt.Errorf("%w: test size %v not in (0, 1)", models.ErrInvalidConfig, testSize)
	}
	n := len(ds.Trips)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	nVal := int(math.Ceil(float64(n) * testSize))
	val = selectTrips(ds, indices[:nVal])
	train = selectTrips(ds, indices[nVal:])
	return train, val, nil
}

func selectTrips(ds models.Dataset, indices []int) models.Dataset {
	out := models.Dataset{HasFare: ds.HasFare, Trips: make(models.Trips, len(indices))}
	for i, idx := range indices {
		out.Trips[i] = ds.Trips[idx]
	}
	return out
}

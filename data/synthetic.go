package data

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"taxifare/encoders"
	"taxifare/geo"
	"taxifare/models"
)

// Fare model used for generated trips: a flag drop plus a per-km rate, with
// a night surcharge and gaussian noise.
const (
	synthBaseFare       = 2.5
	synthPerKm          = 1.56
	synthNightSurcharge = 0.5
	synthNoise          = 1.0
)

var synthStart = time.Date(2009, time.January, 1, 0, 0, 0, 0, time.UTC)

const synthSpan = 6 * 365 * 24 * time.Hour

// Synthetic generates n plausible Manhattan trips with fares. Every trip
// passes Clean. The output depends only on n and seed.
func Synthetic(n int, seed int64) models.Dataset {
	rng := rand.New(rand.NewSource(seed))
	ds := models.Dataset{HasFare: true, Trips: make(models.Trips, n)}
	for i := range ds.Trips {
		pickup := geo.Point{Lat: 40.70 + rng.Float64()*0.10, Lon: -73.99 + rng.Float64()*0.06}
		dropoff := geo.Point{Lat: 40.70 + rng.Float64()*0.10, Lon: -73.99 + rng.Float64()*0.06}
		if pickup.Lat == dropoff.Lat || pickup.Lon == dropoff.Lon {
			dropoff.Lat += 0.001
			dropoff.Lon += 0.001
		}
		at := synthStart.Add(time.Duration(rng.Int63n(int64(synthSpan)))).Truncate(time.Second)

		fare := synthBaseFare + synthPerKm*geo.Haversine(pickup, dropoff) + rng.NormFloat64()*synthNoise
		if h := at.Hour(); h >= 20 || h < 6 {
			fare += synthNightSurcharge
		}
		fare = math.Max(synthBaseFare, math.Round(fare*100)/100)

		ds.Trips[i] = models.Trip{
			Key:              fmt.Sprintf("%s.%d", at.Format(encoders.CanonicalTimeLayout), i),
			PickupDatetime:   at.Format(encoders.CanonicalTimeLayout),
			PickupLatitude:   pickup.Lat,
			PickupLongitude:  pickup.Lon,
			DropoffLatitude:  dropoff.Lat,
			DropoffLongitude: dropoff.Lon,
			PassengerCount:   1 + rng.Intn(6),
			FareAmount:       fare,
		}
	}
	return ds
}

package data

import (
	"log/slog"

	"taxifare/models"
)

// Bounds a retained trip must satisfy.
const (
	MinLatitude         = 40.0
	MaxLatitude         = 42.0
	MinPickupLongitude  = -74.3
	MinDropoffLongitude = -74.0
	MaxLongitude        = -72.9
	MinPassengers       = 1
	MaxPassengers       = 8
	MaxFare             = 4000.0
)

// Predicate names reported by Clean.
const (
	RuleMissing       = "missing"
	RuleFare          = "fare"
	RulePassengers    = "passenger_count"
	RulePickupLat     = "pickup_latitude"
	RuleDropoffLat    = "dropoff_latitude"
	RulePickupLon     = "pickup_longitude"
	RuleDropoffLon    = "dropoff_longitude"
	RuleSameLatitude  = "same_latitude"
	RuleSameLongitude = "same_longitude"
)

type rule struct {
	name   string
	reject func(t models.Trip, hasFare bool) bool
}

var rules = []rule{
	{RuleMissing, func(t models.Trip, hasFare bool) bool {
		mask := ^models.FieldFareAmount
		if hasFare {
			mask = ^models.Field(0)
		}
		return !t.Complete(mask)
	}},
	{RuleFare, func(t models.Trip, hasFare bool) bool {
		return hasFare && !(t.FareAmount > 0 && t.FareAmount <= MaxFare)
	}},
	{RulePassengers, func(t models.Trip, _ bool) bool {
		return t.PassengerCount < MinPassengers || t.PassengerCount > MaxPassengers
	}},
	{RulePickupLat, func(t models.Trip, _ bool) bool {
		return !within(t.PickupLatitude, MinLatitude, MaxLatitude)
	}},
	{RuleDropoffLat, func(t models.Trip, _ bool) bool {
		return !within(t.DropoffLatitude, MinLatitude, MaxLatitude)
	}},
	{RulePickupLon, func(t models.Trip, _ bool) bool {
		return !within(t.PickupLongitude, MinPickupLongitude, MaxLongitude)
	}},
	{RuleDropoffLon, func(t models.Trip, _ bool) bool {
		return !within(t.DropoffLongitude, MinDropoffLongitude, MaxLongitude)
	}},
	{RuleSameLatitude, func(t models.Trip, _ bool) bool {
		return t.PickupLatitude == t.DropoffLatitude
	}},
	{RuleSameLongitude, func(t models.Trip, _ bool) bool {
		return t.PickupLongitude == t.DropoffLongitude
	}},
}

func within(v, lo, hi float64) bool { return v >= lo && v <= hi }

// Report summarizes one Clean call. Rejected counts rows per failed
// predicate; a row failing several predicates is counted under each.
type Report struct {
	Input    int
	Kept     int
	Rejected map[string]int
}

// Dropped is the number of rows removed.
func (r Report) Dropped() int { return r.Input - r.Kept }

// LogValue renders the report for slog.
func (r Report) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("input", r.Input),
		slog.Int("kept", r.Kept),
	}
	for _, rl := range rules {
		if n := r.Rejected[rl.name]; n > 0 {
			attrs = append(attrs, slog.Int(rl.name, n))
		}
	}
	return slog.GroupValue(attrs...)
}

// Clean keeps the trips that satisfy every bound, preserving order. The fare
// bound only applies when ds.HasFare is set.
func Clean(ds models.Dataset) (models.Dataset, Report) {
	rep := Report{Input: len(ds.Trips), Rejected: make(map[string]int, len(rules))}
	out := models.Dataset{HasFare: ds.HasFare, Trips: make(models.Trips, 0, len(ds.Trips))}
	for _, t := range ds.Trips {
		ok := true
		for _, rl := range rules {
			if rl.reject(t, ds.HasFare) {
				rep.Rejected[rl.name]++
				ok = false
			}
		}
		if ok {
			out.Trips = append(out.Trips, t)
		}
	}
	rep.Kept = len(out.Trips)
	return out, rep
}

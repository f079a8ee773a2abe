package models

import (
	"fmt"
	"math"
	"strconv"
)

// Column names of the raw trip schema.
const (
	ColKey              = "key"
	ColPickupDatetime   = "pickup_datetime"
	ColPickupLatitude   = "pickup_latitude"
	ColPickupLongitude  = "pickup_longitude"
	ColDropoffLatitude  = "dropoff_latitude"
	ColDropoffLongitude = "dropoff_longitude"
	ColPassengerCount   = "passenger_count"
	ColFareAmount       = "fare_amount"
)

// Field is a bit set naming trip fields that were absent in the source.
type Field uint8

const (
	FieldPickupDatetime Field = 1 << iota
	FieldPickupLatitude
	FieldPickupLongitude
	FieldDropoffLatitude
	FieldDropoffLongitude
	FieldPassengerCount
	FieldFareAmount
)

// Trip is one taxi ride as stored in the raw table.
type Trip struct {
	Key              string  `json:"key,omitempty"`
	PickupDatetime   string  `json:"pickup_datetime"`
	PickupLatitude   float64 `json:"pickup_latitude"`
	PickupLongitude  float64 `json:"pickup_longitude"`
	DropoffLatitude  float64 `json:"dropoff_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude"`
	PassengerCount   int     `json:"passenger_count"`
	FareAmount       float64 `json:"fare_amount,omitempty"`
	Missing          Field   `json:"-"`
}

// Complete reports whether none of the fields in mask are missing.
func (t Trip) Complete(mask Field) bool {
	return t.Missing&mask == 0
}

// Float returns a numeric column of the trip. Missing values come back as NaN.
func (t Trip) Float(col string) (float64, error) {
	var (
		v    float64
		flag Field
	)
	switch col {
	case ColPickupLatitude:
		v, flag = t.PickupLatitude, FieldPickupLatitude
	case ColPickupLongitude:
		v, flag = t.PickupLongitude, FieldPickupLongitude
	case ColDropoffLatitude:
		v, flag = t.DropoffLatitude, FieldDropoffLatitude
	case ColDropoffLongitude:
		v, flag = t.DropoffLongitude, FieldDropoffLongitude
	case ColPassengerCount:
		v, flag = float64(t.PassengerCount), FieldPassengerCount
	case ColFareAmount:
		v, flag = t.FareAmount, FieldFareAmount
	default:
		return 0, fmt.Errorf("%w: %q is not numeric", ErrUnknownColumn, col)
	}
	if t.Missing&flag != 0 {
		return math.NaN(), nil
	}
	return v, nil
}

// String returns a column of the trip rendered as text.
func (t Trip) String(col string) (string, error) {
	switch col {
	case ColKey:
		return t.Key, nil
	case ColPickupDatetime:
		if t.Missing&FieldPickupDatetime != 0 {
			return "", nil
		}
		return t.PickupDatetime, nil
	}
	v, err := t.Float(col)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

// Trips is an ordered batch of trips. It implements Frame.
type Trips []Trip

var tripColumns = []string{
	ColKey, ColPickupDatetime,
	ColPickupLongitude, ColPickupLatitude,
	ColDropoffLongitude, ColDropoffLatitude,
	ColPassengerCount,
}

func (ts Trips) Len() int { return len(ts) }

func (ts Trips) Columns() []string {
	return append([]string(nil), tripColumns...)
}

func (ts Trips) Float(col string, row int) (float64, error) {
	return ts[row].Float(col)
}

func (ts Trips) String(col string, row int) (string, error) {
	return ts[row].String(col)
}

// Dataset is a batch of trips read from one source. HasFare is set when the
// source carried a fare_amount column, i.e. the batch is training data.
type Dataset struct {
	Trips   Trips
	HasFare bool
}

// Targets returns the fare column.
func (d Dataset) Targets() []float64 {
	y := make([]float64, len(d.Trips))
	for i, t := range d.Trips {
		y[i] = t.FareAmount
	}
	return y
}

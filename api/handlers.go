package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"taxifare/encoders"
	"taxifare/geo"
	"taxifare/models"
)

// LocalTimeLayout is the wall-clock form the UI sends.
const LocalTimeLayout = "2006-01-02 15:04:05"

// fixedKey fills the key column, which the model never reads.
const fixedKey = "2013-07-06 17:18:00.000000119"

// Predictor is the read-only side of a fitted pipeline.
type Predictor interface {
	Predict(X models.Frame) ([]float64, error)
}

type Server struct {
	model Predictor
	loc   *time.Location
	log   *slog.Logger
}

// NewServer serves model, reading request timestamps as wall-clock time in
// the named zone.
func NewServer(model Predictor, timeZone string, log *slog.Logger) (*Server, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: time zone %q: %w", models.ErrInvalidConfig, timeZone, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{model: model, loc: loc, log: log}, nil
}

// Prediction is the /predict response body.
type Prediction struct {
	Fare           float64 `json:"fare"`
	PickupGeohash  string  `json:"pickup_geohash"`
	DropoffGeohash string  `json:"dropoff_geohash"`
}

// Index handles the root endpoint
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"Taxi fare prediction API": "Hello"})
}

// ErrBadParameter marks a request the client must fix.
var ErrBadParameter = errors.New("bad parameter")

// Predict handles fare requests given as flat query parameters
func (s *Server) Predict(w http.ResponseWriter, r *http.Request) {
	quote, err := s.Quote(r.URL.Query())
	if errors.Is(err, ErrBadParameter) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.Error("prediction failed", "error", err, "query", r.URL.RawQuery)
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, quote)
}

// Quote predicts the fare for one trip described by query parameters.
func (s *Server) Quote(q url.Values) (Prediction, error) {
	trip, err := s.parseTrip(q)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %w", ErrBadParameter, err)
	}
	fares, err := s.model.Predict(models.Trips{trip})
	if err != nil {
		return Prediction{}, err
	}
	if len(fares) != 1 || math.IsNaN(fares[0]) {
		return Prediction{}, fmt.Errorf("model returned %v for one trip", fares)
	}
	return Prediction{
		Fare:           math.Round(fares[0]*100) / 100,
		PickupGeohash:  geo.Cell(geo.Point{Lat: trip.PickupLatitude, Lon: trip.PickupLongitude}, geo.CellPrecision),
		DropoffGeohash: geo.Cell(geo.Point{Lat: trip.DropoffLatitude, Lon: trip.DropoffLongitude}, geo.CellPrecision),
	}, nil
}

func (s *Server) parseTrip(q url.Values) (models.Trip, error) {
	param := func(name string) (string, error) {
		v := q.Get(name)
		if v == "" {
			return "", fmt.Errorf("missing parameter %s", name)
		}
		return v, nil
	}
	float := func(name string, dst *float64) error {
		v, err := param(name)
		if err != nil {
			return err
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("invalid %s %q", name, v)
		}
		*dst = f
		return nil
	}

	trip := models.Trip{Key: fixedKey}
	raw, err := param(models.ColPickupDatetime)
	if err != nil {
		return trip, err
	}
	at, err := s.localize(raw)
	if err != nil {
		return trip, fmt.Errorf("invalid %s %q: %w", models.ColPickupDatetime, raw, err)
	}
	trip.PickupDatetime = at.UTC().Format(encoders.CanonicalTimeLayout)

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{models.ColPickupLongitude, &trip.PickupLongitude},
		{models.ColPickupLatitude, &trip.PickupLatitude},
		{models.ColDropoffLongitude, &trip.DropoffLongitude},
		{models.ColDropoffLatitude, &trip.DropoffLatitude},
	} {
		if err := float(f.name, f.dst); err != nil {
			return trip, err
		}
	}

	raw, err = param(models.ColPassengerCount)
	if err != nil {
		return trip, err
	}
	if trip.PassengerCount, err = strconv.Atoi(raw); err != nil {
		return trip, fmt.Errorf("invalid %s %q", models.ColPassengerCount, raw)
	}
	return trip, nil
}

// localize reads a wall-clock time in the server zone. Times skipped or
// repeated by a DST change are rejected.
func (s *Server) localize(raw string) (time.Time, error) {
	at, err := time.ParseInLocation(LocalTimeLayout, raw, s.loc)
	if err != nil {
		return time.Time{}, models.ErrInvalidTimestamp
	}
	if at.Format(LocalTimeLayout) != raw {
		return time.Time{}, fmt.Errorf("%w: does not exist in %s", models.ErrInvalidTimestamp, s.loc)
	}
	for _, shift := range []time.Duration{-time.Hour, time.Hour} {
		if at.Add(shift).Format(LocalTimeLayout) == raw {
			return time.Time{}, fmt.Errorf("%w: occurs twice in %s", models.ErrAmbiguousTimestamp, s.loc)
		}
	}
	return at, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/pkg/errors"

	"taxifare/encoders"
	"taxifare/models"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TripSource reads trips from a Postgres table with the raw trip columns.
// NULL values are loaded as missing fields.
type TripSource struct {
	DB    *sql.DB
	Table string
}

func (s TripSource) Load(ctx context.Context, limit int) (models.Dataset, error) {
	if !identifier.MatchString(s.Table) {
		return models.Dataset{}, errors.Errorf("invalid table name %q", s.Table)
	}
	query := fmt.Sprintf(`SELECT key, pickup_datetime, pickup_latitude, pickup_longitude,
	dropoff_latitude, dropoff_longitude, passenger_count, fare_amount FROM %s ORDER BY id`, s.Table)
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return models.Dataset{}, errors.Wrapf(err, "query %s", s.Table)
	}
	defer rows.Close()

	ds := models.Dataset{HasFare: true}
	for rows.Next() {
		var (
			key                          sql.NullString
			pickupAt                     sql.NullTime
			pLat, pLon, dLat, dLon, fare sql.NullFloat64
			passengers                   sql.NullInt64
		)
		if err := rows.Scan(&key, &pickupAt, &pLat, &pLon, &dLat, &dLon, &passengers, &fare); err != nil {
			return models.Dataset{}, errors.Wrap(err, "scan trip")
		}
		var t models.Trip
		t.Key = key.String
		if pickupAt.Valid {
			t.PickupDatetime = pickupAt.Time.UTC().Format(encoders.CanonicalTimeLayout)
		} else {
			t.Missing |= models.FieldPickupDatetime
		}
		setFloat(&t, &t.PickupLatitude, pLat, models.FieldPickupLatitude)
		setFloat(&t, &t.PickupLongitude, pLon, models.FieldPickupLongitude)
		setFloat(&t, &t.DropoffLatitude, dLat, models.FieldDropoffLatitude)
		setFloat(&t, &t.DropoffLongitude, dLon, models.FieldDropoffLongitude)
		setFloat(&t, &t.FareAmount, fare, models.FieldFareAmount)
		if passengers.Valid {
			t.PassengerCount = int(passengers.Int64)
		} else {
			t.Missing |= models.FieldPassengerCount
		}
		ds.Trips = append(ds.Trips, t)
	}
	if err := rows.Err(); err != nil {
		return models.Dataset{}, errors.Wrap(err, "read trips")
	}
	return ds, nil
}

func setFloat(t *models.Trip, dst *float64, v sql.NullFloat64, flag models.Field) {
	if v.Valid {
		*dst = v.Float64
		return
	}
	t.Missing |= flag
}

// InsertTrips appends trips to the table in a single transaction.
func InsertTrips(ctx context.Context, db *sql.DB, table string, trips models.Trips) error {
	if !identifier.MatchString(table) {
		return errors.Errorf("invalid table name %q", table)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (key, pickup_datetime, pickup_latitude,
	pickup_longitude, dropoff_latitude, dropoff_longitude, passenger_count, fare_amount)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, table))
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for i, t := range trips {
		at, err := encoders.ParseTimestamp(t.PickupDatetime)
		if err != nil {
			return errors.Wrapf(err, "trip %d", i)
		}
		if _, err := stmt.ExecContext(ctx, t.Key, at, t.PickupLatitude, t.PickupLongitude,
			t.DropoffLatitude, t.DropoffLongitude, t.PassengerCount, t.FareAmount); err != nil {
			return errors.Wrapf(err, "insert trip %d", i)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

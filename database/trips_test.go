package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxifare/config"
	"taxifare/data"
	"taxifare/models"
)

var tripColumns = []string{
	"key", "pickup_datetime", "pickup_latitude", "pickup_longitude",
	"dropoff_latitude", "dropoff_longitude", "passenger_count", "fare_amount",
}

func TestTripSourceLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2013, 7, 6, 17, 18, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM trips ORDER BY id LIMIT $1`)).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(tripColumns).
			AddRow("a", at, 40.783282, -73.950655, 40.769802, -73.984365, int64(1), 12.5).
			AddRow(nil, nil, 40.78, nil, 40.76, -73.98, nil, nil))

	ds, err := data.GetData(context.Background(), TripSource{DB: db, Table: "trips"}, 2)
	require.NoError(t, err)
	require.Len(t, ds.Trips, 2)
	assert.True(t, ds.HasFare)

	first := ds.Trips[0]
	assert.Equal(t, "a", first.Key)
	assert.Equal(t, "2013-07-06 17:18:00 UTC", first.PickupDatetime)
	assert.Equal(t, 12.5, first.FareAmount)
	assert.Equal(t, 1, first.PassengerCount)
	assert.True(t, first.Complete(^models.Field(0)))

	second := ds.Trips[1]
	assert.Empty(t, second.Key)
	assert.Equal(t, models.FieldPickupDatetime|models.FieldPickupLongitude|
		models.FieldPassengerCount|models.FieldFareAmount, second.Missing)

	cleaned, _ := data.Clean(ds)
	assert.Len(t, cleaned.Trips, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripSourceUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(assert.AnError)
	_, err = data.GetData(context.Background(), TripSource{DB: db, Table: "trips"}, 0)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = data.GetData(context.Background(), TripSource{DB: db, Table: "trips; DROP TABLE trips"}, 0)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestInsertTrips(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	trips := data.Synthetic(2, 1).Trips
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO trips`))
	for _, tr := range trips {
		prep.ExpectExec().
			WithArgs(tr.Key, sqlmock.AnyArg(), tr.PickupLatitude, tr.PickupLongitude,
				tr.DropoffLatitude, tr.DropoffLongitude, tr.PassengerCount, tr.FareAmount).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, InsertTrips(context.Background(), db, "trips", trips))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialGivesUpAfterOnePing(t *testing.T) {
	cfg := config.DBConfig{Host: "127.0.0.1", Port: "1", User: "postgres", Password: "postgres", DBName: "taxifare", SSLMode: "disable"}
	start := time.Now()
	db, err := Dial(context.Background(), cfg)
	assert.Nil(t, db)
	assert.ErrorContains(t, err, "postgres at 127.0.0.1:1 not ready")
	assert.Less(t, time.Since(start), dialTimeout+time.Second)
}

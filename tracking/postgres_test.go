package tracking

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxifare/models"
)

func TestPostgresClient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	client := NewPostgresClient(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO experiments (name) VALUES ($1) RETURNING id`)).
		WithArgs("taxifare").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO runs`)).
		WithArgs(sqlmock.AnyArg(), "4").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO run_params`)).
		WithArgs(sqlmock.AnyArg(), "model", "linear").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO run_metrics`)).
		WithArgs(sqlmock.AnyArg(), "rmse", 5.25, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := client.CreateExperiment(ctx, "taxifare")
	require.NoError(t, err)
	assert.Equal(t, "4", id)

	run, err := client.CreateRun(ctx, id)
	require.NoError(t, err)
	_, err = uuid.Parse(run)
	assert.NoError(t, err)

	require.NoError(t, client.LogParam(ctx, run, "model", "linear"))
	require.NoError(t, client.LogMetric(ctx, run, "rmse", 5.25, time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoggerOverPostgresExistingExperiment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO experiments`)).
		WithArgs("taxifare").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM experiments WHERE name = $1`)).
		WithArgs("taxifare").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	l := NewLogger(NewPostgresClient(db), "taxifare", quietLogger())
	id, err := l.ExperimentID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClientMissingExperiment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM experiments`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewPostgresClient(db).GetExperimentByName(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NotErrorIs(t, err, models.ErrLogging)
}

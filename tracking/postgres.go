package tracking

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// PostgresClient stores experiments and runs in the tracking tables created
// by the migrations.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgresClient(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

// CreateExperiment fails when the name is taken, like the MLflow endpoint.
func (c *PostgresClient) CreateExperiment(ctx context.Context, name string) (string, error) {
	var id int64
	err := c.DB.QueryRowContext(ctx,
		`INSERT INTO experiments (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return "", errors.Wrapf(err, "create experiment %q", name)
	}
	return strconv.FormatInt(id, 10), nil
}

func (c *PostgresClient) GetExperimentByName(ctx context.Context, name string) (string, error) {
	var id int64
	err := c.DB.QueryRowContext(ctx,
		`SELECT id FROM experiments WHERE name = $1`, name).Scan(&id)
	if err != nil {
		return "", errors.Wrapf(err, "get experiment %q", name)
	}
	return strconv.FormatInt(id, 10), nil
}

func (c *PostgresClient) CreateRun(ctx context.Context, experimentID string) (string, error) {
	runID := uuid.NewString()
	_, err := c.DB.ExecContext(ctx,
		`INSERT INTO runs (run_id, experiment_id) VALUES ($1, $2)`, runID, experimentID)
	if err != nil {
		return "", errors.Wrap(err, "create run")
	}
	return runID, nil
}

func (c *PostgresClient) LogParam(ctx context.Context, runID, key, value string) error {
	_, err := c.DB.ExecContext(ctx,
		`INSERT INTO run_params (run_id, key, value) VALUES ($1, $2, $3)`, runID, key, value)
	return errors.Wrapf(err, "log param %s", key)
}

func (c *PostgresClient) LogMetric(ctx context.Context, runID, key string, value float64, at time.Time) error {
	_, err := c.DB.ExecContext(ctx,
		`INSERT INTO run_metrics (run_id, key, value, logged_at) VALUES ($1, $2, $3, $4)`,
		runID, key, value, at)
	return errors.Wrapf(err, "log metric %s", key)
}

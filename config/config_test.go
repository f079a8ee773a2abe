package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxifare/models"
	"taxifare/regression"
)

const sampleYAML = `
data:
  source: csv
  path: raw_data/train.csv
  row_limit: 500
  test_size: 0.2
  seed: 7
models:
  - name: linear
  - name: ridge
    alpha: 0.5
  - name: lasso
    alpha: 0.01
    max_iter: 200
  - name: random_forest
    n_trees: 30
    max_depth: 8
    seed: 42
dist_modes: [dist, both]
tracking:
  backend: mlflow
  uri: http://mlflow:5000
  experiment: "[NYC] taxifare"
store:
  backend: redis
  name: prod
redis:
  addr: redis:6379
server:
  addr: ":9090"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Data.RowLimit)
	assert.Equal(t, 0.2, cfg.Data.TestSize)
	assert.Equal(t, int64(7), cfg.Data.Seed)
	assert.Equal(t, []regression.Config{
		{Name: regression.Linear},
		{Name: regression.Ridge, Alpha: 0.5},
		{Name: regression.Lasso, Alpha: 0.01, MaxIter: 200},
		{Name: regression.RandomForest, NTrees: 30, MaxDepth: 8, Seed: 42},
	}, cfg.Models)
	assert.Equal(t, []string{"dist", "both"}, cfg.DistModes)
	assert.Equal(t, TrackingMLflow, cfg.Tracking.Backend)
	assert.Equal(t, "[NYC] taxifare", cfg.Tracking.Experiment)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, ":9090", cfg.Server.Addr)

	// defaults fill what the file leaves out
	assert.Equal(t, "America/New_York", cfg.Server.TimeZone)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "5432", cfg.DB.Port)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TAXIFARE_DB_HOST", "db.internal")
	t.Setenv("TAXIFARE_DATA_ROW_LIMIT", "42")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 42, cfg.Data.RowLimit)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, SourceCSV, cfg.Data.Source)
	assert.Equal(t, []regression.Config{{Name: regression.Linear}}, cfg.Models)
	assert.Equal(t, []string{"both"}, cfg.DistModes)
	assert.Equal(t, TrackingNone, cfg.Tracking.Backend)
	assert.Equal(t, StoreFile, cfg.Store.Backend)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateAggregates(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	cfg.Data.Source = "s3"
	cfg.Data.TestSize = 1
	cfg.Models = append(cfg.Models, regression.Config{Name: "forest"})
	cfg.DistModes = []string{"manhattan"}
	cfg.Store.Backend = "disk"

	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
	for _, want := range []string{"data.source", "data.test_size", "models[4]", "manhattan", "store.backend"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestDBConfigDSN(t *testing.T) {
	c := DBConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", c.URL())
}

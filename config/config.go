package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"taxifare/models"
	"taxifare/regression"
)

type Config struct {
	Data      DataConfig
	Models    []regression.Config
	DistModes []string `mapstructure:"dist_modes"`
	Tracking  TrackingConfig
	Store     StoreConfig
	DB        DBConfig
	Redis     RedisConfig
	Server    ServerConfig
}

type DataConfig struct {
	Source   string
	Path     string
	Table    string
	RowLimit int     `mapstructure:"row_limit"`
	TestSize float64 `mapstructure:"test_size"`
	Seed     int64
}

type TrackingConfig struct {
	Backend    string
	URI        string
	Experiment string
}

type StoreConfig struct {
	Backend string
	Dir     string
	Name    string
}

type DBConfig struct {
	User     string
	Password string
	DBName   string
	SSLMode  string
	Host     string
	Port     string
}

// DSN renders the connection in libpq key/value form.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL renders the connection as a postgres:// URL.
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ServerConfig struct {
	Addr            string
	TimeZone        string        `mapstructure:"time_zone"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Data and store backends.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"

	TrackingNone     = "none"
	TrackingMLflow   = "mlflow"
	TrackingPostgres = "postgres"

	StoreFile  = "file"
	StoreRedis = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.source", SourceCSV)
	v.SetDefault("data.path", "raw_data/train.csv")
	v.SetDefault("data.table", "trips")
	v.SetDefault("data.row_limit", 1000)
	v.SetDefault("data.test_size", 0.15)
	v.SetDefault("data.seed", 42)
	v.SetDefault("models", []map[string]any{{"name": regression.Linear}})
	v.SetDefault("dist_modes", []string{"both"})
	v.SetDefault("tracking.backend", TrackingNone)
	v.SetDefault("tracking.uri", "http://localhost:5000")
	v.SetDefault("tracking.experiment", "taxifare")
	v.SetDefault("store.backend", StoreFile)
	v.SetDefault("store.dir", "models")
	v.SetDefault("store.name", "model")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.dbname", "taxifare")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.time_zone", "America/New_York")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
}

// Load reads config.yaml from the working directory, or the file at path
// when given. A missing default file is not an error. Any key can be
// overridden from the environment, e.g. TAXIFARE_DB_HOST.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("taxifare")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var merr *multierror.Error
	bad := func(format string, args ...any) {
		merr = multierror.Append(merr, fmt.Errorf(format, args...))
	}

	switch c.Data.Source {
	case SourceCSV:
		if c.Data.Path == "" {
			bad("data.path is required for the csv source")
		}
	case SourcePostgres:
		if c.Data.Table == "" {
			bad("data.table is required for the postgres source")
		}
	default:
		bad("data.source %q is not one of csv, postgres", c.Data.Source)
	}
	if !(c.Data.TestSize > 0 && c.Data.TestSize < 1) {
		bad("data.test_size %v not in (0, 1)", c.Data.TestSize)
	}
	if len(c.Models) == 0 {
		bad("models must name at least one model")
	}
	for i, m := range c.Models {
		if _, err := regression.New(m); err != nil {
			bad("models[%d]: %v", i, err)
		}
	}
	if len(c.DistModes) == 0 {
		bad("dist_modes must not be empty")
	}
	for _, mode := range c.DistModes {
		switch mode {
		case "dist", "dist_to_center", "both":
		default:
			bad("dist_modes: unknown mode %q", mode)
		}
	}
	switch c.Tracking.Backend {
	case TrackingNone, TrackingPostgres:
	case TrackingMLflow:
		if c.Tracking.URI == "" {
			bad("tracking.uri is required for mlflow")
		}
	default:
		bad("tracking.backend %q is not one of none, mlflow, postgres", c.Tracking.Backend)
	}
	switch c.Store.Backend {
	case StoreFile:
		if c.Store.Dir == "" {
			bad("store.dir is required for the file store")
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			bad("redis.addr is required for the redis store")
		}
	default:
		bad("store.backend %q is not one of file, redis", c.Store.Backend)
	}
	if c.Store.Name == "" {
		bad("store.name is required")
	}
	if _, err := time.LoadLocation(c.Server.TimeZone); err != nil {
		bad("server.time_zone: %v", err)
	}

	if err := merr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrInvalidConfig, err)
	}
	return nil
}

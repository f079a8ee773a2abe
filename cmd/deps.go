package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"taxifare/cache"
	"taxifare/config"
	"taxifare/data"
	"taxifare/database"
	"taxifare/models"
	"taxifare/pipeline"
	"taxifare/store"
	"taxifare/tracking"
)

// deps holds the collaborators built from the config. close releases
// whatever connections were opened.
type deps struct {
	db      *sql.DB
	closers []func() error
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func (d *deps) postgres(ctx context.Context, c config.DBConfig) (*sql.DB, error) {
	if d.db != nil {
		return d.db, nil
	}
	db, err := database.Open(ctx, c)
	if err != nil {
		return nil, err
	}
	d.db = db
	d.closers = append(d.closers, db.Close)
	return db, nil
}

// trackingDB reuses an open connection or dials once. Tracking is optional,
// so it does not wait for the server like postgres does.
func (d *deps) trackingDB(ctx context.Context, c config.DBConfig) (*sql.DB, error) {
	if d.db != nil {
		return d.db, nil
	}
	db, err := database.Dial(ctx, c)
	if err != nil {
		return nil, err
	}
	d.db = db
	d.closers = append(d.closers, db.Close)
	return db, nil
}

func (d *deps) source(ctx context.Context, c *config.Config) (data.Source, error) {
	switch c.Data.Source {
	case config.SourcePostgres:
		db, err := d.postgres(ctx, c.DB)
		if err != nil {
			return nil, err
		}
		return database.TripSource{DB: db, Table: c.Data.Table}, nil
	default:
		return data.CSVSource{Path: c.Data.Path}, nil
	}
}

func (d *deps) tracker(ctx context.Context, c *config.Config) (*tracking.Logger, error) {
	var client tracking.Client
	switch c.Tracking.Backend {
	case config.TrackingMLflow:
		client = tracking.NewMLflowClient(c.Tracking.URI)
	case config.TrackingPostgres:
		db, err := d.trackingDB(ctx, c.DB)
		if err != nil {
			err = fmt.Errorf("%w: open tracking database: %w", models.ErrLogging, err)
			slog.Warn("experiment tracking disabled", "backend", c.Tracking.Backend, "error", err)
			client = tracking.NopClient{}
			break
		}
		client = tracking.NewPostgresClient(db)
	default:
		client = tracking.NopClient{}
	}
	return tracking.NewLogger(client, c.Tracking.Experiment, slog.Default()), nil
}

func (d *deps) store(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Backend {
	case config.StoreRedis:
		rdb, err := cache.NewClient(ctx, c.Redis)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, rdb.Close)
		return store.NewRedisStore(rdb), nil
	default:
		return store.NewFileStore(c.Store.Dir), nil
	}
}

// pipelineConfigs crosses the configured models with the distance modes.
func pipelineConfigs(c *config.Config, all bool) []pipeline.Config {
	regs, modes := c.Models, c.DistModes
	if !all {
		regs, modes = regs[:1], modes[:1]
	}
	var out []pipeline.Config
	for _, m := range regs {
		for _, mode := range modes {
			out = append(out, pipeline.Config{
				Model:    m,
				DistMode: pipeline.DistMode(mode),
				TimeZone: c.Server.TimeZone,
			})
		}
	}
	return out
}

func loadModel(ctx context.Context, d *deps, c *config.Config) (*pipeline.Pipeline, error) {
	s, err := d.store(ctx, c)
	if err != nil {
		return nil, err
	}
	p, err := s.Load(ctx, c.Store.Name)
	return p, errors.Wrapf(err, "load model %q", c.Store.Name)
}

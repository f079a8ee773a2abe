package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"taxifare/config"
)

// dialTimeout bounds the single ping made by Dial.
const dialTimeout = 5 * time.Second

// Open connects to Postgres and waits for it to answer, retrying a few times
// while the server starts.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	return connect(ctx, cfg, 10, 3*time.Second)
}

// Dial connects to Postgres with a single bounded ping. It suits optional
// collaborators that should give up quickly when the server is missing.
func Dial(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return connect(ctx, cfg, 1, 0)
}

func connect(ctx context.Context, cfg config.DBConfig, attempts int, wait time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	for i := 1; ; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if i >= attempts {
			db.Close()
			return nil, errors.Wrapf(err, "postgres at %s:%s not ready", cfg.Host, cfg.Port)
		}
		slog.Info("waiting for the database to be ready", "attempt", i)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	slog.Info("database connected", "host", cfg.Host, "dbname", cfg.DBName)
	return db, nil
}

package migration

import (
	"context"
	"embed"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"

	"taxifare/config"
	"taxifare/database"
)

//go:embed sql/*.sql
var migrations embed.FS

// Run waits for the database and applies every pending migration.
func Run(ctx context.Context, cfg config.DBConfig) error {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "could not connect to the database")
	}
	db.Close()

	src, err := iofs.New(migrations, "sql")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		return errors.Wrap(err, "could not start migrations")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migration failed")
	}
	version, _, _ := m.Version()
	slog.Info("migrations applied", "version", version)
	return nil
}

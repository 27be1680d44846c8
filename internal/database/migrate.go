package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed all:migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies all pending schema migrations.
func RunMigrations(db *sqlx.DB) error {
	sourceDriver, sourceErr := iofs.New(migrationsFS, "migrations")
	if sourceErr != nil {
		return fmt.Errorf("create migration source: %w", sourceErr)
	}

	driver, driverErr := postgres.WithInstance(db.DB, &postgres.Config{})
	if driverErr != nil {
		return fmt.Errorf("create migration driver: %w", driverErr)
	}

	m, newErr := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if newErr != nil {
		return fmt.Errorf("create migrator: %w", newErr)
	}

	if upErr := m.Up(); upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}

	return nil
}

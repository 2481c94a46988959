package sqlutil

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/codeready-toolchain/tarsy/internal/xerrors"
)

//go:embed migrations
var migrationsFS embed.FS

// RunMigrations applies every pending embedded migration against
// databaseURL, using golang-migrate's embed-then-apply-on-startup
// workflow.
func RunMigrations(databaseURL string) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return xerrors.Config("sqlutil.RunMigrations source", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return xerrors.Config("sqlutil.RunMigrations instance", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return xerrors.SQL("sqlutil.RunMigrations up", fmt.Errorf("failed to apply migrations: %w", err))
	}

	if err := sourceDriver.Close(); err != nil {
		return xerrors.Config("sqlutil.RunMigrations close source", err)
	}
	return nil
}

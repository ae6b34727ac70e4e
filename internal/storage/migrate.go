package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

func migrationSource(dialect string) (fs.FS, error) {
	sub, err := fs.Sub(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return nil, fmt.Errorf("open %s migrations: %w", dialect, err)
	}
	return sub, nil
}

// RunSQLiteMigrations brings the database at dbPath up to the latest schema.
func RunSQLiteMigrations(dbPath string) error {
	// Separate connection so closing the migrator does not close the caller's pool.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := migrationSource("sqlite")
	if err != nil {
		return err
	}
	d, err := iofs.New(src, ".")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	return up(m)
}

// RunPostgresMigrations applies the Postgres schema through the pgx/v5 driver.
func RunPostgresMigrations(databaseURL string) error {
	src, err := migrationSource("postgres")
	if err != nil {
		return err
	}
	d, err := iofs.New(src, ".")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, pgxMigrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	return up(m)
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// pgxMigrateURL rewrites a postgres:// URL to the scheme the migrate pgx/v5
// driver registers under.
func pgxMigrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}

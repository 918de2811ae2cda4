package mysql

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate применяет все ещё не выполненные миграции из migrations/.
func (s *Storage) Migrate(log *slog.Logger) error {
	const op = "storage.mysql.Migrate"

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("%s: load migrations: %w", op, err)
	}

	driver, err := migratemysql.WithInstance(s.db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("%s: create driver: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "mysql", driver)
	if err != nil {
		return fmt.Errorf("%s: init migrate: %w", op, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: up: %w", op, err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		log.Warn("migrations are dirty", slog.Uint64("version", uint64(version)))
	} else {
		log.Info("migrations applied", slog.Uint64("version", uint64(version)))
	}

	return nil
}

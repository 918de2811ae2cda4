package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-sql-driver/mysql"

	"shopfloor-terminal/internal/config"
)

const errDuplicateEntry = 1062

type Storage struct {
	db *sql.DB
}

func New(cfg config.Config, log *slog.Logger) (*Storage, error) {
	const op = "storage.mysql.New"

	db, err := sql.Open("mysql", DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open db: %w", op, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// база на стенде поднимается дольше сервиса, поэтому пингуем с ретраями
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = cfg.Database.ConnectTimeout
	expBackoff.InitialInterval = 500 * time.Millisecond

	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			log.Warn("db is not reachable, will retry", slog.String("op", op), slog.String("error", err.Error()))
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, expBackoff); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// NewWithDB оборачивает готовое подключение (тесты, sqlmock).
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func DSN(cfg config.Database) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	// UPDATE должен возвращать число найденных строк, а не изменённых
	mc.ClientFoundRows = true
	mc.MultiStatements = true

	return mc.FormatDSN()
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) DB() *sql.DB {
	return s.db
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}

package db

import (
	"database/sql"
	"fmt"
	"time"

	"excos_backend/internal/config"
	"excos_backend/internal/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB wraps the GORM handle and its underlying pool with explicit lifecycle
// methods. It is constructed once in app.Run and injected everywhere else;
// there is no package-level singleton.
type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

// Open connects to Postgres, tunes the pool, and verifies the connection.
// The initial ping is retried with the same policy repositories use for
// connection-class failures.
func Open(cfg *config.Config) (*DB, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := WithRetry(func() error { return sqlDB.Ping() }); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database unavailable: %w", err)
	}

	logger.Info("Database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	return &DB{Gorm: gormDB, SQL: sqlDB}, nil
}

// Close releases the underlying pool.
func (d *DB) Close() error {
	return d.SQL.Close()
}

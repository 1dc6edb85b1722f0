package database

import (
	"context"
	"fmt"
	"time"

	"pintu/internal/config"
	"pintu/internal/database/migrations"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the relational store named by dsn.
// PostgreSQL DSNs use the pgx-backed driver, anything else is handed to SQLite.
// TranslateError makes unique violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if config.IsPostgres(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	logLevel := gormlogger.Silent
	if debug {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	pool := poolSettingsFor(dsn)
	sqlDB.SetMaxOpenConns(pool.maxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.connMaxLifetime)

	return db, nil
}

type poolSettings struct {
	maxOpenConns    int
	connMaxLifetime time.Duration
}

// poolSettingsFor sizes the connection pool for dsn. SQLite gets a single
// connection that is never recycled: an in-memory database lives only as long
// as its last connection.
func poolSettingsFor(dsn string) poolSettings {
	if config.IsPostgres(dsn) {
		return poolSettings{connMaxLifetime: time.Hour}
	}
	return poolSettings{maxOpenConns: 1}
}

// Dialect returns the goose dialect matching the open connection.
func Dialect(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

// Migrate applies the embedded migrations for the connection's dialect.
func Migrate(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	dialect := Dialect(db)
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect %s: %w", dialect, err)
	}

	if err := goose.UpContext(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

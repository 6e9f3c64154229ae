package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todoapi/migrations"
)

// Database holds database connection and configuration
type Database struct {
	*sql.DB
	Driver string
	logger *logrus.Logger
}

// NewDatabase creates a new database connection
func NewDatabase(driver, databaseURL string, logger *logrus.Logger) (*Database, error) {
	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	switch driver {
	case DriverSQLite:
		// One writer at a time; also keeps ":memory:" databases on one connection.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithField("driver", driver).Info("Database connection established successfully")

	return &Database{
		DB:     db,
		Driver: driver,
		logger: logger,
	}, nil
}

// Sqlx wraps the connection for sqlx based repositories
func (d *Database) Sqlx() *sqlx.DB {
	return sqlx.NewDb(d.DB, d.Driver)
}

// Migrate runs database migrations
func (d *Database) Migrate() error {
	m, release, err := d.migrator()
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}

// MigrateDown rolls back every migration
func (d *Database) MigrateDown() error {
	m, release, err := d.migrator()
	if err != nil {
		return err
	}
	defer release()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	d.logger.Info("Database migrations rolled back")
	return nil
}

// migrator builds a migrate instance on top of the shared pool. release
// returns any connection the migration driver holds; it never closes the
// pool itself, so m.Close must not be called.
func (d *Database) migrator() (m *migrate.Migrate, release func(), err error) {
	release = func() {}

	var driver database.Driver
	switch d.Driver {
	case DriverSQLite:
		driver, err = sqlite3.WithInstance(d.DB, &sqlite3.Config{})
	default:
		// postgres pins one connection for its advisory lock.
		ctx := context.Background()
		conn, cerr := d.DB.Conn(ctx)
		if cerr != nil {
			return nil, nil, fmt.Errorf("failed to create migration driver: %w", cerr)
		}
		release = func() {
			if err := conn.Close(); err != nil {
				d.logger.WithError(err).Warn("Failed to release migration connection")
			}
		}
		driver, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
	}
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, d.Driver)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err = migrate.NewWithInstance("iofs", source, d.Driver, driver)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, release, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

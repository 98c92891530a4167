package database

import (
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stockwatch/internal/models"
)

type Database struct {
	DB *gorm.DB
}

type Options struct {
	// Driver selects the Postgres driver: "pgx" (default) or "pq".
	Driver string
	// Verbose logs every statement.
	Verbose bool
}

func New(databaseURL string, opts Options) (*Database, error) {
	var db *gorm.DB
	var err error

	level := logger.Warn
	if opts.Verbose {
		level = logger.Info
	}
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}

	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		// SQLite for development and tests
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), cfg)
	case opts.Driver == "pq":
		db, err = gorm.Open(postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        databaseURL,
		}), cfg)
	default:
		db, err = gorm.Open(postgres.Open(databaseURL), cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Migrate creates or updates every table the service owns.
func (d *Database) Migrate() error {
	if err := d.DB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

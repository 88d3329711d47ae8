package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/gatehouse"
	"github.com/sagarc03/gatehouse/database/postgres"
	"github.com/sagarc03/gatehouse/database/sqlite"
)

// Config holds the configuration for connecting to a user store backend.
type Config struct {
	// Type specifies the backend: "sqlite", "postgres" or "memory".
	// The memory backend is served by the userbackend package, not by Connect.
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres memory"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required_unless=Type memory"`
	// Tables holds the table names
	Tables gatehouse.Tables `mapstructure:"tables"`
}

// Database is an open user store backend.
type Database interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates the required tables if they do not exist.
	Migrate(ctx context.Context) error
	// Validate checks that existing tables have the expected columns.
	Validate(ctx context.Context) error
	// GetRepo returns the UserStore backed by this database.
	GetRepo() gatehouse.UserStore
	// Close releases the connection.
	Close() error
}

// Connect opens the configured backend. It validates table names but does
// not migrate; call Migrate and Validate before using the repo.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("connect: unsupported database type: %q", cfg.Type)
	}
}

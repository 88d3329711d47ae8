package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/gatehouse"
)

const createUsersSQL = `
	CREATE TABLE IF NOT EXISTS %s (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		disabled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// Migrate creates the users table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables gatehouse.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf(createUsersSQL, pgx.Identifier{tables.Users}.Sanitize())); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Users, err)
	}
	return nil
}

// DropTables removes the users table. Used by tests.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables gatehouse.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{tables.Users}.Sanitize()); err != nil {
		return fmt.Errorf("drop %s: %w", tables.Users, err)
	}
	return nil
}

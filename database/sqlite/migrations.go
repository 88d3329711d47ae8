package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/gatehouse"
)

// quoteIdentifier quotes a table name that has already passed
// gatehouse.IsValidTableName.
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

const createUsersSQL = `
	CREATE TABLE IF NOT EXISTS %s (
		username TEXT NOT NULL PRIMARY KEY,
		password_hash TEXT NOT NULL,
		disabled INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`

// Migrate creates the users table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB, tables gatehouse.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(createUsersSQL, quoteIdentifier(tables.Users))); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Users, err)
	}
	return nil
}

// DropTables removes the users table. Used by tests.
func DropTables(ctx context.Context, db *sql.DB, tables gatehouse.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(tables.Users)); err != nil {
		return fmt.Errorf("drop %s: %w", tables.Users, err)
	}
	return nil
}

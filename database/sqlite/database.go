package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/gatehouse"

	_ "modernc.org/sqlite" // SQLite driver
)

// connPragmas are applied to every pooled connection so concurrent readers
// and writers wait for each other instead of failing with SQLITE_BUSY.
const connPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables gatehouse.Tables
}

// Connect establishes a connection to SQLite.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables gatehouse.Tables) (*database, error) {
	inMemory := strings.Contains(dsn, ":memory:")
	if !inMemory && !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + connPragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// Each connection to :memory: is a separate database.
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the UserStore for database operations.
func (d *database) GetRepo() gatehouse.UserStore {
	return &repo{db: d.db, tableName: d.tables.Users}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}

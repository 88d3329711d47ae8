// Package sqlite implements gatehouse.UserStore using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/gatehouse"
)

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Lookup(ctx context.Context, username string) (gatehouse.Identity, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT username, password_hash, disabled FROM %s WHERE username = ?`,
		quoteIdentifier(r.tableName))

	var id gatehouse.Identity
	var disabled int
	err := r.db.QueryRowContext(ctx, query, username).Scan(&id.Username, &id.PasswordHash, &disabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gatehouse.Identity{}, gatehouse.ErrNotFound
		}
		return gatehouse.Identity{}, fmt.Errorf("lookup: %w", err)
	}

	id.Disabled = disabled != 0
	return id, nil
}

func (r *repo) InsertIfAbsent(ctx context.Context, identity gatehouse.Identity) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (username, password_hash, disabled, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (username) DO NOTHING`, quoteIdentifier(r.tableName))

	disabled := 0
	if identity.Disabled {
		disabled = 1
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	result, err := r.db.ExecContext(ctx, query, identity.Username, identity.PasswordHash, disabled, now)
	if err != nil {
		return fmt.Errorf("insert if absent: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert if absent: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("insert if absent %s: %w", identity.Username, gatehouse.ErrConflict)
	}
	return nil
}

func (r *repo) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated

	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Package postgres implements gatehouse.UserStore using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/gatehouse"
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *repo) Lookup(ctx context.Context, username string) (gatehouse.Identity, error) {
	query := fmt.Sprintf(`
		SELECT username, password_hash, disabled
		FROM %s
		WHERE username = $1
	`, r.table())

	var id gatehouse.Identity
	err := r.pool.QueryRow(ctx, query, username).Scan(&id.Username, &id.PasswordHash, &id.Disabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return gatehouse.Identity{}, gatehouse.ErrNotFound
		}
		return gatehouse.Identity{}, fmt.Errorf("lookup: %w", err)
	}
	return id, nil
}

func (r *repo) InsertIfAbsent(ctx context.Context, identity gatehouse.Identity) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (username, password_hash, disabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
	`, r.table())

	tag, err := r.pool.Exec(ctx, query, identity.Username, identity.PasswordHash, identity.Disabled)
	if err != nil {
		return fmt.Errorf("insert if absent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insert if absent %s: %w", identity.Username, gatehouse.ErrConflict)
	}
	return nil
}

func (r *repo) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table())

	var n int64
	if err := r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

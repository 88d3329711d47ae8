package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/gatehouse"
	"github.com/sagarc03/gatehouse/database/internal"
)

var usersSchema = internal.Schema{
	"username":      {Type: "text"},
	"password_hash": {Type: "text"},
	"disabled":      {Type: "boolean"},
	"created_at":    {Type: "timestamp with time zone"},
}

// ValidateSchema checks the users table in the public schema against the
// columns Migrate creates.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables gatehouse.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	got, err := readColumns(ctx, pool, tables.Users)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Users, err)
	}

	if err := internal.CompareSchema(tables.Users, usersSchema, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

func readColumns(ctx context.Context, pool *pgxpool.Pool, table string) (internal.Schema, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	schema := internal.Schema{}
	for rows.Next() {
		var (
			name, typ string
			nullable  bool
		)
		if err := rows.Scan(&name, &typ, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		schema[name] = internal.Column{Type: typ, Nullable: nullable}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return schema, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/gatehouse"
	"github.com/sagarc03/gatehouse/database/internal"
)

// usersSchema is the shape Migrate creates. SQLite reports declared types,
// so booleans and timestamps show up as INTEGER and TEXT.
var usersSchema = internal.Schema{
	"username":      {Type: "text"},
	"password_hash": {Type: "text"},
	"disabled":      {Type: "integer"},
	"created_at":    {Type: "text"},
}

// ValidateSchema checks the users table against the columns Migrate creates.
func ValidateSchema(ctx context.Context, db *sql.DB, tables gatehouse.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	got, err := readColumns(ctx, db, tables.Users)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Users, err)
	}

	if err := internal.CompareSchema(tables.Users, usersSchema, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// readColumns lists a table's columns via PRAGMA table_info. A missing
// table yields an empty schema.
func readColumns(ctx context.Context, db *sql.DB, table string) (internal.Schema, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	schema := internal.Schema{}
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		schema[name] = internal.Column{Type: typ, Nullable: notNull == 0}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return schema, nil
}

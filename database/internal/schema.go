// Package internal holds helpers shared by the SQL user store backends.
package internal

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Column describes one column as reported by the database catalog.
type Column struct {
	Type     string
	Nullable bool
}

// Schema maps column names to their expected or observed shape.
type Schema map[string]Column

// ErrTableMissing is returned by CompareSchema when the table has no columns.
var ErrTableMissing = errors.New("table does not exist")

// CompareSchema reports every difference between want and got for table.
// Extra columns in got are allowed. Types are compared case-insensitively.
func CompareSchema(table string, want, got Schema) error {
	if len(got) == 0 {
		return fmt.Errorf("table %s: %w", table, ErrTableMissing)
	}

	var missing, mismatched []string
	for _, name := range slices.Sorted(maps.Keys(want)) {
		expected := want[name]
		actual, ok := got[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if !strings.EqualFold(actual.Type, expected.Type) {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected %s, got %s", name, expected.Type, strings.ToLower(actual.Type)))
		}
		if actual.Nullable != expected.Nullable {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, expected.Nullable, actual.Nullable))
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "table %s has an unexpected schema", table)
	if len(missing) > 0 {
		fmt.Fprintf(&b, "; missing columns: %s", strings.Join(missing, ", "))
	}
	if len(mismatched) > 0 {
		fmt.Fprintf(&b, "; mismatched columns: %s", strings.Join(mismatched, "; "))
	}
	return errors.New(b.String())
}

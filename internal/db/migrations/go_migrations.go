// Package migrations holds the catalog schema as dialect-aware Go migrations.
package migrations

import "fmt"

// dialect is set by the parent db package before migrations are applied.
var dialect string

// SetDialect configures the SQL dialect for Go migrations.
// Must be called before goose.Up.
func SetDialect(d string) error {
	switch d {
	case "sqlite3", "postgres", "mysql":
		dialect = d
		return nil
	default:
		return fmt.Errorf("unknown migration dialect %q", d)
	}
}

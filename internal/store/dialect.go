package store

import (
	"fmt"
	"strings"
)

// dialect holds the few SQL fragments that differ between the supported
// databases. Everything else is written once with ? placeholders and rebound.
type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectMySQL    dialect = "mysql"
	dialectPostgres dialect = "postgres"
)

// dialectFor maps a database/sql driver name to its dialect.
func dialectFor(driverName string) dialect {
	switch driverName {
	case "mysql":
		return dialectMySQL
	case "postgres", "pgx":
		return dialectPostgres
	default:
		return dialectSQLite
	}
}

// insertIgnore builds an INSERT that silently skips rows violating a unique
// or primary key constraint, without aborting the surrounding transaction.
func (d dialect) insertIgnore(table string, cols ...string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	colList := strings.Join(cols, ", ")
	switch d {
	case dialectMySQL:
		return fmt.Sprintf(`INSERT IGNORE INTO %s (%s) VALUES (%s)`, table, colList, placeholders)
	case dialectPostgres:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING`, table, colList, placeholders)
	default:
		return fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s) VALUES (%s)`, table, colList, placeholders)
	}
}

// lockingRead is appended to a SELECT that must read the latest committed
// row rather than the transaction's snapshot. InnoDB's REPEATABLE READ pins
// plain reads to the first snapshot; PostgreSQL's READ COMMITTED and SQLite's
// single writer already see the latest row.
func (d dialect) lockingRead() string {
	if d == dialectMySQL {
		return ` LOCK IN SHARE MODE`
	}
	return ""
}

// authorNames aggregates the joined authors.name values of a group into one
// ", "-separated string.
func (d dialect) authorNames() string {
	switch d {
	case dialectMySQL:
		return `GROUP_CONCAT(a.name ORDER BY a.author_id SEPARATOR ', ')`
	case dialectPostgres:
		return `STRING_AGG(a.name, ', ' ORDER BY a.author_id)`
	default:
		return `GROUP_CONCAT(a.name, ', ')`
	}
}

// escapeLike escapes LIKE wildcards in s using '!' as the escape character,
// so a search for "100%" matches the literal text.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

package migrations

// The catalog tables need dialect-specific auto-increment and text types, so
// this is a Go migration rather than SQL. Every statement is IF NOT EXISTS so
// it also adopts a schema that was created before goose tracked it.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateCatalog, downCreateCatalog)
}

func upCreateCatalog(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range catalogUpStmts() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create catalog schema: %w", err)
		}
	}
	return nil
}

func downCreateCatalog(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"book_author", "authors", "books"} {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return err
		}
	}
	return nil
}

func catalogUpStmts() []string {
	switch dialect {
	case "postgres":
		return []string{
			`CREATE TABLE IF NOT EXISTS books (
    book_id          BIGSERIAL PRIMARY KEY,
    title            TEXT NOT NULL,
    publication_year INTEGER,
    image_url        TEXT
)`,
			`CREATE TABLE IF NOT EXISTS authors (
    author_id BIGSERIAL PRIMARY KEY,
    name      TEXT NOT NULL UNIQUE
)`,
			`CREATE TABLE IF NOT EXISTS book_author (
    book_id   BIGINT NOT NULL REFERENCES books (book_id),
    author_id BIGINT NOT NULL REFERENCES authors (author_id),
    PRIMARY KEY (book_id, author_id)
)`,
			`CREATE INDEX IF NOT EXISTS book_author_author_idx ON book_author (author_id)`,
		}

	case "mysql":
		// MySQL cannot put a UNIQUE key on TEXT, and the utf8mb4_bin collation
		// keeps author-name matching case-sensitive.
		return []string{
			`CREATE TABLE IF NOT EXISTS books (
    book_id          BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    title            TEXT NOT NULL,
    publication_year INT NULL,
    image_url        TEXT NULL
)`,
			`CREATE TABLE IF NOT EXISTS authors (
    author_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    name      VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
    UNIQUE KEY authors_name_key (name)
)`,
			`CREATE TABLE IF NOT EXISTS book_author (
    book_id   BIGINT NOT NULL,
    author_id BIGINT NOT NULL,
    PRIMARY KEY (book_id, author_id),
    KEY book_author_author_idx (author_id),
    FOREIGN KEY (book_id) REFERENCES books (book_id),
    FOREIGN KEY (author_id) REFERENCES authors (author_id)
)`,
		}

	default: // sqlite3
		return []string{
			`CREATE TABLE IF NOT EXISTS books (
    book_id          INTEGER PRIMARY KEY AUTOINCREMENT,
    title            TEXT NOT NULL,
    publication_year INTEGER,
    image_url        TEXT
)`,
			`CREATE TABLE IF NOT EXISTS authors (
    author_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name      TEXT NOT NULL UNIQUE
)`,
			`CREATE TABLE IF NOT EXISTS book_author (
    book_id   INTEGER NOT NULL,
    author_id INTEGER NOT NULL,
    PRIMARY KEY (book_id, author_id),
    FOREIGN KEY (book_id) REFERENCES books (book_id),
    FOREIGN KEY (author_id) REFERENCES authors (author_id)
)`,
			`CREATE INDEX IF NOT EXISTS book_author_author_idx ON book_author (author_id)`,
		}
	}
}

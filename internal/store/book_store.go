package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/joestump/joe-books/internal/metrics"
)

// UnknownAuthor is reported for a book with no linked author.
const UnknownAuthor = "Unknown"

// BookView is a book joined with its aggregated author names.
type BookView struct {
	BookID          int64          `db:"book_id"`
	Title           string         `db:"title"`
	PublicationYear sql.NullInt64  `db:"publication_year"`
	ImageURL        sql.NullString `db:"image_url"`
	Author          string         `db:"author"`
}

// BookStore is the sqlx-backed implementation of Catalog.
type BookStore struct {
	db      *sqlx.DB
	dialect dialect
	log     *slog.Logger
}

func NewBookStore(db *sqlx.DB, log *slog.Logger) *BookStore {
	return &BookStore{db: db, dialect: dialectFor(db.DriverName()), log: log}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *BookStore) q(query string) string { return s.db.Rebind(query) }

// Ping checks that the database is reachable.
func (s *BookStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AddBook inserts a book, looks up or creates each author by exact name and
// links them, all in one transaction. It returns the new book's ID.
//
// Blank title or author fails with a *ValidationError before any write.
//
// The insert-ignore author path means SQLite, MySQL and PostgreSQL never
// report a duplicate author name here. A uniqueness error that still escapes
// the transaction (a trigger, or a backend without an ignore form) rolls the
// unit back and it is run once more before the error is returned.
func (s *BookStore) AddBook(ctx context.Context, nb NewBook) (int64, error) {
	in, err := nb.normalize()
	if err != nil {
		return 0, err
	}

	id, err := s.addBookTx(ctx, in)
	if err != nil && isUniqueConstraintError(err) {
		// Another writer created one of our authors between our insert and
		// commit. The transaction rolled back as a whole; run it again and
		// pick up the winner's row.
		metrics.AuthorRaceRetriesTotal.Inc()
		s.log.DebugContext(ctx, "retrying add_book after author race", "title", in.Title, "error", err)
		id, err = s.addBookTx(ctx, in)
	}
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("catalog", "add_book").Inc()
		return 0, fmt.Errorf("add book: %w", err)
	}

	metrics.BooksAddedTotal.Inc()
	s.log.InfoContext(ctx, "book added", "book_id", id, "title", in.Title, "authors", len(in.Authors))
	return id, nil
}

func (s *BookStore) addBookTx(ctx context.Context, in *bookInput) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	bookID, err := s.insertBookTx(ctx, tx, in)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	for _, name := range in.Authors {
		authorID, err := s.authorIDTx(ctx, tx, name)
		if err != nil {
			return 0, fmt.Errorf("resolve author %q: %w", name, err)
		}
		_, err = tx.ExecContext(ctx, s.q(s.dialect.insertIgnore("book_author", "book_id", "author_id")), bookID, authorID)
		if err != nil {
			return 0, fmt.Errorf("link author %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return bookID, nil
}

func (s *BookStore) insertBookTx(ctx context.Context, tx *sqlx.Tx, in *bookInput) (int64, error) {
	var year sql.NullInt64
	if in.PublicationYear != nil {
		year = sql.NullInt64{Int64: int64(*in.PublicationYear), Valid: true}
	}
	image := sql.NullString{String: in.ImageURL, Valid: in.ImageURL != ""}

	const insert = `INSERT INTO books (title, publication_year, image_url) VALUES (?, ?, ?)`

	// lib/pq does not implement LastInsertId.
	if s.dialect == dialectPostgres {
		var id int64
		err := tx.QueryRowxContext(ctx, s.q(insert+` RETURNING book_id`), in.Title, year, image).Scan(&id)
		return id, err
	}

	res, err := tx.ExecContext(ctx, s.q(insert), in.Title, year, image)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// authorIDTx returns the ID of the author named exactly name, creating the
// row if needed. The insert comes first and ignores a conflict, so two
// transactions racing on a new name cannot both create it. The select must
// see a row committed by the racing transaction after our snapshot was
// taken, hence the locking read on MySQL.
func (s *BookStore) authorIDTx(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	if _, err := tx.ExecContext(ctx, s.q(s.dialect.insertIgnore("authors", "name")), name); err != nil {
		return 0, err
	}

	var id int64
	err := tx.GetContext(ctx, &id, s.q(`SELECT author_id FROM authors WHERE name = ?`+s.dialect.lockingRead()), name)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// selectBookViews is the shared projection for list, search and get. The
// caller appends a WHERE clause (or nothing) and the GROUP BY/ORDER BY tail.
func (s *BookStore) selectBookViews(where, orderBy string) string {
	var b strings.Builder
	b.WriteString(`
		SELECT b.book_id, b.title, b.publication_year, b.image_url,
		       COALESCE(`)
	b.WriteString(s.dialect.authorNames())
	b.WriteString(`, '` + UnknownAuthor + `') AS author
		FROM books b
		LEFT JOIN book_author ba ON ba.book_id = b.book_id
		LEFT JOIN authors a ON a.author_id = ba.author_id
	`)
	if where != "" {
		b.WriteString("WHERE " + where + "\n")
	}
	b.WriteString(`GROUP BY b.book_id, b.title, b.publication_year, b.image_url
		ORDER BY ` + orderBy)
	return s.q(b.String())
}

// ListBooks returns every book ordered by title, ignoring case.
func (s *BookStore) ListBooks(ctx context.Context) ([]*BookView, error) {
	books := []*BookView{}
	err := s.db.SelectContext(ctx, &books, s.selectBookViews("", `LOWER(b.title) ASC, b.book_id ASC`))
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("catalog", "list_books").Inc()
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// SearchBooks returns books whose title or any author's name contains q,
// ignoring case. A blank q matches nothing. Results are in storage order.
func (s *BookStore) SearchBooks(ctx context.Context, q string) ([]*BookView, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		metrics.SearchesTotal.WithLabelValues("blank").Inc()
		return []*BookView{}, nil
	}

	// The author match is a subquery so a book found through one author
	// still reports all of its authors.
	where := `LOWER(b.title) LIKE LOWER(?) ESCAPE '!'
		   OR b.book_id IN (
		       SELECT ba2.book_id FROM book_author ba2
		       INNER JOIN authors a2 ON a2.author_id = ba2.author_id
		       WHERE LOWER(a2.name) LIKE LOWER(?) ESCAPE '!'
		   )`
	pattern := "%" + escapeLike(q) + "%"

	books := []*BookView{}
	err := s.db.SelectContext(ctx, &books, s.selectBookViews(where, `b.book_id ASC`), pattern, pattern)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("catalog", "search_books").Inc()
		return nil, fmt.Errorf("search books: %w", err)
	}

	if len(books) == 0 {
		metrics.SearchesTotal.WithLabelValues("miss").Inc()
	} else {
		metrics.SearchesTotal.WithLabelValues("hit").Inc()
	}
	return books, nil
}

// GetBook returns a single book view, or ErrNotFound.
func (s *BookStore) GetBook(ctx context.Context, id int64) (*BookView, error) {
	var b BookView
	err := s.db.GetContext(ctx, &b, s.selectBookViews(`b.book_id = ?`, `b.book_id ASC`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("catalog", "get_book").Inc()
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return &b, nil
}

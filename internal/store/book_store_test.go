package store_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joestump/joe-books/internal/db"
	"github.com/joestump/joe-books/internal/logger"
	"github.com/joestump/joe-books/internal/metrics"
	"github.com/joestump/joe-books/internal/store"
	"github.com/joestump/joe-books/internal/testutil"
)

func newBookTestEnv(t *testing.T) (*store.BookStore, *sqlx.DB) {
	t.Helper()
	conn := testutil.NewTestDB(t)
	return store.NewBookStore(conn, logger.Discard()), conn
}

func addBook(t *testing.T, bs *store.BookStore, title, author string) int64 {
	t.Helper()
	id, err := bs.AddBook(context.Background(), store.NewBook{Title: title, Author: author})
	if err != nil {
		t.Fatalf("AddBook(%q, %q): %v", title, author, err)
	}
	return id
}

func countRows(t *testing.T, conn *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := conn.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func titles(books []*store.BookView) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func TestBookStore_AddBook_ThenList(t *testing.T) {
	bs, _ := newBookTestEnv(t)
	ctx := context.Background()
	year := 2008

	id, err := bs.AddBook(ctx, store.NewBook{
		Title:           "Clean Code",
		Author:          "Robert C. Martin",
		PublicationYear: &year,
		ImageURL:        "http://x/y.jpg",
	})
	if err != nil {
		t.Fatalf("AddBook: %v", err)
	}
	if id <= 0 {
		t.Errorf("book id = %d, want > 0", id)
	}

	books, err := bs.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("len = %d, want 1", len(books))
	}
	b := books[0]
	if b.BookID != id || b.Title != "Clean Code" {
		t.Errorf("book = %d %q, want %d %q", b.BookID, b.Title, id, "Clean Code")
	}
	if !strings.Contains(b.Author, "Robert C. Martin") {
		t.Errorf("author = %q, want it to contain %q", b.Author, "Robert C. Martin")
	}
	if !b.PublicationYear.Valid || b.PublicationYear.Int64 != 2008 {
		t.Errorf("publication_year = %+v, want 2008", b.PublicationYear)
	}
	if !strings.HasSuffix(b.ImageURL.String, "y.jpg") {
		t.Errorf("image_url = %q, want suffix y.jpg", b.ImageURL.String)
	}
}

func TestBookStore_AddBook_TrimsAndStoresNulls(t *testing.T) {
	bs, _ := newBookTestEnv(t)
	ctx := context.Background()

	id := addBook(t, bs, "  Dune  ", "  Frank Herbert ")

	b, err := bs.GetBook(ctx, id)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if b.Title != "Dune" || b.Author != "Frank Herbert" {
		t.Errorf("got %q by %q, want trimmed values", b.Title, b.Author)
	}
	if b.PublicationYear.Valid {
		t.Errorf("publication_year = %d, want NULL", b.PublicationYear.Int64)
	}
	if b.ImageURL.Valid {
		t.Errorf("image_url = %q, want NULL", b.ImageURL.String)
	}
}

func TestBookStore_AddBook_ReusesAuthor(t *testing.T) {
	bs, conn := newBookTestEnv(t)
	ctx := context.Background()

	id1 := addBook(t, bs, "Refactoring", "Martin Fowler")
	id2 := addBook(t, bs, "Patterns of Enterprise Application Architecture", " Martin Fowler ")

	if id1 == id2 {
		t.Fatalf("expected distinct book ids, both %d", id1)
	}
	if n := countRows(t, conn, "authors"); n != 1 {
		t.Errorf("authors = %d, want 1", n)
	}
	if n := countRows(t, conn, "books"); n != 2 {
		t.Errorf("books = %d, want 2", n)
	}

	books, err := bs.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	for _, b := range books {
		if b.Author != "Martin Fowler" {
			t.Errorf("%q author = %q, want %q", b.Title, b.Author, "Martin Fowler")
		}
	}
}

func TestBookStore_AddBook_AuthorMatchIsCaseSensitive(t *testing.T) {
	bs, conn := newBookTestEnv(t)

	addBook(t, bs, "All About Love", "bell hooks")
	addBook(t, bs, "Teaching to Transgress", "Bell Hooks")

	if n := countRows(t, conn, "authors"); n != 2 {
		t.Errorf("authors = %d, want 2", n)
	}
}

func TestBookStore_AddBook_Validation(t *testing.T) {
	tests := []struct {
		name    string
		book    store.NewBook
		wantMsg string
	}{
		{name: "empty title", book: store.NewBook{Title: "", Author: "Someone"}, wantMsg: "title is required"},
		{name: "blank title", book: store.NewBook{Title: "   ", Author: "Someone"}, wantMsg: "title is required"},
		{name: "empty author", book: store.NewBook{Title: "Something", Author: ""}, wantMsg: "author is required"},
		{name: "blank authors list", book: store.NewBook{Title: "Something", Authors: []string{" ", ""}}, wantMsg: "author is required"},
		{name: "both missing", book: store.NewBook{}, wantMsg: "title is required, author is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs, conn := newBookTestEnv(t)

			_, err := bs.AddBook(context.Background(), tt.book)
			if !errors.Is(err, store.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			var ve *store.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %T, want *store.ValidationError", err)
			}
			if ve.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", ve.Error(), tt.wantMsg)
			}

			for _, table := range []string{"books", "authors", "book_author"} {
				if n := countRows(t, conn, table); n != 0 {
					t.Errorf("%s = %d rows, want 0", table, n)
				}
			}
		})
	}
}

func TestBookStore_AddBook_MultipleAuthors(t *testing.T) {
	bs, conn := newBookTestEnv(t)
	ctx := context.Background()

	id, err := bs.AddBook(ctx, store.NewBook{
		Title:   "The C Programming Language",
		Author:  "Brian Kernighan",
		Authors: []string{"Dennis Ritchie", "Brian Kernighan"},
	})
	if err != nil {
		t.Fatalf("AddBook: %v", err)
	}

	if n := countRows(t, conn, "book_author"); n != 2 {
		t.Errorf("links = %d, want 2", n)
	}

	b, err := bs.GetBook(ctx, id)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if !strings.Contains(b.Author, "Brian Kernighan") || !strings.Contains(b.Author, "Dennis Ritchie") {
		t.Errorf("author = %q, want both names", b.Author)
	}
	if !strings.Contains(b.Author, ", ") {
		t.Errorf("author = %q, want names joined by \", \"", b.Author)
	}
}

func TestBookStore_ListBooks_OrderIgnoresCase(t *testing.T) {
	bs, _ := newBookTestEnv(t)

	addBook(t, bs, "banana", "Author One")
	addBook(t, bs, "Apple", "Author Two")
	addBook(t, bs, "cherry", "Author One")

	books, err := bs.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	got := strings.Join(titles(books), ",")
	if got != "Apple,banana,cherry" {
		t.Errorf("order = %s, want Apple,banana,cherry", got)
	}
}

func TestBookStore_ListBooks_Empty(t *testing.T) {
	bs, _ := newBookTestEnv(t)

	books, err := bs.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if books == nil || len(books) != 0 {
		t.Errorf("books = %#v, want empty non-nil slice", books)
	}
}

func TestBookStore_ListBooks_UnknownAuthor(t *testing.T) {
	bs, conn := newBookTestEnv(t)

	if _, err := conn.Exec(`INSERT INTO books (title) VALUES ('Orphan')`); err != nil {
		t.Fatalf("insert orphan: %v", err)
	}

	books, err := bs.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 1 || books[0].Author != store.UnknownAuthor {
		t.Fatalf("books = %+v, want one book by %q", books, store.UnknownAuthor)
	}
}

func TestBookStore_SearchBooks(t *testing.T) {
	bs, _ := newBookTestEnv(t)
	ctx := context.Background()

	addBook(t, bs, "Refactoring", "Martin Fowler")
	addBook(t, bs, "Domain-Driven Design", "Eric Evans")
	addBook(t, bs, "The Go Programming Language", "Alan Donovan")

	tests := []struct {
		name string
		q    string
		want []string
	}{
		{name: "title case-insensitive", q: "refactoring", want: []string{"Refactoring"}},
		{name: "title substring", q: "DRIVEN", want: []string{"Domain-Driven Design"}},
		{name: "author substring", q: "fowl", want: []string{"Refactoring"}},
		{name: "matches several", q: "in", want: []string{"Refactoring", "Domain-Driven Design", "The Go Programming Language"}},
		{name: "no match", q: "kubernetes", want: []string{}},
		{name: "blank", q: "   ", want: []string{}},
		{name: "empty", q: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := bs.SearchBooks(ctx, tt.q)
			if err != nil {
				t.Fatalf("SearchBooks(%q): %v", tt.q, err)
			}
			if books == nil {
				t.Fatal("expected non-nil slice")
			}
			got := titles(books)
			if len(got) != len(tt.want) {
				t.Fatalf("SearchBooks(%q) = %v, want %v", tt.q, got, tt.want)
			}
			for _, w := range tt.want {
				found := false
				for _, g := range got {
					if g == w {
						found = true
					}
				}
				if !found {
					t.Errorf("SearchBooks(%q) = %v, missing %q", tt.q, got, w)
				}
			}
		})
	}
}

func TestBookStore_SearchBooks_AuthorMatchReportsAllAuthors(t *testing.T) {
	bs, _ := newBookTestEnv(t)
	ctx := context.Background()

	_, err := bs.AddBook(ctx, store.NewBook{
		Title:   "Design Patterns",
		Authors: []string{"Erich Gamma", "Richard Helm"},
	})
	if err != nil {
		t.Fatalf("AddBook: %v", err)
	}

	books, err := bs.SearchBooks(ctx, "helm")
	if err != nil {
		t.Fatalf("SearchBooks: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("len = %d, want 1", len(books))
	}
	if !strings.Contains(books[0].Author, "Erich Gamma") {
		t.Errorf("author = %q, want the non-matching author included", books[0].Author)
	}
}

func TestBookStore_SearchBooks_WildcardsAreLiteral(t *testing.T) {
	bs, _ := newBookTestEnv(t)
	ctx := context.Background()

	addBook(t, bs, "100% Go", "Someone")
	addBook(t, bs, "1000 Gophers", "Someone Else")
	addBook(t, bs, "snake_case", "Third Person")

	tests := []struct {
		q    string
		want int
	}{
		{q: "100%", want: 1},
		{q: "_", want: 1},
		{q: "!", want: 0},
	}
	for _, tt := range tests {
		books, err := bs.SearchBooks(ctx, tt.q)
		if err != nil {
			t.Fatalf("SearchBooks(%q): %v", tt.q, err)
		}
		if len(books) != tt.want {
			t.Errorf("SearchBooks(%q) = %v, want %d results", tt.q, titles(books), tt.want)
		}
	}
}

func TestBookStore_GetBook_NotFound(t *testing.T) {
	bs, _ := newBookTestEnv(t)

	_, err := bs.GetBook(context.Background(), 4242)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetBook(4242) = %v, want ErrNotFound", err)
	}
}

func TestBookStore_StorageFaultIsWrapped(t *testing.T) {
	bs, conn := newBookTestEnv(t)
	_ = conn.Close()

	_, err := bs.ListBooks(context.Background())
	if err == nil {
		t.Fatal("expected error after close")
	}
	if errors.Is(err, store.ErrValidation) {
		t.Errorf("storage fault reported as validation: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "list books:") {
		t.Errorf("err = %q, want wrapped with operation", err)
	}
}

func TestBookStore_AddBook_RollsBackOnLinkFailure(t *testing.T) {
	bs, conn := newBookTestEnv(t)

	// The book and author inserts succeed; the link insert fails.
	if _, err := conn.Exec(`DROP TABLE book_author`); err != nil {
		t.Fatalf("drop book_author: %v", err)
	}

	_, err := bs.AddBook(context.Background(), store.NewBook{Title: "Orphan?", Author: "Nobody"})
	if err == nil {
		t.Fatal("expected error when the link cannot be written")
	}
	if errors.Is(err, store.ErrValidation) {
		t.Errorf("storage fault reported as validation: %v", err)
	}
	if n := countRows(t, conn, "books"); n != 0 {
		t.Errorf("books = %d, want 0 after rollback", n)
	}
	if n := countRows(t, conn, "authors"); n != 0 {
		t.Errorf("authors = %d, want 0 after rollback", n)
	}
}

func TestBookStore_AddBook_RetriesOnceOnUniqueViolation(t *testing.T) {
	bs, conn := newBookTestEnv(t)

	// Simulates a backend that reports a lost author race as an error.
	_, err := conn.Exec(`
		CREATE TRIGGER books_contested BEFORE INSERT ON books
		WHEN NEW.title = 'Contested'
		BEGIN
			SELECT RAISE(ABORT, 'UNIQUE constraint failed: authors.name');
		END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	before := promtest.ToFloat64(metrics.AuthorRaceRetriesTotal)
	_, err = bs.AddBook(context.Background(), store.NewBook{Title: "Contested", Author: "Somebody"})
	if err == nil {
		t.Fatal("expected error when every attempt violates uniqueness")
	}
	if !strings.HasPrefix(err.Error(), "add book:") {
		t.Errorf("err = %q, want wrapped with operation", err)
	}
	if got := promtest.ToFloat64(metrics.AuthorRaceRetriesTotal) - before; got != 1 {
		t.Errorf("retries = %v, want exactly 1", got)
	}
	if n := countRows(t, conn, "books"); n != 0 {
		t.Errorf("books = %d, want 0", n)
	}
	if n := countRows(t, conn, "authors"); n != 0 {
		t.Errorf("authors = %d, want 0", n)
	}

	// Other titles are unaffected, and do not retry.
	before = promtest.ToFloat64(metrics.AuthorRaceRetriesTotal)
	addBook(t, bs, "Uncontested", "Somebody")
	if got := promtest.ToFloat64(metrics.AuthorRaceRetriesTotal) - before; got != 0 {
		t.Errorf("retries = %v, want 0 for a clean add", got)
	}
}

func TestBookStore_AddBook_ConcurrentSameAuthor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.db")
	conn, err := db.New("sqlite3", "file:"+path+"?_pragma=busy_timeout(10000)&_txlock=immediate")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.Migrate(conn, "sqlite3", logger.Discard()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	bs := store.NewBookStore(conn, logger.Discard())

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := bs.AddBook(context.Background(), store.NewBook{
				Title:  fmt.Sprintf("Volume %d", i),
				Author: "Brand New Author",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("AddBook: %v", err)
		}
	}
	if n := countRows(t, conn, "authors"); n != 1 {
		t.Errorf("authors = %d, want 1", n)
	}
	if n := countRows(t, conn, "books"); n != writers {
		t.Errorf("books = %d, want %d", n, writers)
	}
	if n := countRows(t, conn, "book_author"); n != writers {
		t.Errorf("links = %d, want %d", n, writers)
	}
}

package api_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/joestump/joe-books/internal/api"
	"github.com/joestump/joe-books/internal/logger"
	"github.com/joestump/joe-books/internal/reviews"
	"github.com/joestump/joe-books/internal/store"
	"github.com/joestump/joe-books/internal/testutil"
)

// testEnv holds the stores and router used by API integration tests.
type testEnv struct {
	Router  http.Handler
	Books   *store.BookStore
	Reviews *reviews.BadgerStore
}

// newTestEnv creates an in-memory SQLite catalog and an in-memory Badger
// review store, and wires up the full API router with them.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := logger.Discard()

	books := store.NewBookStore(db, log)
	rs, err := reviews.OpenBadger("", log)
	if err != nil {
		t.Fatalf("open review store: %v", err)
	}
	t.Cleanup(func() { _ = rs.Close(context.Background()) })

	router := api.NewAPIRouter(api.Deps{Catalog: books, Reviews: rs, Log: log})
	return &testEnv{Router: router, Books: books, Reviews: rs}
}

// seedBook adds a book through the store and returns its ID.
func seedBook(t *testing.T, env *testEnv, title, author string) int64 {
	t.Helper()
	id, err := env.Books.AddBook(context.Background(), store.NewBook{Title: title, Author: author})
	if err != nil {
		t.Fatalf("seed book %q: %v", title, err)
	}
	return id
}

func jsonBody(s string) *strings.Reader { return strings.NewReader(s) }

var errBoom = errors.New("boom: connection refused")

// brokenCatalog fails every call.
type brokenCatalog struct{}

func (brokenCatalog) AddBook(context.Context, store.NewBook) (int64, error) { return 0, errBoom }
func (brokenCatalog) GetBook(context.Context, int64) (*store.BookView, error) {
	return nil, errBoom
}
func (brokenCatalog) ListBooks(context.Context) ([]*store.BookView, error) { return nil, errBoom }
func (brokenCatalog) SearchBooks(context.Context, string) ([]*store.BookView, error) {
	return nil, errBoom
}
func (brokenCatalog) Ping(context.Context) error { return errBoom }

// brokenReviews fails every call.
type brokenReviews struct{}

func (brokenReviews) Add(context.Context, reviews.Review) error { return errBoom }
func (brokenReviews) ListByBook(context.Context, string) ([]reviews.Review, error) {
	return nil, errBoom
}
func (brokenReviews) Ping(context.Context) error  { return errBoom }
func (brokenReviews) Close(context.Context) error { return nil }

func newBrokenRouter() http.Handler {
	return api.NewAPIRouter(api.Deps{Catalog: brokenCatalog{}, Reviews: brokenReviews{}, Log: logger.Discard()})
}

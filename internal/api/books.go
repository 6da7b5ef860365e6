package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/joe-books/internal/store"
)

// booksAPIHandler provides REST handlers for the book catalog.
type booksAPIHandler struct {
	catalog store.Catalog
	log     *slog.Logger
}

// registerBookRoutes registers catalog routes on r.
func registerBookRoutes(r chi.Router, catalog store.Catalog, log *slog.Logger) {
	h := &booksAPIHandler{catalog: catalog, log: log}
	r.Get("/books", h.List)
	r.Get("/books/{book_id}", h.Get)
	r.Post("/add_book", h.Add)
	r.Get("/search", h.Search)
}

// List returns every book ordered by title.
// GET /api/books
//
// @Summary      List books
// @Description  Returns all books ordered by title (case-insensitive). Authors are joined by ", "; a book without authors reports "Unknown".
// @Tags         Books
// @Produce      json
// @Success      200  {object}  BookListResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /books [get]
func (h *booksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.ListBooks(r.Context())
	if err != nil {
		writeInternal(w, r, h.log, "list_books", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookList(books))
}

// Get returns a single book.
// GET /api/books/{book_id}
//
// @Summary      Get a book
// @Tags         Books
// @Produce      json
// @Param        book_id  path      int  true  "Book ID"
// @Success      200      {object}  BookResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /books/{book_id} [get]
func (h *booksAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	book, err := h.catalog.GetBook(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "book not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeInternal(w, r, h.log, "get_book", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(book))
}

// Add creates a book and links its authors, creating authors that do not
// exist yet.
// POST /api/add_book
//
// @Summary      Add a book
// @Description  Title and author are required. Authors are matched by exact name and created when missing.
// @Tags         Books
// @Accept       json
// @Produce      json
// @Param        body  body      AddBookRequest  true  "Book to add"
// @Success      201   {object}  AddBookResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /add_book [post]
func (h *booksAPIHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}

	id, err := h.catalog.AddBook(r.Context(), store.NewBook{
		Title:           req.Title,
		Author:          req.Author,
		Authors:         req.Authors,
		PublicationYear: req.PublicationYear,
		ImageURL:        req.ImageURL,
	})
	if errors.Is(err, store.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if err != nil {
		writeInternal(w, r, h.log, "add_book", err)
		return
	}

	writeJSON(w, http.StatusCreated, AddBookResponse{Message: "Book added", BookID: id})
}

// Search finds books by a case-insensitive substring of the title or any
// author's name.
// GET /api/search?q=
//
// @Summary      Search books
// @Description  Matches q against titles and author names, ignoring case. A blank q returns no books.
// @Tags         Books
// @Produce      json
// @Param        q    query     string  false  "Substring to look for"
// @Success      200  {object}  BookListResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /search [get]
func (h *booksAPIHandler) Search(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.SearchBooks(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeInternal(w, r, h.log, "search_books", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookList(books))
}

// bookIDParam parses the {book_id} path segment. Anything that is not an
// integer is answered with 404, as no such resource can exist.
func bookIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "book_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found", "NOT_FOUND")
		return 0, false
	}
	return id, true
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/joestump/joe-books/internal/store"
)

// HomeHandler serves the catalog page.
type HomeHandler struct {
	catalog store.Catalog
	log     *slog.Logger
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(catalog store.Catalog, log *slog.Logger) *HomeHandler {
	return &HomeHandler{catalog: catalog, log: log}
}

// HomePage is the data for index.html.
type HomePage struct {
	BasePage
	Books []*store.BookView
	Error string
}

// Index serves GET /. The first page of books is rendered server-side; the
// search, add and review forms talk to /api from the browser.
func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	data := HomePage{BasePage: newBasePage(r)}

	books, err := h.catalog.ListBooks(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "list books for home page", "error", err)
		data.Error = "The catalog is unavailable right now."
	}
	data.Books = books

	render(w, "index.html", data)
}

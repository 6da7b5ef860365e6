package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/joe-books/internal/reviews"
	"github.com/joestump/joe-books/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Deps holds all dependencies required to build the API router.
type Deps struct {
	Catalog store.Catalog
	Reviews reviews.Store
	Log     *slog.Logger
}

// NewAPIRouter creates a chi sub-router for /api.
// All routes return application/json.
func NewAPIRouter(deps Deps) chi.Router {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(jsonContentType)

	registerBookRoutes(r, deps.Catalog, log)
	registerReviewRoutes(r, deps.Reviews, log)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", "NOT_FOUND")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
	})

	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
